package handlers

import (
	"errors"
	"strconv"
	"time"

	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Error log titles of the RPC endpoints
const (
	titleSaveMember        = "خطأ في حفظ العضو"
	titleDeleteMember      = "خطأ في حذف العضو"
	titleSaveSettings      = "خطأ في حفظ الإعدادات"
	titleSavePaymentMethod = "خطأ في حفظ طريقة الدفع"
	titleTogglePayment     = "خطأ في تحديث حالة طريقة الدفع"
	titleSaveTransaction   = "خطأ في حفظ المعاملة المالية"
	titleTransactionStatus = "خطأ في تحديث حالة المعاملة"
	titleSaveStructure     = "خطأ في حفظ الهيكل"
	titleCreateBackup      = "خطأ في إنشاء النسخة الاحتياطية"
	titleDeleteBackup      = "خطأ في حذف النسخة الاحتياطية"
	titleTestEmail         = "خطأ في اختبار إعدادات البريد"
	titleSaveRole          = "خطأ في حفظ الدور"
	titleDeleteRole        = "خطأ في حذف الدور"
	titleDeleteProvince    = "خطأ في حذف الإقليم"
	titleSaveProvince      = "خطأ في حفظ الإقليم"
	titleSaveCard          = "خطأ في حفظ البطاقة"
	titleSaveMandate       = "خطأ في حفظ الولاية"
	titleSaveAcademicYear  = "خطأ في حفظ السنة الدراسية"
	titleSubmitRenewal     = "خطأ في تقديم طلب التجديد"
	titleExport            = "خطأ في تصدير البيانات"
)

// msgInvalidBody is returned when the request body cannot be decoded
const msgInvalidBody = "بيانات الطلب غير صالحة"

// rpc reports RPC failures in the {success, message} envelope after
// recording them to the error log
type rpc struct {
	errorLog *services.ErrorLogService
}

func (r rpc) fail(c *fiber.Ctx, title string, err error) error {
	if r.errorLog != nil {
		r.errorLog.Record(c.Context(), title, err)
	}
	return response.RPCFailure(c, err.Error())
}

// pageError maps a page-context error to an HTTP response
func pageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case domain.IsValidation(err):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, err.Error())
	}
}

// queryUint reads a positive integer query parameter, 0 when absent or invalid
func queryUint(c *fiber.Ctx, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// dateRange reads the from_date and to_date query parameters
func dateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = dateutil.ParseOptional(c.Query("from_date")); err != nil {
		return nil, nil, err
	}
	if to, err = dateutil.ParseOptional(c.Query("to_date")); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// sendFile writes an attachment
func sendFile(c *fiber.Ctx, filename, contentType string, data []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}
