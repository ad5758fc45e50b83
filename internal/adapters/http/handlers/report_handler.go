package handlers

import (
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles the financial and membership reports
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func reportFilter(c *fiber.Ctx) (services.ReportFilter, error) {
	from, to, err := dateRange(c)
	if err != nil {
		return services.ReportFilter{}, err
	}
	return services.ReportFilter{
		AcademicYear: c.Query("academic_year"),
		FromDate:     from,
		ToDate:       to,
	}, nil
}

// FinancialSummary returns the monthly income/expense report
// @Summary Financial summary report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param academic_year query string false "Academic year"
// @Param from_date query string false "From date (YYYY-MM-DD)"
// @Param to_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/reports/financial_summary [get]
func (h *ReportHandler) FinancialSummary(c *fiber.Ctx) error {
	filter, err := reportFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	report, err := h.reportService.FinancialSummary(c.Context(), filter)
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", report)
}

// MemberStatus returns member and card counts per province
// @Summary Member status report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param academic_year query string false "Academic year"
// @Param from_date query string false "From date (YYYY-MM-DD)"
// @Param to_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/reports/member_status [get]
func (h *ReportHandler) MemberStatus(c *fiber.Ctx) error {
	filter, err := reportFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	report, err := h.reportService.MemberStatus(c.Context(), filter)
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", report)
}
