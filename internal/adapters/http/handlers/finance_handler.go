package handlers

import (
	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"
	"unem-umt/internal/pkg/xlsx"

	"github.com/gofiber/fiber/v2"
)

// FinanceHandler handles income and expense endpoints
type FinanceHandler struct {
	rpc
	financeService *services.FinanceService
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(financeService *services.FinanceService, errorLog *services.ErrorLogService) *FinanceHandler {
	return &FinanceHandler{
		rpc:            rpc{errorLog: errorLog},
		financeService: financeService,
	}
}

// TransactionStatusRequest carries a workflow status change
type TransactionStatusRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// TransactionNameRequest carries a transaction reference
type TransactionNameRequest struct {
	Name string `json:"name"`
}

// Page returns the finance page context
// @Summary Finance page
// @Description Month totals, balance, pending count and merged transactions
// @Tags Finance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/finance [get]
func (h *FinanceHandler) Page(c *fiber.Ctx) error {
	page, err := h.financeService.PageContext(c.Context())
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", page)
}

// SaveTransaction creates or updates a draft income or expense entry
// @Summary Save transaction
// @Tags Finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.TransactionInput true "Transaction"
// @Success 200 {object} response.RPCResult
// @Router /admin/finance/save_transaction [post]
func (h *FinanceHandler) SaveTransaction(c *fiber.Ctx) error {
	var input services.TransactionInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	name, err := h.financeService.SaveTransaction(c.Context(), &input, middleware.GetUsername(c))
	if err != nil {
		return h.fail(c, titleSaveTransaction, err)
	}
	return response.RPC(c, services.MsgTransactionSaved, fiber.Map{"name": name})
}

// UpdateTransactionStatus sets Pending, Approved or Rejected
// @Summary Update transaction status
// @Tags Finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TransactionStatusRequest true "Status change"
// @Success 200 {object} response.RPCResult
// @Router /admin/finance/update_transaction_status [post]
func (h *FinanceHandler) UpdateTransactionStatus(c *fiber.Ctx) error {
	var req TransactionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.financeService.UpdateTransactionStatus(c.Context(), req.Name, req.Status); err != nil {
		return h.fail(c, titleTransactionStatus, err)
	}
	return response.RPC(c, services.MsgTransactionStatus, nil)
}

// SubmitTransaction submits a draft entry
// @Summary Submit transaction
// @Tags Finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TransactionNameRequest true "Transaction"
// @Success 200 {object} response.RPCResult
// @Router /admin/finance/submit_transaction [post]
func (h *FinanceHandler) SubmitTransaction(c *fiber.Ctx) error {
	var req TransactionNameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.financeService.Submit(c.Context(), req.Name); err != nil {
		return h.fail(c, titleTransactionStatus, err)
	}
	return response.RPC(c, services.MsgTransactionSubmitted, nil)
}

// CancelTransaction cancels a submitted entry
// @Summary Cancel transaction
// @Tags Finance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TransactionNameRequest true "Transaction"
// @Success 200 {object} response.RPCResult
// @Router /admin/finance/cancel_transaction [post]
func (h *FinanceHandler) CancelTransaction(c *fiber.Ctx) error {
	var req TransactionNameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.financeService.Cancel(c.Context(), req.Name); err != nil {
		return h.fail(c, titleTransactionStatus, err)
	}
	return response.RPC(c, services.MsgTransactionCancelled, nil)
}

// ExportTransactions downloads the filtered transactions as a spreadsheet
// @Summary Export transactions
// @Tags Finance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param type query string false "income or expense"
// @Param status query string false "Workflow status"
// @Param from_date query string false "From date (YYYY-MM-DD)"
// @Param to_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /admin/finance/export_transactions [get]
func (h *FinanceHandler) ExportTransactions(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	data, err := h.financeService.Export(c.Context(), services.TransactionFilter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		FromDate: from,
		ToDate:   to,
	})
	if err != nil {
		return h.fail(c, titleExport, err)
	}
	return sendFile(c, services.FinanceExportFile, xlsx.ContentType, data)
}
