package handlers

import (
	"errors"

	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PortalHandler handles the member portal
type PortalHandler struct {
	rpc
	portalService    *services.PortalService
	dashboardService *services.DashboardService
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(
	portalService *services.PortalService,
	dashboardService *services.DashboardService,
	errorLog *services.ErrorLogService,
) *PortalHandler {
	return &PortalHandler{
		rpc:              rpc{errorLog: errorLog},
		portalService:    portalService,
		dashboardService: dashboardService,
	}
}

func portalError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrLoginRequired):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrMemberNotFound):
		return response.NotFound(c, err.Error())
	default:
		return pageError(c, err)
	}
}

// Portal returns the signed-in member's information and activity feed
// @Summary Member portal
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /portal [get]
func (h *PortalHandler) Portal(c *fiber.Ctx) error {
	portal, err := h.portalService.Portal(c.Context(), middleware.GetEmail(c))
	if err != nil {
		return portalError(c, err)
	}
	return response.Success(c, "", portal)
}

// Dashboard summarizes the signed-in member's card and payments
// @Summary Member dashboard
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /portal/dashboard [get]
func (h *PortalHandler) Dashboard(c *fiber.Ctx) error {
	member, err := h.portalService.MemberFor(c.Context(), middleware.GetEmail(c))
	if err != nil {
		return portalError(c, err)
	}

	data, err := h.dashboardService.GetMemberDashboard(c.Context(), member.ID)
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", data)
}

// RenewalContext returns the renewal page: fee, payment methods and bank details
// @Summary Renewal page
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /portal/renewal [get]
func (h *PortalHandler) RenewalContext(c *fiber.Ctx) error {
	page, err := h.portalService.RenewalContext(c.Context(), middleware.GetEmail(c))
	if err != nil {
		return portalError(c, err)
	}
	return response.Success(c, "", page)
}

// SubmitRenewal records a renewal request
// @Summary Submit renewal
// @Description Cash renewals are approved at once and issue a paid card
// @Tags Portal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RenewalInput true "Renewal"
// @Success 200 {object} response.RPCResult
// @Router /portal/submit_renewal [post]
func (h *PortalHandler) SubmitRenewal(c *fiber.Ctx) error {
	var input services.RenewalInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	renewal, err := h.portalService.SubmitRenewal(c.Context(), middleware.GetEmail(c), &input)
	if err != nil {
		return h.fail(c, titleSubmitRenewal, err)
	}
	return response.RPC(c, services.MsgRenewalSubmitted, renewal)
}
