package handlers

import (
	"log"

	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// msgDashboardUnavailable is returned when the dashboard queries fail
const msgDashboardUnavailable = "تعذر تحميل لوحة التحكم"

// DashboardHandler serves the staff dashboards
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetAdminDashboard returns the quick stats and the recent activity feed
// @Summary Admin dashboard
// @Description Members, active cards, monthly income and expenses against last month, and the latest activity
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		log.Printf("❌ Admin dashboard: %v", err)
		return response.InternalServerError(c, msgDashboardUnavailable)
	}
	return response.Success(c, "", data)
}

// GetMemberSummary returns one member's card and payment summary for staff
// @Summary Member summary
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param member_id query int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/dashboard/member [get]
func (h *DashboardHandler) GetMemberSummary(c *fiber.Ctx) error {
	id := queryUint(c, "member_id")
	if id == 0 {
		return response.BadRequest(c, services.ErrMemberNotFound.Error())
	}
	data, err := h.dashboardService.GetMemberDashboard(c.Context(), id)
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", data)
}
