package handlers

import (
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StructureHandler handles the organization, mandate and academic year endpoints
type StructureHandler struct {
	rpc
	organizationService *services.OrganizationService
	structureService    *services.StructureService
	academicYearService *services.AcademicYearService
}

// NewStructureHandler creates a new structure handler
func NewStructureHandler(
	organizationService *services.OrganizationService,
	structureService *services.StructureService,
	academicYearService *services.AcademicYearService,
	errorLog *services.ErrorLogService,
) *StructureHandler {
	return &StructureHandler{
		rpc:                 rpc{errorLog: errorLog},
		organizationService: organizationService,
		structureService:    structureService,
		academicYearService: academicYearService,
	}
}

// NameRequest carries a record name
type NameRequest struct {
	Name string `json:"name"`
}

// IDRequest carries a record id
type IDRequest struct {
	ID uint `json:"id"`
}

// ============================================================
// Organization tree
// ============================================================

// Page returns the structure page context
// @Summary Structure page
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/structure [get]
func (h *StructureHandler) Page(c *fiber.Ctx) error {
	page, err := h.organizationService.PageContext(c.Context())
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", page)
}

// SaveStructure creates or updates an organization unit
// @Summary Save organization unit
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UnitInput true "Unit"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/save_structure [post]
func (h *StructureHandler) SaveStructure(c *fiber.Ctx) error {
	var input services.UnitInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	unit, err := h.organizationService.SaveUnit(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveStructure, err)
	}
	return response.RPC(c, services.MsgStructureSaved, unit)
}

// GetParentStructures lists the units that may hold children
// @Summary List parent units
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/structure/get_parent_structures [get]
func (h *StructureHandler) GetParentStructures(c *fiber.Ctx) error {
	parents, err := h.organizationService.Parents(c.Context())
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", parents)
}

// ============================================================
// Roles
// ============================================================

// GetRole returns a role with its permissions
// @Summary Get role
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Param name query string true "Role name"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/structure/get_role [get]
func (h *StructureHandler) GetRole(c *fiber.Ctx) error {
	role, err := h.organizationService.GetRole(c.Context(), c.Query("name"))
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", role)
}

// SaveRole creates or updates a role and its permissions
// @Summary Save role
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RoleInput true "Role"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/save_role [post]
func (h *StructureHandler) SaveRole(c *fiber.Ctx) error {
	var input services.RoleInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	role, err := h.organizationService.SaveRole(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveRole, err)
	}
	return response.RPC(c, services.MsgRoleSaved, role)
}

// DeleteRole removes a role nobody holds
// @Summary Delete role
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest true "Role"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/delete_role [post]
func (h *StructureHandler) DeleteRole(c *fiber.Ctx) error {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.organizationService.DeleteRole(c.Context(), req.Name); err != nil {
		return h.fail(c, titleDeleteRole, err)
	}
	return response.RPC(c, services.MsgRoleDeleted, nil)
}

// ============================================================
// Provinces
// ============================================================

// GetProvince returns a province by name
// @Summary Get province
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Param name query string true "Province name"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/structure/get_province [get]
func (h *StructureHandler) GetProvince(c *fiber.Ctx) error {
	province, err := h.organizationService.GetProvince(c.Context(), c.Query("name"))
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", province)
}

// SaveProvince creates or updates a province
// @Summary Save province
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ProvinceInput true "Province"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/save_province [post]
func (h *StructureHandler) SaveProvince(c *fiber.Ctx) error {
	var input services.ProvinceInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	province, err := h.organizationService.SaveProvince(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveProvince, err)
	}
	return response.RPC(c, services.MsgProvinceSaved, province)
}

// DeleteProvince removes a province without offices or members
// @Summary Delete province
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NameRequest true "Province"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/delete_province [post]
func (h *StructureHandler) DeleteProvince(c *fiber.Ctx) error {
	var req NameRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.organizationService.DeleteProvince(c.Context(), req.Name); err != nil {
		return h.fail(c, titleDeleteProvince, err)
	}
	return response.RPC(c, services.MsgProvinceDeleted, nil)
}

// ============================================================
// UNEM and mutual mandates
// ============================================================

// ListUNEM returns UNEM mandates
// @Summary List UNEM mandates
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active mandates"
// @Success 200 {object} response.Response
// @Router /admin/structure/unem [get]
func (h *StructureHandler) ListUNEM(c *fiber.Ctx) error {
	rows, err := h.structureService.ListUNEM(c.Context(), c.QueryBool("active"))
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", rows)
}

// SaveUNEMStructure creates or updates a UNEM mandate
// @Summary Save UNEM mandate
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.MandateInput true "Mandate"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/save_unem_structure [post]
func (h *StructureHandler) SaveUNEMStructure(c *fiber.Ctx) error {
	var input services.MandateInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	record, err := h.structureService.SaveUNEM(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveMandate, err)
	}
	return response.RPC(c, services.MsgMandateSaved, record)
}

// ListMutual returns mutual mandates
// @Summary List mutual mandates
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active mandates"
// @Success 200 {object} response.Response
// @Router /admin/structure/mutual [get]
func (h *StructureHandler) ListMutual(c *fiber.Ctx) error {
	rows, err := h.structureService.ListMutual(c.Context(), c.QueryBool("active"))
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", rows)
}

// SaveMutualStructure creates or updates a mutual mandate
// @Summary Save mutual mandate
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.MandateInput true "Mandate"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/save_mutual_structure [post]
func (h *StructureHandler) SaveMutualStructure(c *fiber.Ctx) error {
	var input services.MandateInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	record, err := h.structureService.SaveMutual(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveMandate, err)
	}
	return response.RPC(c, services.MsgMandateSaved, record)
}

// ============================================================
// Academic years
// ============================================================

// ListAcademicYears returns every academic year
// @Summary List academic years
// @Tags Structure
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/structure/academic_years [get]
func (h *StructureHandler) ListAcademicYears(c *fiber.Ctx) error {
	years, err := h.academicYearService.List(c.Context())
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", years)
}

// SaveAcademicYear creates or updates an academic year
// @Summary Save academic year
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.AcademicYearInput true "Academic year"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/save_academic_year [post]
func (h *StructureHandler) SaveAcademicYear(c *fiber.Ctx) error {
	var input services.AcademicYearInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	year, err := h.academicYearService.Save(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveAcademicYear, err)
	}
	return response.RPC(c, services.MsgAcademicYearSave, year)
}

// CreateNextAcademicYear creates the year following an existing one
// @Summary Create next academic year
// @Tags Structure
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IDRequest true "Source year"
// @Success 200 {object} response.RPCResult
// @Router /admin/structure/create_next_academic_year [post]
func (h *StructureHandler) CreateNextAcademicYear(c *fiber.Ctx) error {
	var req IDRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	year, err := h.academicYearService.CreateNext(c.Context(), req.ID)
	if err != nil {
		return h.fail(c, titleSaveAcademicYear, err)
	}
	return response.RPC(c, services.MsgAcademicYearSave, year)
}
