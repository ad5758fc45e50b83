package handlers

import (
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/pagination"
	"unem-umt/internal/pkg/response"
	"unem-umt/internal/pkg/xlsx"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member and membership card endpoints
type MemberHandler struct {
	rpc
	memberService *services.MemberService
	cardService   *services.CardService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService, cardService *services.CardService, errorLog *services.ErrorLogService) *MemberHandler {
	return &MemberHandler{
		rpc:           rpc{errorLog: errorLog},
		memberService: memberService,
		cardService:   cardService,
	}
}

// MemberIDRequest carries a member ID
type MemberIDRequest struct {
	MemberID uint `json:"member_id"`
}

// MemberStatusRequest carries a member status change
type MemberStatusRequest struct {
	MemberID uint   `json:"member_id"`
	Status   string `json:"status"`
}

// CardIDRequest carries a card ID
type CardIDRequest struct {
	CardID uint `json:"card_id"`
}

// memberFilter reads the member list filters from the query string
func memberFilter(c *fiber.Ctx) (repositories.MemberFilter, error) {
	var f repositories.MemberFilter
	if err := c.QueryParser(&f); err != nil {
		return f, err
	}
	from, to, err := dateRange(c)
	if err != nil {
		return f, err
	}
	f.FromDate, f.ToDate = from, to
	return f, nil
}

// Page returns the member management page context
// @Summary Members page
// @Description One page of members with filters, provinces and academic years
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param province query string false "Province"
// @Param status query string false "Membership status"
// @Param academic_year query string false "Academic year"
// @Param search query string false "Name, card number or national ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/members [get]
func (h *MemberHandler) Page(c *fiber.Ctx) error {
	f, err := memberFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	page, err := h.memberService.PageContext(c.Context(), f, pagination.GetParams(c))
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", page)
}

// SaveMember creates or updates a member
// @Summary Save member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.MemberInput true "Member"
// @Success 200 {object} response.RPCResult
// @Router /admin/members/save_member [post]
func (h *MemberHandler) SaveMember(c *fiber.Ctx) error {
	var input services.MemberInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	member, err := h.memberService.Save(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveMember, err)
	}
	return response.RPC(c, services.MsgMemberSaved, fiber.Map{"member_id": member.ID, "card_number": member.CardNumber})
}

// GetMember returns a member with cards and activities
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param member_id query int true "Member ID"
// @Success 200 {object} response.RPCResult
// @Router /admin/members/get_member [get]
func (h *MemberHandler) GetMember(c *fiber.Ctx) error {
	details, err := h.memberService.Get(c.Context(), queryUint(c, "member_id"))
	if err != nil {
		return response.RPCFailure(c, err.Error())
	}
	return response.RPC(c, "", details)
}

// DeleteMember removes a member without linked records
// @Summary Delete member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MemberIDRequest true "Member"
// @Success 200 {object} response.RPCResult
// @Router /admin/members/delete_member [post]
func (h *MemberHandler) DeleteMember(c *fiber.Ctx) error {
	var req MemberIDRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.memberService.Delete(c.Context(), req.MemberID); err != nil {
		return h.fail(c, titleDeleteMember, err)
	}
	return response.RPC(c, services.MsgMemberDeleted, nil)
}

// UpdateMemberStatus sets a member's membership status
// @Summary Update member status
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MemberStatusRequest true "Status change"
// @Success 200 {object} response.RPCResult
// @Router /admin/members/update_member_status [post]
func (h *MemberHandler) UpdateMemberStatus(c *fiber.Ctx) error {
	var req MemberStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	member, err := h.memberService.UpdateStatus(c.Context(), req.MemberID, req.Status)
	if err != nil {
		return h.fail(c, titleSaveMember, err)
	}
	return response.RPC(c, services.MsgMemberSaved, member)
}

// ExportMembers downloads the filtered members as a spreadsheet
// @Summary Export members
// @Tags Members
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /admin/members/export_members [get]
func (h *MemberHandler) ExportMembers(c *fiber.Ctx) error {
	f, err := memberFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	data, err := h.memberService.Export(c.Context(), f)
	if err != nil {
		return h.fail(c, titleExport, err)
	}
	return sendFile(c, services.MembersExportFile, xlsx.ContentType, data)
}

// SaveCard creates or updates a membership card
// @Summary Save membership card
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CardInput true "Card"
// @Success 200 {object} response.RPCResult
// @Router /admin/members/save_membership_card [post]
func (h *MemberHandler) SaveCard(c *fiber.Ctx) error {
	var input services.CardInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	card, err := h.cardService.Save(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveCard, err)
	}
	return response.RPC(c, "تم حفظ البطاقة بنجاح", card)
}

// DeleteCard removes a card that is not active
// @Summary Delete membership card
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CardIDRequest true "Card"
// @Success 200 {object} response.RPCResult
// @Router /admin/members/delete_membership_card [post]
func (h *MemberHandler) DeleteCard(c *fiber.Ctx) error {
	var req CardIDRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.cardService.Delete(c.Context(), req.CardID); err != nil {
		return h.fail(c, titleSaveCard, err)
	}
	return response.RPC(c, "تم حذف البطاقة بنجاح", nil)
}
