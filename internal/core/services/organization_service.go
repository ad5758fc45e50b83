package services

import (
	"context"
	"errors"
	"strings"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
)

// Organization errors
var (
	ErrProvinceHasOffices = errors.New("لا يمكن حذف الإقليم لوجود مكاتب مرتبطة به")
	ErrProvinceHasMembers = errors.New("لا يمكن حذف الإقليم لوجود أعضاء مرتبطين به")
	ErrRoleHasUsers       = errors.New("لا يمكن حذف الدور لوجود مستخدمين مرتبطين به")
	ErrInvalidUnitType    = errors.New("نوع الهيكل غير صالح")
	ErrInvalidParent      = errors.New("الهيكل الأصل غير صالح")
)

// Organization messages
const (
	MsgStructureSaved   = "تم حفظ الهيكل بنجاح"
	MsgRoleSaved        = "تم حفظ الدور بنجاح"
	MsgProvinceSaved    = "تم حفظ الإقليم بنجاح"
	MsgProvinceDeleted  = "تم حذف الإقليم بنجاح"
	MsgRoleDeleted      = "تم حذف الدور بنجاح"
	MsgMandateSaved     = "تم حفظ الولاية بنجاح"
	MsgAcademicYearSave = "تم حفظ السنة الدراسية بنجاح"
)

var unitIcons = map[string]string{
	domain.UnitProvince:   "fa fa-building",
	domain.UnitOffice:     "fa fa-briefcase",
	domain.UnitDepartment: "fa fa-folder",
	domain.UnitPosition:   "fa fa-user",
}

// OrganizationService builds the structure page and manages units, provinces and roles
type OrganizationService struct {
	store *repositories.Store
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(store *repositories.Store) *OrganizationService {
	return &OrganizationService{store: store}
}

// TreeNode is one node of the organization tree
type TreeNode struct {
	ID       uint            `json:"id"`
	Text     string          `json:"text"`
	Icon     string          `json:"icon"`
	State    map[string]bool `json:"state"`
	Children []*TreeNode     `json:"children"`
}

// ProvinceSummary is a province with its office and member counts
type ProvinceSummary struct {
	models.Province
	OfficeCount int64 `json:"office_count"`
	MemberCount int64 `json:"member_count"`
}

// RoleSummary is a role with the number of users holding it
type RoleSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int64  `json:"member_count"`
}

// StructurePage is the structure management page context
type StructurePage struct {
	OrganizationTree []*TreeNode         `json:"organization_tree"`
	Provinces        []ProvinceSummary   `json:"provinces"`
	Roles            []RoleSummary       `json:"roles"`
	Permissions      []models.Permission `json:"permissions"`
	ProvinceCount    int64               `json:"province_count"`
	OfficeCount      int64               `json:"office_count"`
	PositionCount    int64               `json:"position_count"`
	VacantCount      int64               `json:"vacant_count"`
}

// PageContext builds the structure page context
func (s *OrganizationService) PageContext(ctx context.Context) (*StructurePage, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	provinces, err := s.Provinces(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.Roles(ctx)
	if err != nil {
		return nil, err
	}
	permissions, err := s.store.Roles.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}

	page := &StructurePage{
		OrganizationTree: tree,
		Provinces:        provinces,
		Roles:            roles,
		Permissions:      permissions,
	}
	if page.ProvinceCount, err = s.store.Provinces.Count(ctx); err != nil {
		return nil, err
	}
	if page.OfficeCount, err = s.store.Units.CountByType(ctx, domain.UnitOffice, ""); err != nil {
		return nil, err
	}
	if page.PositionCount, err = s.store.Units.CountByType(ctx, domain.UnitPosition, ""); err != nil {
		return nil, err
	}
	if page.VacantCount, err = s.store.Units.CountByType(ctx, domain.UnitPosition, domain.UnitVacant); err != nil {
		return nil, err
	}
	return page, nil
}

// Tree builds the organization tree in creation order. Units whose parent
// has not been seen yet are dropped, as are orphans.
func (s *OrganizationService) Tree(ctx context.Context) ([]*TreeNode, error) {
	units, err := s.store.Units.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	tree := make([]*TreeNode, 0)
	nodes := make(map[uint]*TreeNode, len(units))
	for _, u := range units {
		icon, ok := unitIcons[u.Type]
		if !ok {
			icon = "fa fa-circle"
		}
		node := &TreeNode{
			ID:       u.ID,
			Text:     u.Title,
			Icon:     icon,
			State:    map[string]bool{"opened": true},
			Children: []*TreeNode{},
		}
		nodes[u.ID] = node

		if u.ParentID == nil {
			tree = append(tree, node)
			continue
		}
		if parent, ok := nodes[*u.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return tree, nil
}

// Provinces lists provinces with office and member counts
func (s *OrganizationService) Provinces(ctx context.Context) ([]ProvinceSummary, error) {
	provinces, err := s.store.Provinces.List(ctx)
	if err != nil {
		return nil, err
	}
	offices, err := s.store.Units.CountOfficesByProvince(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.store.Members.CountByProvince(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProvinceSummary, len(provinces))
	for i, p := range provinces {
		out[i] = ProvinceSummary{
			Province:    p,
			OfficeCount: offices[p.Name],
			MemberCount: members[p.Name],
		}
	}
	return out, nil
}

// Roles lists enabled roles with their user counts
func (s *OrganizationService) Roles(ctx context.Context) ([]RoleSummary, error) {
	roles, err := s.store.Roles.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleSummary, len(roles))
	for i, r := range roles {
		count, err := s.store.Users.CountByRole(ctx, r.Name)
		if err != nil {
			return nil, err
		}
		out[i] = RoleSummary{Name: r.Name, Description: r.Description, MemberCount: count}
	}
	return out, nil
}

// ============================================================
// Organization units
// ============================================================

// UnitInput carries the client fields of save_structure
type UnitInput struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	ParentID *uint  `json:"parent_id"`
	Type     string `json:"type"`
	Province string `json:"province"`
	Status   string `json:"status"`
}

// ParentOption is a unit that may hold children
type ParentOption struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// Parents lists the units that can be parents
func (s *OrganizationService) Parents(ctx context.Context) ([]ParentOption, error) {
	units, err := s.store.Units.ListByTypes(ctx, domain.UnitProvince, domain.UnitOffice, domain.UnitDepartment)
	if err != nil {
		return nil, err
	}
	out := make([]ParentOption, len(units))
	for i, u := range units {
		out[i] = ParentOption{ID: u.ID, Title: u.Title}
	}
	return out, nil
}

// SaveUnit creates or updates an organization unit
func (s *OrganizationService) SaveUnit(ctx context.Context, input *UnitInput) (*models.OrganizationUnit, error) {
	if _, ok := unitIcons[input.Type]; !ok {
		return nil, ErrInvalidUnitType
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.Validation("عنوان الهيكل مطلوب")
	}

	unit := &models.OrganizationUnit{Status: domain.UnitFilled}
	if input.ID != 0 {
		existing, err := s.store.Units.GetByID(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		unit = existing
	}

	if input.ParentID != nil && *input.ParentID != 0 {
		if unit.ID != 0 && *input.ParentID == unit.ID {
			return nil, ErrInvalidParent
		}
		parent, err := s.store.Units.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrInvalidParent
			}
			return nil, err
		}
		if parent.Type == domain.UnitPosition {
			return nil, ErrInvalidParent
		}
		unit.ParentID = &parent.ID
	} else {
		unit.ParentID = nil
	}

	unit.Title = strings.TrimSpace(input.Title)
	unit.Type = input.Type
	unit.Province = input.Province
	switch input.Status {
	case domain.UnitFilled, domain.UnitVacant:
		unit.Status = input.Status
	}

	if err := s.store.Units.Save(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// ============================================================
// Provinces
// ============================================================

// ProvinceInput carries the client fields of a province
type ProvinceInput struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Region   string `json:"region"`
	HeadName string `json:"head_name"`
	Status   string `json:"status"`
}

// GetProvince returns a province by name
func (s *OrganizationService) GetProvince(ctx context.Context, name string) (*models.Province, error) {
	return s.store.Provinces.GetByName(ctx, name)
}

// SaveProvince creates or updates a province
func (s *OrganizationService) SaveProvince(ctx context.Context, input *ProvinceInput) (*models.Province, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.Validation("اسم الإقليم مطلوب")
	}
	code := strings.TrimSpace(input.Code)
	if len(code) != 2 {
		return nil, domain.Validation("رمز الإقليم يجب أن يتكون من رقمين")
	}

	province := &models.Province{Status: "Active"}
	if input.ID != 0 {
		existing, err := s.store.Provinces.GetByID(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		province = existing
	} else if existing, err := s.store.Provinces.GetByName(ctx, name); err == nil {
		province = existing
	}

	province.Name = name
	province.Code = code
	province.Region = input.Region
	province.HeadName = input.HeadName
	if input.Status != "" {
		province.Status = input.Status
	}

	if err := s.store.Provinces.Save(ctx, province); err != nil {
		return nil, err
	}
	return province, nil
}

// DeleteProvince removes a province with no offices or members
func (s *OrganizationService) DeleteProvince(ctx context.Context, name string) error {
	if _, err := s.store.Provinces.GetByName(ctx, name); err != nil {
		return err
	}
	offices, err := s.store.Units.CountOfficesByProvince(ctx)
	if err != nil {
		return err
	}
	if offices[name] > 0 {
		return ErrProvinceHasOffices
	}
	members, err := s.store.Members.CountInProvince(ctx, name, 0)
	if err != nil {
		return err
	}
	if members > 0 {
		return ErrProvinceHasMembers
	}
	return s.store.Provinces.DeleteByName(ctx, name)
}

// ============================================================
// Roles
// ============================================================

// RoleInput carries the client fields of save_role
type RoleInput struct {
	RoleName    string   `json:"role_name"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DeskAccess  *bool    `json:"desk_access"`
	Permissions []string `json:"permissions"`
}

// RoleDetails is a role with its permission names
type RoleDetails struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// GetRole returns a role with its permissions
func (s *OrganizationService) GetRole(ctx context.Context, name string) (*RoleDetails, error) {
	role, err := s.store.Roles.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	perms := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		perms[i] = p.Permission
	}
	return &RoleDetails{Name: role.Name, Description: role.Description, Permissions: perms}, nil
}

// SaveRole creates or updates a role, replacing its permission set.
// RoleName selects an existing role; otherwise Name creates one.
func (s *OrganizationService) SaveRole(ctx context.Context, input *RoleInput) (*models.Role, error) {
	var role *models.Role

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if input.RoleName != "" {
			existing, err := tx.Roles.GetByName(ctx, input.RoleName)
			if err != nil {
				return err
			}
			role = existing
		} else {
			name := strings.TrimSpace(input.Name)
			if name == "" {
				return domain.Validation("اسم الدور مطلوب")
			}
			role = &models.Role{Name: name, DeskAccess: true}
		}

		role.Description = input.Description
		if input.DeskAccess != nil {
			role.DeskAccess = *input.DeskAccess
		}
		return tx.Roles.SaveWithPermissions(ctx, role, input.Permissions)
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole removes a role that no user holds
func (s *OrganizationService) DeleteRole(ctx context.Context, name string) error {
	count, err := s.store.Users.CountByRole(ctx, name)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleHasUsers
	}
	return s.store.Roles.DeleteByName(ctx, name)
}
