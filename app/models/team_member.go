package models

import "time"

const (
	TeamMemberStatusInvited = "invited"
	TeamMemberStatusActive  = "active"
	TeamMemberStatusRemoved = "removed"
)

// TeamMember links a user into an account owner's workspace with a role.
type TeamMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index:ux_team_members_owner_member,unique,priority:1" json:"owner_id"`
	UserID    uint      `gorm:"not null;index:ux_team_members_owner_member,unique,priority:2" json:"user_id"`
	Role      string    `gorm:"type:varchar(50);not null;default:'member'" json:"role" validate:"oneof=owner admin member"`
	Status    string    `gorm:"type:varchar(32);not null;default:'invited'" json:"status" validate:"oneof=invited active removed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RolePermissions is the static role -> capability map the dashboard consults
// when rendering team pages. Lookup only, no enforcement logic lives here.
type RolePermissions struct {
	ManageTeam    bool `json:"manage_team"`
	ManageBilling bool `json:"manage_billing"`
	EditOrders    bool `json:"edit_orders"`
	ViewReports   bool `json:"view_reports"`
}

var rolePermissionTable = map[string]RolePermissions{
	ROLE_OWNER:  {ManageTeam: true, ManageBilling: true, EditOrders: true, ViewReports: true},
	ROLE_ADMIN:  {ManageTeam: true, ManageBilling: false, EditOrders: true, ViewReports: true},
	ROLE_MEMBER: {ManageTeam: false, ManageBilling: false, EditOrders: true, ViewReports: false},
}

// PermissionsForRole returns the capability flags for a role, defaulting to
// the member permissions for unknown roles.
func PermissionsForRole(role string) RolePermissions {
	if p, ok := rolePermissionTable[role]; ok {
		return p
	}
	return rolePermissionTable[ROLE_MEMBER]
}
