package models

import "time"

// Role is the level granted to an invited collaborator. Ownership is not a
// role: it is Map.OwnerID.
type Role string

const (
	RoleEditor      Role = "editor"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEditor, RoleContributor, RoleViewer:
		return true
	}
	return false
}

// Permission grants one user a role on one map. At most one row exists per
// (map, user) pair.
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"size:32;uniqueIndex;not null" json:"id"`

	MapID uint `gorm:"not null;uniqueIndex:idx_permission_map_user" json:"-"`
	Map   Map  `gorm:"foreignKey:MapID" json:"-"`

	UserID uint `gorm:"not null;uniqueIndex:idx_permission_map_user;index" json:"-"`
	User   User `gorm:"foreignKey:UserID" json:"user"`

	GrantedByID uint `gorm:"not null" json:"-"`
	Role        Role `gorm:"size:20;not null" json:"role"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
