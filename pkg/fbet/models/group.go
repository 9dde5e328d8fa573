package models

import "time"

// Group represents a betting group. The creator is the group's admin:
// there is no stored role, admin is always derived from CreatedBy.
type Group struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedBy   uint      `gorm:"not null;index" json:"created_by"`
	InviteToken string    `gorm:"uniqueIndex;not null" json:"invite_token"`

	// Relationships
	Memberships []GroupMembership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
}
