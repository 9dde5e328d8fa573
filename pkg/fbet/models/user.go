package models

import "time"

// User represents a registered account
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Active       bool      `gorm:"default:true" json:"active"`

	// Relationships
	Memberships []GroupMembership `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	Tips        []Tip             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"tips,omitempty"`
}
