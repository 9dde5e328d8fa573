package models

import "time"

// Tip records a user's pick for an event. SelectedOption keeps the exact
// string the user submitted. The unique index enforces at most one tip
// per (user, event) pair.
type Tip struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	EventID        uint      `gorm:"not null;uniqueIndex:idx_user_event" json:"event_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_user_event" json:"user_id"`
	SelectedOption string    `gorm:"not null" json:"selected_option"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Event Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}
