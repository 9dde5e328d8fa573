package models

import "time"

// Event represents a prediction event within a group. Options are stored
// verbatim; normalization happens only when comparing against tips.
// WinningOption stays nil until the group admin sets a result.
type Event struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	GroupID       uint       `gorm:"not null;index" json:"group_id"`
	CreatedBy     uint       `gorm:"not null" json:"created_by"`
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `json:"description"`
	Question      string     `gorm:"not null" json:"question"`
	Options       []string   `gorm:"serializer:json;not null" json:"options"`
	WinningOption *string    `json:"winning_option"`
	EventDatetime *time.Time `json:"event_datetime"`

	// Relationships
	Tips []Tip `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"tips,omitempty"`
}

// Finished reports whether a result has been recorded for the event.
func (e *Event) Finished() bool {
	return e.WinningOption != nil
}
