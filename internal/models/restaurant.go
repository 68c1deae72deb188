package models

import (
	"github.com/jinzhu/gorm"
)

// Restaurant represents a restaurant served by the AI waiter
type Restaurant struct {
	gorm.Model
	Name           string
	Personality    string // e.g. "warm and attentive", "playful"
	Tone           string // e.g. "casual", "formal"
	ResponseStyle  string // e.g. "concise", "chatty"
	Specialty      string // free-text knowledge the waiter can draw on
	WelcomeMessage string
	MenuItems      []MenuItem `gorm:"foreignkey:RestaurantID"`
}

// SessionStatus represents the possible states of a table session
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// TableSession represents an active dining session at a table
type TableSession struct {
	gorm.Model
	RestaurantID uint
	TableNumber  int
	Status       string
	RunningTotal float64
}

// IsActive reports whether the session is still open
func (s *TableSession) IsActive() bool {
	return s.Status == string(SessionStatusActive)
}
