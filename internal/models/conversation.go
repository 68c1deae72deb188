package models

import "time"

// ChatRole identifies the author of a conversation message
type ChatRole string

const (
	RoleCustomer ChatRole = "customer"
	RoleWaiter   ChatRole = "waiter"
	RoleSystem   ChatRole = "system"
)

// ChatMessage represents a single turn in the conversation history.
// History is carried by the caller per turn; the engine never stores it.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
