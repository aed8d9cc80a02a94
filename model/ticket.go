package model

import "time"

// TicketPriority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// TicketStatus constants
const (
	TicketOpen     = "open"
	TicketResolved = "resolved"
)

// Ticket is a support/admin-review record escalating a disputed contract
// action. The ticketing subsystem owns the record once created; this
// service only creates it and links it to the contract.
type Ticket struct {
	ID          string    `json:"id"`
	RemoteID    string    `json:"remote_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContractID  string    `json:"contract_id"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
