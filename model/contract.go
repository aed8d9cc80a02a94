package model

import (
	"time"
)

// Status is the lifecycle state of a contract.
type Status string

const (
	StatusPending            Status = "pending"
	StatusFreelancerAccepted Status = "freelancer_accepted"
	StatusClientAccepted     Status = "client_accepted"
	StatusActive             Status = "active"
	StatusPendingReview      Status = "pending_review"
	StatusCompleted          Status = "completed"
	StatusUnderAdminReview   Status = "under_admin_review"
	StatusCancelled          Status = "cancelled"
)

// Terminal reports whether no further transitions leave this status.
// under_admin_review is not terminal: admin resolution still moves it.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Role identifies which side of a contract a user acts for.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleClient || r == RoleFreelancer || r == RoleAdmin
}

// Action is a role-gated operation against a contract.
type Action string

const (
	ActionAccept           Action = "accept"
	ActionDecline          Action = "decline"
	ActionSubmit           Action = "submit"
	ActionAcceptSubmission Action = "accept-submission"
	ActionRejectSubmission Action = "reject-submission"
	ActionCreateTicket     Action = "create-ticket"
	ActionResolve          Action = "resolve"
)

// Party is a read-only identity reference owned by the account system.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Submission is the canonical delivered-work payload. FileURL is always a
// plain string after normalization, never a nested object. The json keys
// match what the web client has always consumed.
type Submission struct {
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
}

// StatusChange is one entry in a contract's transition history.
type StatusChange struct {
	From   Status    `json:"from"`
	To     Status    `json:"to"`
	Action Action    `json:"action"`
	Actor  Role      `json:"actor"`
	At     time.Time `json:"at"`
}

// Contract is the agreement record between a client and a freelancer.
//
// SubmissionRaw holds the submission payload exactly as it was stored,
// which for legacy records may be a bare URL string, a JSON-encoded string,
// or a nested asset descriptor. It is never mutated; readers normalize it
// on every render.
type Contract struct {
	ID             string         `json:"id"`
	Status         Status         `json:"status"`
	Amount         float64        `json:"amount"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Terms          string         `json:"terms"`
	Client         Party          `json:"client"`
	Freelancer     Party          `json:"freelancer"`
	SubmissionRaw  any            `json:"-"`
	ClientFeedback string         `json:"client_feedback,omitempty"`
	DeclineReason  string         `json:"decline_reason,omitempty"`
	TicketID       string         `json:"ticket_id,omitempty"`
	History        []StatusChange `json:"history,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PartyRole returns the role the given user plays on this contract, or ""
// if the user is not a party to it.
func (c *Contract) PartyRole(userID string) Role {
	switch userID {
	case c.Client.ID:
		return RoleClient
	case c.Freelancer.ID:
		return RoleFreelancer
	}
	return ""
}
