package model

import (
	"testing"
)

func TestNextStatusTable(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		role   Role
		action Action
		next   Status
		ok     bool
	}{
		{"freelancer accepts pending", StatusPending, RoleFreelancer, ActionAccept, StatusFreelancerAccepted, true},
		{"freelancer declines pending", StatusPending, RoleFreelancer, ActionDecline, StatusCancelled, true},
		{"client declines pending", StatusPending, RoleClient, ActionDecline, StatusUnderAdminReview, true},
		{"client accepts after freelancer", StatusFreelancerAccepted, RoleClient, ActionAccept, StatusClientAccepted, true},
		{"client declines after freelancer accept", StatusFreelancerAccepted, RoleClient, ActionDecline, StatusUnderAdminReview, true},
		{"client declines own acceptance", StatusClientAccepted, RoleClient, ActionDecline, StatusUnderAdminReview, true},
		{"freelancer submits work", StatusActive, RoleFreelancer, ActionSubmit, StatusPendingReview, true},
		{"client accepts submission", StatusPendingReview, RoleClient, ActionAcceptSubmission, StatusCompleted, true},
		{"client rejects submission", StatusPendingReview, RoleClient, ActionRejectSubmission, StatusUnderAdminReview, true},
		{"client files ticket under review", StatusUnderAdminReview, RoleClient, ActionCreateTicket, StatusUnderAdminReview, true},
		{"freelancer files ticket under review", StatusUnderAdminReview, RoleFreelancer, ActionCreateTicket, StatusUnderAdminReview, true},
		{"admin resolves review", StatusUnderAdminReview, RoleAdmin, ActionResolve, StatusCompleted, true},

		// Off-table triples must resolve to nothing.
		{"client accepts pending", StatusPending, RoleClient, ActionAccept, "", false},
		{"freelancer accepts twice", StatusFreelancerAccepted, RoleFreelancer, ActionAccept, "", false},
		{"client submits work", StatusActive, RoleClient, ActionSubmit, "", false},
		{"freelancer reviews own work", StatusPendingReview, RoleFreelancer, ActionAcceptSubmission, "", false},
		{"action on completed", StatusCompleted, RoleClient, ActionDecline, "", false},
		{"action on cancelled", StatusCancelled, RoleFreelancer, ActionAccept, "", false},
		{"admin meddles mid-flight", StatusActive, RoleAdmin, ActionResolve, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextStatus(tt.status, tt.role, tt.action)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && next != tt.next {
				t.Errorf("Expected next status %s, got %s", tt.next, next)
			}
		})
	}
}

// Every (status, role) pair with no row in the table must yield an empty
// action set, never an error or a phantom action.
func TestAvailableActionsOffTablePairsAreEmpty(t *testing.T) {
	allStatuses := []Status{
		StatusPending, StatusFreelancerAccepted, StatusClientAccepted,
		StatusActive, StatusPendingReview, StatusCompleted,
		StatusUnderAdminReview, StatusCancelled,
	}
	allRoles := []Role{RoleClient, RoleFreelancer, RoleAdmin}

	onTable := map[string]bool{
		"pending/freelancer":            true,
		"pending/client":                true,
		"freelancer_accepted/client":    true,
		"client_accepted/client":        true,
		"active/freelancer":             true,
		"pending_review/client":         true,
		"under_admin_review/client":     true,
		"under_admin_review/freelancer": true,
		"under_admin_review/admin":      true,
	}

	for _, s := range allStatuses {
		for _, r := range allRoles {
			key := string(s) + "/" + string(r)
			actions := AvailableActions(s, r)
			if onTable[key] {
				if len(actions) == 0 {
					t.Errorf("Expected actions for %s, got none", key)
				}
				continue
			}
			if len(actions) != 0 {
				t.Errorf("Expected no actions for %s, got %v", key, actions)
			}
		}
	}
}

func TestAvailableActionsUnknownRole(t *testing.T) {
	if actions := AvailableActions(StatusPending, "manager"); len(actions) != 0 {
		t.Errorf("Expected no actions for unknown role, got %v", actions)
	}
	if actions := AvailableActions("weird_status", RoleClient); len(actions) != 0 {
		t.Errorf("Expected no actions for unknown status, got %v", actions)
	}
}

func TestActiveContractActions(t *testing.T) {
	// The freelancer may submit; the client can only wait.
	freelancer := AvailableActions(StatusActive, RoleFreelancer)
	if len(freelancer) != 1 || freelancer[0] != ActionSubmit {
		t.Errorf("Expected [submit] for freelancer on active, got %v", freelancer)
	}
	if client := AvailableActions(StatusActive, RoleClient); len(client) != 0 {
		t.Errorf("Expected no client actions on active, got %v", client)
	}
}

func TestRejectedSubmissionKeepsFreelancerTicketChannel(t *testing.T) {
	next, ok := NextStatus(StatusPendingReview, RoleClient, ActionRejectSubmission)
	if !ok {
		t.Fatal("Expected reject-submission to be a valid client action")
	}

	if !CanAct(next, RoleFreelancer) {
		t.Fatalf("Expected freelancer to keep an action in %s", next)
	}
	actions := AvailableActions(next, RoleFreelancer)
	found := false
	for _, a := range actions {
		if a == ActionCreateTicket {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected create-ticket among freelancer actions in %s, got %v", next, actions)
	}
}

func TestCreateTicketKeepsStatus(t *testing.T) {
	for _, r := range []Role{RoleClient, RoleFreelancer} {
		next, ok := NextStatus(StatusUnderAdminReview, r, ActionCreateTicket)
		if !ok {
			t.Fatalf("Expected create-ticket to be valid for %s", r)
		}
		if next != StatusUnderAdminReview {
			t.Errorf("Expected create-ticket to keep status, got %s", next)
		}
	}
}
