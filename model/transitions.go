package model

// transitionKey identifies one row of the lifecycle transition table.
type transitionKey struct {
	Status Status
	Role   Role
	Action Action
}

// transitions is the authoritative (status, role, action) -> next status
// table. Anything absent from this table is an invalid transition and must
// never be offered to a caller nor applied to a stored contract.
//
// Notes:
//   - client accept from freelancer_accepted lands on client_accepted; the
//     service immediately promotes it to active since both sides have now
//     accepted. client_accepted is not reachable any other way.
//   - client decline and client reject-submission both escalate to
//     under_admin_review and auto-create a support ticket.
//   - create-ticket on under_admin_review is informational and keeps the
//     status unchanged.
//   - admin resolve defaults to completed here; the resolution flow may
//     override the outcome to cancelled.
var transitions = map[transitionKey]Status{
	{StatusPending, RoleFreelancer, ActionAccept}:                StatusFreelancerAccepted,
	{StatusPending, RoleFreelancer, ActionDecline}:               StatusCancelled,
	{StatusPending, RoleClient, ActionDecline}:                   StatusUnderAdminReview,
	{StatusFreelancerAccepted, RoleClient, ActionAccept}:         StatusClientAccepted,
	{StatusFreelancerAccepted, RoleClient, ActionDecline}:        StatusUnderAdminReview,
	{StatusClientAccepted, RoleClient, ActionDecline}:            StatusUnderAdminReview,
	{StatusActive, RoleFreelancer, ActionSubmit}:                 StatusPendingReview,
	{StatusPendingReview, RoleClient, ActionAcceptSubmission}:    StatusCompleted,
	{StatusPendingReview, RoleClient, ActionRejectSubmission}:    StatusUnderAdminReview,
	{StatusUnderAdminReview, RoleClient, ActionCreateTicket}:     StatusUnderAdminReview,
	{StatusUnderAdminReview, RoleFreelancer, ActionCreateTicket}: StatusUnderAdminReview,
	{StatusUnderAdminReview, RoleAdmin, ActionResolve}:           StatusCompleted,
}

// actionOrder fixes the order actions are listed in, so the UI renders
// buttons deterministically.
var actionOrder = []Action{
	ActionAccept,
	ActionDecline,
	ActionSubmit,
	ActionAcceptSubmission,
	ActionRejectSubmission,
	ActionCreateTicket,
	ActionResolve,
}

// NextStatus resolves one transition. ok is false when the (status, role,
// action) triple is not in the table; callers must treat that as a rejected
// request and leave the contract untouched.
func NextStatus(s Status, r Role, a Action) (Status, bool) {
	next, ok := transitions[transitionKey{s, r, a}]
	return next, ok
}

// AvailableActions returns the actions the given role may invoke on a
// contract in the given status. Unknown pairs yield an empty set, never an
// error.
func AvailableActions(s Status, r Role) []Action {
	actions := []Action{}
	for _, a := range actionOrder {
		if _, ok := transitions[transitionKey{s, r, a}]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// CanAct reports whether the role has at least one action on the status.
func CanAct(s Status, r Role) bool {
	return len(AvailableActions(s, r)) > 0
}
