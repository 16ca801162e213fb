package models

import "fmt"

// ApprovalState only ever moves forward: absent -> pending -> granted.
type ApprovalState int

const (
	ApprovalAbsent ApprovalState = iota
	ApprovalPending
	ApprovalGranted
)

func (s ApprovalState) String() string {
	switch s {
	case ApprovalAbsent:
		return "absent"
	case ApprovalPending:
		return "pending"
	case ApprovalGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Approval tracks the authorization of one operation attempt on one subject
// (an endpoint or a hunt). It lives only as long as a single wait loop.
type Approval struct {
	Subject   string
	Reason    string
	Approvers []string
	State     ApprovalState
	// Requests counts approval requests sent to the service.
	Requests int
	// Probes counts how many times the privileged operation was attempted.
	Probes int
}

func NewApproval(subject, reason string, approvers []string) *Approval {
	return &Approval{
		Subject:   subject,
		Reason:    reason,
		Approvers: approvers,
		State:     ApprovalAbsent,
	}
}

// Advance moves the approval to s. Moving backwards is a programming error.
func (a *Approval) Advance(s ApprovalState) error {
	if s < a.State {
		return fmt.Errorf("approval for %s cannot move from %s to %s", a.Subject, a.State, s)
	}
	a.State = s
	return nil
}
