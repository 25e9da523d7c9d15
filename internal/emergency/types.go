package emergency

import "time"

// Status is the closed set of access request states. PENDING is the only
// non-terminal state: APPROVED and DENIED admit no further transition.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDenied   Status = "DENIED"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// CanTransitionTo reports whether s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusApproved || next == StatusDenied
}

// AccessRequest is one break-the-glass request against a patient record.
// RequesterName is free text: the requester is typically not a system user.
type AccessRequest struct {
	ID                 string
	PatientID          string
	RequesterName      string
	Reason             string
	Notes              string
	ApprovedByDoctorID *string
	ExpiresAt          time.Time
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Active reports whether the request grants live access at the given time.
// Only an approved request whose expiry is strictly in the future grants
// access; expiry is evaluated at read time, never stored as a state.
func (r *AccessRequest) Active(now time.Time) bool {
	return r.Status == StatusApproved && now.Before(r.ExpiresAt)
}

// RequestInput carries the caller-supplied fields of a new access request.
// Status is deliberately absent: new requests always start PENDING.
type RequestInput struct {
	RequesterName string
	Reason        string
	Notes         string
	ExpiresAt     *time.Time
}
