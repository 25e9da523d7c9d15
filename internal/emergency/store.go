package emergency

import (
	"context"
	"time"
)

// Store describes access request persistence. Transition is a compare-and-set
// on status so that concurrent approve/deny calls on the same request id
// produce exactly one winner without external locking.
type Store interface {
	Create(ctx context.Context, r *AccessRequest) error
	Find(ctx context.Context, id string) (*AccessRequest, error)

	// Transition moves the request from `from` to `to`, recording the
	// approving doctor when present. It reports false when the row was not
	// in `from` anymore (or never existed); the caller decides between
	// ErrNotFound and ErrInvalidTransition by re-reading.
	Transition(ctx context.Context, id string, from, to Status, approvedByDoctorID *string, at time.Time) (bool, error)

	// ListActiveForPatient returns approved requests for the patient whose
	// expiry is strictly after the given instant.
	ListActiveForPatient(ctx context.Context, patientID string, now time.Time) ([]*AccessRequest, error)
}
