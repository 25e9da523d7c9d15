// Package emergency implements the break-the-glass workflow: a non-clinician
// requester asks for temporary access to a patient record, a credentialed
// clinician approves or denies exactly once, and approved access lapses by
// expiry rather than by a background job.
package emergency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medvault.org/internal/audit"
	"medvault.org/internal/ids"
	"medvault.org/internal/obs"
)

// DefaultGrantWindow bounds an approved grant when the requester does not
// supply an expiry. Four hours favors speed over precision during a genuine
// emergency.
const DefaultGrantWindow = 4 * time.Hour

// PatientDirectory resolves patient foreign keys.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id string) (bool, error)
}

// DoctorDirectory resolves doctor foreign keys.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id string) (bool, error)
}

// Engine drives the access request state machine.
type Engine struct {
	store    Store
	patients PatientDirectory
	doctors  DoctorDirectory
	sink     audit.Recorder
	now      func() time.Time
}

// EngineOption configures Engine behavior.
type EngineOption func(*Engine)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(store Store, patients PatientDirectory, doctors DoctorDirectory, sink audit.Recorder, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		patients: patients,
		doctors:  doctors,
		sink:     sink,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request files a new PENDING access request against an existing patient.
// The caller cannot pick the initial status, and a missing expiry defaults
// to now plus the grant window.
func (e *Engine) Request(ctx context.Context, patientID string, in RequestInput) (*AccessRequest, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.RequesterName) == "" {
		return nil, fmt.Errorf("%w: requester name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	exists, err := e.patients.PatientExists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: patient %s", ErrNotFound, patientID)
	}

	now := e.now().UTC()
	expiresAt := now.Add(DefaultGrantWindow)
	if in.ExpiresAt != nil && !in.ExpiresAt.IsZero() {
		expiresAt = in.ExpiresAt.UTC()
	}

	req := &AccessRequest{
		ID:            ids.New(),
		PatientID:     patientID,
		RequesterName: strings.TrimSpace(in.RequesterName),
		Reason:        strings.TrimSpace(in.Reason),
		Notes:         strings.TrimSpace(in.Notes),
		ExpiresAt:     expiresAt,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.Create(ctx, req); err != nil {
		return nil, err
	}

	obs.EmergencyRequests.Inc()
	e.record(ctx, audit.EventEmergencyRequested, map[string]any{
		"request_id":     req.ID,
		"patient_id":     req.PatientID,
		"requester_name": req.RequesterName,
	})
	return req, nil
}

// Approve moves a PENDING request to APPROVED, stamping the approving
// doctor. The doctor is resolved before any mutation so a failed approval
// leaves the request PENDING. The status flip is a compare-and-set: in a
// concurrent approve/deny race exactly one caller wins and the other gets
// ErrInvalidTransition.
func (e *Engine) Approve(ctx context.Context, requestID, doctorID string) (*AccessRequest, error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return nil, fmt.Errorf("%w: doctor id is required", ErrInvalidInput)
	}

	req, err := e.store.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(StatusApproved) {
		return nil, fmt.Errorf("%w: %s request cannot be approved", ErrInvalidTransition, req.Status)
	}

	exists, err := e.doctors.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, doctorID)
	}

	updated, err := e.transition(ctx, requestID, StatusApproved, &doctorID)
	if err != nil {
		return nil, err
	}

	obs.EmergencyDecisions.WithLabelValues("approved").Inc()
	e.record(ctx, audit.EventEmergencyApproved, map[string]any{
		"request_id": updated.ID,
		"doctor_id":  doctorID,
	})
	return updated, nil
}

// Deny moves a PENDING request to DENIED under the same compare-and-set
// discipline as Approve.
func (e *Engine) Deny(ctx context.Context, requestID string) (*AccessRequest, error) {
	req, err := e.store.Find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(StatusDenied) {
		return nil, fmt.Errorf("%w: %s request cannot be denied", ErrInvalidTransition, req.Status)
	}

	updated, err := e.transition(ctx, requestID, StatusDenied, nil)
	if err != nil {
		return nil, err
	}

	obs.EmergencyDecisions.WithLabelValues("denied").Inc()
	e.record(ctx, audit.EventEmergencyDenied, map[string]any{
		"request_id": updated.ID,
	})
	return updated, nil
}

// Get returns a request by id.
func (e *Engine) Get(ctx context.Context, requestID string) (*AccessRequest, error) {
	return e.store.Find(ctx, requestID)
}

// ActiveForPatient returns every request currently granting access to the
// patient: approved, with expiry strictly after the moment of the call.
func (e *Engine) ActiveForPatient(ctx context.Context, patientID string) ([]*AccessRequest, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient id is required", ErrInvalidInput)
	}
	return e.store.ListActiveForPatient(ctx, patientID, e.now().UTC())
}

func (e *Engine) transition(ctx context.Context, requestID string, to Status, approvedBy *string) (*AccessRequest, error) {
	won, err := e.store.Transition(ctx, requestID, StatusPending, to, approvedBy, e.now().UTC())
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost a race or the row vanished; re-read to report precisely.
		current, err := e.store.Find(ctx, requestID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidTransition, current.Status)
	}
	return e.store.Find(ctx, requestID)
}

// record is fire-and-forget: audit failures are logged, never propagated.
func (e *Engine) record(ctx context.Context, event string, fields map[string]any) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Record(ctx, event, fields); err != nil {
		logger := obs.Logger()
		logger.Warn().Err(err).Str("event", event).Msg("audit write failed")
	}
}
