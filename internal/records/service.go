// Package records holds the patient, doctor, and report collaborators the
// identity and emergency-access subsystems validate foreign keys against.
package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medvault.org/internal/ids"
)

// Service provides the record operations exposed over HTTP plus the
// existence checks consumed by the emergency access engine.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service backed by the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreatePatient registers a new patient record.
func (s *Service) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	p.ID = ids.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.CreatePatient(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPatient returns a patient by id.
func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	return s.store.FindPatient(ctx, id)
}

// ListPatients returns all patients.
func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.store.ListPatients(ctx)
}

// PatientExists reports whether a patient id resolves.
func (s *Service) PatientExists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	return s.store.PatientExists(ctx, id)
}

// CreateDoctor registers a new doctor record.
func (s *Service) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "" {
		return nil, fmt.Errorf("%w: doctor name is required", ErrInvalidInput)
	}
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	now := s.now().UTC()
	d.ID = ids.New()
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := s.store.CreateDoctor(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDoctor returns a doctor by id.
func (s *Service) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	return s.store.FindDoctor(ctx, id)
}

// DoctorByEmail returns the doctor registered under the given email.
func (s *Service) DoctorByEmail(ctx context.Context, email string) (*Doctor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return s.store.FindDoctorByEmail(ctx, email)
}

// DoctorExists reports whether a doctor id resolves.
func (s *Service) DoctorExists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	return s.store.DoctorExists(ctx, id)
}

// CreateReport attaches a medical report to an existing patient.
func (s *Service) CreateReport(ctx context.Context, r MedicalReport) (*MedicalReport, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, fmt.Errorf("%w: report title is required", ErrInvalidInput)
	}
	exists, err := s.store.PatientExists(ctx, r.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: patient %s", ErrNotFound, r.PatientID)
	}
	r.ID = ids.New()
	r.CreatedAt = s.now().UTC()
	if err := s.store.CreateReport(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReport returns a report by id.
func (s *Service) GetReport(ctx context.Context, id string) (*MedicalReport, error) {
	return s.store.FindReport(ctx, id)
}

// ReportsForPatient lists reports attached to a patient.
func (s *Service) ReportsForPatient(ctx context.Context, patientID string) ([]*MedicalReport, error) {
	return s.store.ReportsForPatient(ctx, patientID)
}
