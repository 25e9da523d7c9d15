package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu       sync.Mutex
	patients map[string]*Patient
	doctors  map[string]*Doctor
	reports  map[string]*MedicalReport
}

func newMemStore() *memStore {
	return &memStore{
		patients: make(map[string]*Patient),
		doctors:  make(map[string]*Doctor),
		reports:  make(map[string]*MedicalReport),
	}
}

func (m *memStore) CreatePatient(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memStore) FindPatient(_ context.Context, id string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.patients[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) ListPatients(_ context.Context) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Patient, 0, len(m.patients))
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) PatientExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.patients[id]
	return ok, nil
}

func (m *memStore) CreateDoctor(_ context.Context, d *Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *memStore) FindDoctor(_ context.Context, id string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.doctors[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) FindDoctorByEmail(_ context.Context, email string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.Email == email {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) DoctorExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.doctors[id]
	return ok, nil
}

func (m *memStore) CreateReport(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memStore) FindReport(_ context.Context, id string) (*MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) ReportsForPatient(_ context.Context, patientID string) ([]*MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*MedicalReport
	for _, r := range m.reports {
		if r.PatientID == patientID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func TestCreatePatientAssignsIdentityAndTimestamps(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(newMemStore(), WithClock(func() time.Time { return fixed }))

	p, err := svc.CreatePatient(context.Background(), Patient{FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !p.CreatedAt.Equal(fixed) || !p.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected timestamps: %+v", p)
	}

	exists, err := svc.PatientExists(context.Background(), p.ID)
	if err != nil || !exists {
		t.Fatalf("expected patient to exist, got %v %v", exists, err)
	}
}

func TestCreatePatientRequiresName(t *testing.T) {
	svc := NewService(newMemStore())

	if _, err := svc.CreatePatient(context.Background(), Patient{FirstName: "Ada"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateDoctorNormalizesEmail(t *testing.T) {
	svc := NewService(newMemStore())

	d, err := svc.CreateDoctor(context.Background(), Doctor{
		FirstName: "Gregory",
		LastName:  "House",
		Email:     "  House@Example.ORG ",
	})
	if err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}
	if d.Email != "house@example.org" {
		t.Fatalf("expected normalized email, got %q", d.Email)
	}

	found, err := svc.DoctorByEmail(context.Background(), "HOUSE@example.org")
	if err != nil {
		t.Fatalf("DoctorByEmail: %v", err)
	}
	if found.ID != d.ID {
		t.Fatalf("expected doctor %s, got %s", d.ID, found.ID)
	}
}

func TestCreateReportRequiresExistingPatient(t *testing.T) {
	svc := NewService(newMemStore())

	_, err := svc.CreateReport(context.Background(), MedicalReport{
		PatientID: "ghost",
		Title:     "Discharge summary",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReportsForPatient(t *testing.T) {
	svc := NewService(newMemStore())

	p, err := svc.CreatePatient(context.Background(), Patient{FirstName: "Ada", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	for _, title := range []string{"Admission note", "Lab results"} {
		if _, err := svc.CreateReport(context.Background(), MedicalReport{PatientID: p.ID, Title: title}); err != nil {
			t.Fatalf("CreateReport %q: %v", title, err)
		}
	}

	reports, err := svc.ReportsForPatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ReportsForPatient: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
}

func TestExistsChecksTreatBlankIDAsAbsent(t *testing.T) {
	svc := NewService(newMemStore())

	if ok, err := svc.PatientExists(context.Background(), "  "); err != nil || ok {
		t.Fatalf("expected blank patient id to be absent, got %v %v", ok, err)
	}
	if ok, err := svc.DoctorExists(context.Background(), ""); err != nil || ok {
		t.Fatalf("expected blank doctor id to be absent, got %v %v", ok, err)
	}
}
