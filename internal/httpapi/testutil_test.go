package httpapi

import (
	"context"
	"sync"
	"testing"
	"time"

	"medvault.org/internal/auth"
	"medvault.org/internal/emergency"
	"medvault.org/internal/records"
	"medvault.org/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// --- in-memory stores ---

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*auth.User)}
}

func (m *memUserStore) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserStore) Find(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUserStore) UpdateStatus(_ context.Context, id string, status auth.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.Status = status
	return nil
}

type memRecordsStore struct {
	mu       sync.Mutex
	patients map[string]*records.Patient
	doctors  map[string]*records.Doctor
	reports  map[string]*records.MedicalReport
}

func newMemRecordsStore() *memRecordsStore {
	return &memRecordsStore{
		patients: make(map[string]*records.Patient),
		doctors:  make(map[string]*records.Doctor),
		reports:  make(map[string]*records.MedicalReport),
	}
}

func (m *memRecordsStore) CreatePatient(_ context.Context, p *records.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memRecordsStore) FindPatient(_ context.Context, id string) (*records.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.patients[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, records.ErrNotFound
}

func (m *memRecordsStore) ListPatients(_ context.Context) ([]*records.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*records.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRecordsStore) PatientExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.patients[id]
	return ok, nil
}

func (m *memRecordsStore) CreateDoctor(_ context.Context, d *records.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *memRecordsStore) FindDoctor(_ context.Context, id string) (*records.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.doctors[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, records.ErrNotFound
}

func (m *memRecordsStore) FindDoctorByEmail(_ context.Context, email string) (*records.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.Email == email {
			cp := *d
			return &cp, nil
		}
	}
	return nil, records.ErrNotFound
}

func (m *memRecordsStore) DoctorExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.doctors[id]
	return ok, nil
}

func (m *memRecordsStore) CreateReport(_ context.Context, r *records.MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *memRecordsStore) FindReport(_ context.Context, id string) (*records.MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, records.ErrNotFound
}

func (m *memRecordsStore) ReportsForPatient(_ context.Context, patientID string) ([]*records.MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*records.MedicalReport
	for _, r := range m.reports {
		if r.PatientID == patientID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAccessStore struct {
	mu   sync.Mutex
	reqs map[string]*emergency.AccessRequest
}

func newMemAccessStore() *memAccessStore {
	return &memAccessStore{reqs: make(map[string]*emergency.AccessRequest)}
}

func (m *memAccessStore) Create(_ context.Context, r *emergency.AccessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reqs[r.ID] = &cp
	return nil
}

func (m *memAccessStore) Find(_ context.Context, id string) (*emergency.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reqs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, emergency.ErrNotFound
}

func (m *memAccessStore) Transition(_ context.Context, id string, from, to emergency.Status, approvedByDoctorID *string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reqs[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	if approvedByDoctorID != nil {
		id := *approvedByDoctorID
		r.ApprovedByDoctorID = &id
	}
	r.UpdatedAt = at
	return true, nil
}

func (m *memAccessStore) ListActiveForPatient(_ context.Context, patientID string, now time.Time) ([]*emergency.AccessRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*emergency.AccessRequest
	for _, r := range m.reqs {
		if r.PatientID == patientID && r.Active(now) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// recordingSink captures audit events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Record(_ context.Context, event string, _ map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) has(event string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e == event {
			return true
		}
	}
	return false
}

// testEnv bundles the API with the fakes behind it.
type testEnv struct {
	api     *API
	codec   *token.Codec
	records *records.Service
	sink    *recordingSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := token.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	sink := &recordingSink{}
	recSvc := records.NewService(newMemRecordsStore())
	authSvc := auth.NewService(newMemUserStore())
	engine := emergency.NewEngine(newMemAccessStore(), recSvc, recSvc, sink)

	api := New(Config{
		Auth:     authSvc,
		Codec:    codec,
		Engine:   engine,
		Records:  recSvc,
		AI:       nil,
		Sink:     sink,
		Version:  "test",
		TokenTTL: time.Hour,
	})
	return &testEnv{api: api, codec: codec, records: recSvc, sink: sink}
}

func (e *testEnv) bearer(t *testing.T, role auth.Role) string {
	t.Helper()
	tok, _, err := e.codec.Issue("user-"+string(role), "caller@example.org", string(role), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + tok
}
