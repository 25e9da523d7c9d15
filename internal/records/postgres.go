package records

import (
	"context"
	"database/sql"
	"errors"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Patients ------------------------------------------------------------------

func (s *PGStore) CreatePatient(ctx context.Context, p *Patient) error {
	_, err := s.db.ExecContext(ctx,
		`insert into patients(id, first_name, last_name, date_of_birth, mrn, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.MRN, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *PGStore) FindPatient(ctx context.Context, id string) (*Patient, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, first_name, last_name, date_of_birth, mrn, created_at, updated_at
		 from patients where id=$1`, id)
	var p Patient
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.MRN, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) ListPatients(ctx context.Context) ([]*Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, first_name, last_name, date_of_birth, mrn, created_at, updated_at
		 from patients order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.MRN, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &p)
	}
	return res, rows.Err()
}

func (s *PGStore) PatientExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `select exists(select 1 from patients where id=$1)`, id)
}

// Doctors -------------------------------------------------------------------

func (s *PGStore) CreateDoctor(ctx context.Context, d *Doctor) error {
	_, err := s.db.ExecContext(ctx,
		`insert into doctors(id, first_name, last_name, email, specialty, created_at, updated_at)
		 values($1,$2,$3,lower($4),$5,$6,$7)`,
		d.ID, d.FirstName, d.LastName, d.Email, d.Specialty, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (s *PGStore) FindDoctor(ctx context.Context, id string) (*Doctor, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, first_name, last_name, email, specialty, created_at, updated_at
		 from doctors where id=$1`, id)
	return scanDoctor(row)
}

func (s *PGStore) FindDoctorByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, first_name, last_name, email, specialty, created_at, updated_at
		 from doctors where email=lower($1)`, email)
	return scanDoctor(row)
}

func (s *PGStore) DoctorExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, `select exists(select 1 from doctors where id=$1)`, id)
}

// Reports -------------------------------------------------------------------

func (s *PGStore) CreateReport(ctx context.Context, r *MedicalReport) error {
	_, err := s.db.ExecContext(ctx,
		`insert into medical_reports(id, patient_id, title, summary, document_uri, created_by, created_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.PatientID, r.Title, r.Summary, r.DocumentURI, r.CreatedBy, r.CreatedAt,
	)
	return err
}

func (s *PGStore) FindReport(ctx context.Context, id string) (*MedicalReport, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, patient_id, title, summary, document_uri, created_by, created_at
		 from medical_reports where id=$1`, id)
	var r MedicalReport
	if err := row.Scan(&r.ID, &r.PatientID, &r.Title, &r.Summary, &r.DocumentURI, &r.CreatedBy, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *PGStore) ReportsForPatient(ctx context.Context, patientID string) ([]*MedicalReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, patient_id, title, summary, document_uri, created_by, created_at
		 from medical_reports where patient_id=$1 order by created_at desc`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*MedicalReport
	for rows.Next() {
		var r MedicalReport
		if err := rows.Scan(&r.ID, &r.PatientID, &r.Title, &r.Summary, &r.DocumentURI, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, rows.Err()
}

// Helpers -------------------------------------------------------------------

func (s *PGStore) exists(ctx context.Context, query, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanDoctor(row *sql.Row) (*Doctor, error) {
	var d Doctor
	if err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Specialty, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
