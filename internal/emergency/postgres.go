package emergency

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. The status transition is a
// single conditional UPDATE so the database serializes racing approvals.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, r *AccessRequest) error {
	_, err := s.db.ExecContext(ctx,
		`insert into emergency_access(id, patient_id, requester_name, reason, notes, approved_by_doctor_id, expires_at, status, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.PatientID, r.RequesterName, r.Reason, r.Notes, r.ApprovedByDoctorID, r.ExpiresAt, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*AccessRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, patient_id, requester_name, reason, notes, approved_by_doctor_id, expires_at, status, created_at, updated_at
		 from emergency_access where id=$1`, id)
	return scanRequest(row)
}

func (s *PGStore) Transition(ctx context.Context, id string, from, to Status, approvedByDoctorID *string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`update emergency_access
		 set status=$1, approved_by_doctor_id=coalesce($2, approved_by_doctor_id), updated_at=$3
		 where id=$4 and status=$5`,
		to, approvedByDoctorID, at, id, from,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *PGStore) ListActiveForPatient(ctx context.Context, patientID string, now time.Time) ([]*AccessRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, patient_id, requester_name, reason, notes, approved_by_doctor_id, expires_at, status, created_at, updated_at
		 from emergency_access
		 where patient_id=$1 and status=$2 and expires_at > $3
		 order by created_at asc`,
		patientID, StatusApproved, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*AccessRequest
	for rows.Next() {
		var r AccessRequest
		if err := rows.Scan(&r.ID, &r.PatientID, &r.RequesterName, &r.Reason, &r.Notes, &r.ApprovedByDoctorID,
			&r.ExpiresAt, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &r)
	}
	return res, rows.Err()
}

func scanRequest(row *sql.Row) (*AccessRequest, error) {
	var r AccessRequest
	if err := row.Scan(&r.ID, &r.PatientID, &r.RequesterName, &r.Reason, &r.Notes, &r.ApprovedByDoctorID,
		&r.ExpiresAt, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
