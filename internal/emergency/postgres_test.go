package emergency

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreTransitionCompareAndSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	at := time.Now().UTC()
	doctorID := "doctor-1"

	// First caller flips PENDING -> APPROVED.
	mock.ExpectExec("update emergency_access").
		WithArgs("APPROVED", &doctorID, at, "req-1", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second caller finds the row no longer PENDING.
	mock.ExpectExec("update emergency_access").
		WithArgs("DENIED", nil, at, "req-1", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	ctx := context.Background()

	won, err := store.Transition(ctx, "req-1", StatusPending, StatusApproved, &doctorID, at)
	if err != nil || !won {
		t.Fatalf("expected first transition to win, won=%v err=%v", won, err)
	}
	won, err = store.Transition(ctx, "req-1", StatusPending, StatusDenied, nil, at)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if won {
		t.Fatal("expected second transition to lose the compare-and-set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, patient_id, requester_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewPGStore(db)
	if _, err := store.Find(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreListActiveForPatient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	expires := now.Add(time.Hour)
	doctorID := "doctor-1"
	rows := sqlmock.NewRows([]string{
		"id", "patient_id", "requester_name", "reason", "notes",
		"approved_by_doctor_id", "expires_at", "status", "created_at", "updated_at",
	}).AddRow("req-1", "patient-1", "Nurse Lee", "code blue", "", &doctorID, expires, "APPROVED", now, now)

	mock.ExpectQuery("select id, patient_id, requester_name.*from emergency_access.*expires_at >").
		WithArgs("patient-1", "APPROVED", now).
		WillReturnRows(rows)

	store := NewPGStore(db)
	active, err := store.ListActiveForPatient(context.Background(), "patient-1", now)
	if err != nil {
		t.Fatalf("ListActiveForPatient: %v", err)
	}
	if len(active) != 1 || active[0].ID != "req-1" || active[0].Status != StatusApproved {
		t.Fatalf("unexpected result: %+v", active)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
