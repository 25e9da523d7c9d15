package ai

import (
	"context"
	"database/sql"

	"medvault.org/internal/ids"
)

var _ RequestLogStore = (*PGStore)(nil)

// PGStore persists request logs in PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) AppendRequestLog(ctx context.Context, entry *RequestLog) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into ai_request_log(id, request_type, status, response_summary, created_at)
		 values($1,$2,$3,$4,$5)`,
		entry.ID, entry.RequestType, entry.Status, entry.ResponseSummary, entry.CreatedAt,
	)
	return err
}
