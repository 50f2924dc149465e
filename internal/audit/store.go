package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/studentbridge/jobmatch/pkg/postgres"
)

// LogStore persists match-run audit records in PostgreSQL.
//
// It requires a `match_run_logs` table:
//
//	CREATE TABLE match_run_logs (
//	    id          BIGSERIAL PRIMARY KEY,
//	    intern_name TEXT NOT NULL,
//	    payload     JSONB NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type LogStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewLogStore creates an audit log store.
func NewLogStore(db *postgres.Client) *LogStore {
	return &LogStore{
		db:     db,
		logger: slog.Default().With("component", "audit-store"),
	}
}

// Insert writes one audit event row.
func (s *LogStore) Insert(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO match_run_logs (intern_name, payload, created_at) VALUES ($1, $2, $3)`,
		event.InternName, payload, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("saving audit event: %w", err)
	}

	s.logger.Debug("audit event saved",
		"intern", event.InternName,
		"students", len(event.StudentProfile),
	)
	return nil
}
