package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/studentbridge/jobmatch/pkg/errors"
	"github.com/studentbridge/jobmatch/pkg/postgres"
)

// PostgresSource reads all job documents from a JSONB document table:
//
//	CREATE TABLE job_postings (
//	    id      BIGSERIAL PRIMARY KEY,
//	    payload JSONB NOT NULL
//	);
//
// Record identity follows insertion order (id ascending).
type PostgresSource struct {
	db     *postgres.Client
	table  string
	logger *slog.Logger
}

// NewPostgresSource creates a source over the given document table.
func NewPostgresSource(db *postgres.Client, table string) *PostgresSource {
	return &PostgresSource{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "postgres-source", "table", table),
	}
}

// Load fetches every document in the collection.
func (s *PostgresSource) Load(ctx context.Context) ([]JobRecord, error) {
	if s.table == "" {
		return nil, fmt.Errorf("%w: no job table configured", errors.ErrMissingSource)
	}
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY id`, pq.QuoteIdentifier(s.table))
	rows, err := s.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying job table %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		var rec JobRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decoding job document %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	s.logger.Info("job records loaded", "records", len(records))
	return records, nil
}
