package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
)

// LocalSource is a SQLite-backed adapter that stands in for the hosted
// Postgres database in development. It reports itself as the supabase
// source so the rest of the pipeline behaves identically.
type LocalSource struct {
	db *sql.DB
}

// NewLocal opens a SQLite database at the given path and configures WAL mode.
func NewLocal(dsn string) (*LocalSource, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "local: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "local: exec %s", pragma)
		}
	}
	return &LocalSource{db: db}, nil
}

const localMigration = `
CREATE TABLE IF NOT EXISTS records (
	container  TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (container, id)
);

CREATE INDEX IF NOT EXISTS idx_records_container ON records(container);
`

// Migrate creates the records table.
func (s *LocalSource) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, localMigration)
	return eris.Wrap(err, "local: migrate")
}

// Kind identifies this adapter as the supabase source slot.
func (s *LocalSource) Kind() model.SourceKind {
	return model.SourceSupabase
}

// Put stores or replaces a record. Used to seed development data.
func (s *LocalSource) Put(ctx context.Context, container, id string, payload model.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "local: marshal payload")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (container, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (container, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		container, id, string(raw), time.Now().UTC(),
	)
	return eris.Wrapf(err, "local: put %s/%s", container, id)
}

// Fetch returns scored records from the container whose payloads match
// every filter value.
func (s *LocalSource) Fetch(ctx context.Context, container string, filters model.Payload) ([]model.ScoredRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM records WHERE container = ? ORDER BY id`,
		container,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "local: query %s", container)
	}
	defer rows.Close()

	var records []model.ScoredRecord
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, eris.Wrapf(err, "local: scan %s", container)
		}

		var payload model.Payload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, eris.Wrapf(err, "local: unmarshal %s/%s", container, id)
		}
		if !matchesFilters(payload, filters) {
			continue
		}

		hash, err := PayloadHash(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, model.ScoredRecord{
			Payload: payload,
			Origin: model.Origin{
				Source:      model.SourceSupabase,
				ID:          id,
				Container:   container,
				RetrievedAt: time.Now().UTC(),
				Filters:     filters,
				PayloadHash: hash,
			},
			Confidence: confidence.Score(payload, filters, model.SourceSupabase),
			Verified:   true,
		})
		if len(records) >= fetchLimit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "local: iterate %s", container)
	}

	if len(records) == 0 {
		return []model.ScoredRecord{NotFoundRecord(model.SourceSupabase, container, filters)}, nil
	}
	return records, nil
}

// Get returns the payload for one record id, or nil when it does not exist.
func (s *LocalSource) Get(ctx context.Context, container, recordID string) (model.Payload, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE container = ? AND id = ?`,
		container, recordID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "local: get %s/%s", container, recordID)
	}

	var payload model.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, eris.Wrapf(err, "local: unmarshal %s/%s", container, recordID)
	}
	return payload, nil
}

// Ping verifies the database file is reachable.
func (s *LocalSource) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "local: ping")
}

// Close closes the database.
func (s *LocalSource) Close() error {
	return s.db.Close()
}

func matchesFilters(payload model.Payload, filters model.Payload) bool {
	for k, want := range filters {
		got, ok := payload[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
