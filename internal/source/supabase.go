package source

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/trustgate/internal/confidence"
	"github.com/sells-group/trustgate/internal/model"
)

// Querier abstracts the pgx pool operations the adapter needs, so tests
// can substitute a mock pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PoolOptions tunes the Supabase connection pool.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// Timeout bounds each query. 0 disables the per-query deadline.
	Timeout time.Duration
}

// SupabaseSource retrieves records from the Supabase Postgres database.
type SupabaseSource struct {
	pool    Querier
	mapping *Mapping
	timeout time.Duration
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewSupabase connects to the Supabase Postgres database and verifies the
// connection with a ping.
func NewSupabase(ctx context.Context, connString string, opts PoolOptions, mapping *Mapping) (*SupabaseSource, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "supabase: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if opts.MaxConns > 0 {
		maxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		minConns = opts.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "supabase: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "supabase: ping")
	}
	return &SupabaseSource{pool: pool, mapping: mapping, timeout: opts.Timeout}, nil
}

// NewSupabaseFromQuerier wraps an existing pool. Used by tests.
func NewSupabaseFromQuerier(q Querier, mapping *Mapping, timeout time.Duration) *SupabaseSource {
	return &SupabaseSource{pool: q, mapping: mapping, timeout: timeout}
}

// Kind identifies this adapter as the supabase source.
func (s *SupabaseSource) Kind() model.SourceKind {
	return model.SourceSupabase
}

// Fetch queries the routed table with equality filters and scores each row.
func (s *SupabaseSource) Fetch(ctx context.Context, container string, filters model.Payload) ([]model.ScoredRecord, error) {
	table := s.mapping.Route(container).SupabaseTable
	if !identifierPattern.MatchString(table) {
		return nil, eris.Errorf("supabase: invalid table name %q", table)
	}

	query := "SELECT * FROM " + pgx.Identifier{table}.Sanitize()
	args := []any{}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if !identifierPattern.MatchString(k) {
			return nil, eris.Errorf("supabase: invalid filter column %q", k)
		}
		clause := " AND "
		if i == 0 {
			clause = " WHERE "
		}
		query += fmt.Sprintf("%s%s = $%d", clause, pgx.Identifier{k}.Sanitize(), i+1)
		args = append(args, filters[k])
	}
	query += fmt.Sprintf(" LIMIT %d", fetchLimit)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "supabase: query %s", table)
	}
	defer rows.Close()

	var records []model.ScoredRecord
	for rows.Next() {
		payload, err := scanPayload(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "supabase: scan %s", table)
		}

		hash, err := PayloadHash(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, model.ScoredRecord{
			Payload: payload,
			Origin: model.Origin{
				Source:      model.SourceSupabase,
				ID:          recordID(payload),
				Container:   container,
				RetrievedAt: time.Now().UTC(),
				Filters:     filters,
				PayloadHash: hash,
			},
			Confidence: confidence.Score(payload, filters, model.SourceSupabase),
			Verified:   true,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "supabase: iterate %s", table)
	}

	if len(records) == 0 {
		return []model.ScoredRecord{NotFoundRecord(model.SourceSupabase, container, filters)}, nil
	}
	return records, nil
}

// Get returns the raw payload for one record id, or nil when it does not exist.
func (s *SupabaseSource) Get(ctx context.Context, container, recordID string) (model.Payload, error) {
	table := s.mapping.Route(container).SupabaseTable
	if !identifierPattern.MatchString(table) {
		return nil, eris.Errorf("supabase: invalid table name %q", table)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 LIMIT 1", pgx.Identifier{table}.Sanitize())
	rows, err := s.pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, eris.Wrapf(err, "supabase: get %s/%s", table, recordID)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, eris.Wrapf(err, "supabase: get %s/%s", table, recordID)
		}
		return nil, nil
	}
	payload, err := scanPayload(rows)
	if err != nil {
		return nil, eris.Wrapf(err, "supabase: scan %s/%s", table, recordID)
	}
	return payload, nil
}

// Ping verifies connectivity.
func (s *SupabaseSource) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "supabase: ping")
}

// Close releases the connection pool.
func (s *SupabaseSource) Close() error {
	s.pool.Close()
	return nil
}

// scanPayload converts the current row into a payload keyed by column name.
func scanPayload(rows pgx.Rows) (model.Payload, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	fields := rows.FieldDescriptions()

	payload := make(model.Payload, len(fields))
	for i, fd := range fields {
		if i < len(values) {
			payload[fd.Name] = values[i]
		}
	}
	return payload, nil
}
