package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/repolens/internal/db"
)

// Store records and queries tool invocations.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Log inserts a new invocation. If inv.ID is empty a UUID is generated; a
// zero Timestamp means now.
func (s *Store) Log(ctx context.Context, inv Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.Timestamp.IsZero() {
		inv.Timestamp = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_invocations (
			id, timestamp, tool, state, query_count, has_results,
			empty, failed, duration_ms, transport, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Timestamp.UTC().Format(time.DateTime),
		inv.Tool,
		string(inv.State),
		inv.QueryCount,
		inv.HasResults,
		inv.Empty,
		inv.Failed,
		inv.DurationMS,
		string(inv.Transport),
		inv.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting tool invocation: %w", err)
	}
	return nil
}

// GetByID retrieves a single invocation.
func (s *Store) GetByID(ctx context.Context, id string) (*Invocation, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanInto(row)
}

// QueryFilter controls which invocations are returned by Query.
type QueryFilter struct {
	Tool   string
	State  State
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

const selectColumns = `SELECT id, timestamp, tool, state, query_count, has_results, empty, failed, duration_ms, transport, detail FROM tool_invocations`

// Query returns invocations matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Invocation, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Tool != "" {
		clauses = append(clauses, "tool = ?")
		args = append(args, filter.Tool)
	}
	if filter.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, string(filter.State))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tool invocations: %w", err)
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		inv, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// Stats aggregates invocations per tool.
type Stats struct {
	Tool        string `json:"tool"`
	Calls       int    `json:"calls"`
	Queries     int    `json:"queries"`
	Failed      int    `json:"failed"`
	AvgDuration int64  `json:"avgDurationMs"`
}

// Summarize returns per-tool totals for invocations since the given time.
func (s *Store) Summarize(ctx context.Context, since time.Time) ([]Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tool, COUNT(*), COALESCE(SUM(query_count), 0), COALESCE(SUM(failed), 0),
			   CAST(COALESCE(AVG(duration_ms), 0) AS INTEGER)
		FROM tool_invocations WHERE timestamp >= ?
		GROUP BY tool ORDER BY tool`,
		since.UTC().Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing tool invocations: %w", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var st Stats
		if err := rows.Scan(&st.Tool, &st.Calls, &st.Queries, &st.Failed, &st.AvgDuration); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteBefore removes all invocations older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tool_invocations WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old tool invocations: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Invocation, error) {
	var (
		inv              Invocation
		ts               string
		state, transport string
	)

	err := sc.Scan(
		&inv.ID, &ts, &inv.Tool, &state, &inv.QueryCount, &inv.HasResults,
		&inv.Empty, &inv.Failed, &inv.DurationMS, &transport, &inv.Detail,
	)
	if err != nil {
		return nil, err
	}

	inv.State = State(state)
	inv.Transport = Transport(transport)
	inv.Timestamp = parseTimestamp(ts)
	return &inv, nil
}

// parseTimestamp accepts both the stored text form and the RFC 3339 form
// the driver produces for DATETIME columns.
func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// IsNotFound reports whether err means the requested invocation is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
