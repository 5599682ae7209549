package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/MrEthical07/playgate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTable is the table events are written to unless configured otherwise.
const DefaultTable = "playgate_audit_events"

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Execer is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the sink uses.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Sink writes each audit event as one row.
type Sink struct {
	db      Execer
	table   string
	onError func(error)
}

// Option customizes a [Sink].
type Option func(*Sink)

// WithTable overrides [DefaultTable]. Names must be lowercase identifiers.
func WithTable(name string) Option {
	return func(s *Sink) { s.table = name }
}

// WithErrorHandler is called with every failed insert.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Sink) { s.onError = fn }
}

// NewSink returns a sink over db.
func NewSink(db Execer, opts ...Option) (*Sink, error) {
	if db == nil {
		return nil, errors.New("postgres audit sink: nil db")
	}
	s := &Sink{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNamePattern.MatchString(s.table) {
		return nil, fmt.Errorf("postgres audit sink: invalid table name %q", s.table)
	}
	return s, nil
}

// EnsureSchema creates the events table and its time index if they do not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	id          UUID PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	event_type  TEXT NOT NULL,
	request_id  TEXT NOT NULL DEFAULT '',
	identity    TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	ip          TEXT NOT NULL DEFAULT '',
	scope       TEXT NOT NULL DEFAULT '',
	success     BOOLEAN NOT NULL,
	error_code  TEXT NOT NULL DEFAULT '',
	metadata    JSONB
)`,
		`CREATE INDEX IF NOT EXISTS ` + s.table + `_occurred_at_idx ON ` + s.table + ` (occurred_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres audit sink: ensure schema: %w", err)
		}
	}
	return nil
}

// Emit implements [playgate.AuditSink].
func (s *Sink) Emit(ctx context.Context, event playgate.AuditEvent) {
	if err := s.Insert(ctx, event); err != nil && s.onError != nil {
		s.onError(err)
	}
}

// Insert writes event and returns the database error, if any.
func (s *Sink) Insert(ctx context.Context, event playgate.AuditEvent) error {
	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("postgres audit sink: encode metadata: %w", err)
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO `+s.table+` (id, occurred_at, event_type, request_id, identity, subject, ip, scope, success, error_code, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.New(),
		event.Timestamp,
		event.EventType,
		event.RequestID,
		event.Identity,
		event.Subject,
		event.IP,
		event.Scope,
		event.Success,
		event.Error,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("postgres audit sink: insert %s: %w", event.EventType, err)
	}
	return nil
}

var _ playgate.AuditSink = (*Sink)(nil)
