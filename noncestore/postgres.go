package noncestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres records nonces in a table keyed by (context, nonce). The primary
// key makes StoreIfAbsent atomic. Rows past expires_at are ignored and removed
// by Prune.
type Postgres struct {
	pool      *pgxpool.Pool
	table     string
	retention time.Duration
	now       func() time.Time
}

// PostgresOption configures Postgres.
type PostgresOption func(*Postgres) error

// WithTable sets the schema-qualified table (default: public.gotoken_nonces).
func WithTable(schema, table string) PostgresOption {
	return func(s *Postgres) error {
		schema, table = strings.TrimSpace(schema), strings.TrimSpace(table)
		if schema == "" || table == "" {
			return ErrInvalidConfig
		}
		s.table = pgx.Identifier{schema, table}.Sanitize()
		return nil
	}
}

// WithNow overrides the clock used for expiry.
func WithNow(now func() time.Time) PostgresOption {
	return func(s *Postgres) error {
		if now == nil {
			return ErrInvalidConfig
		}
		s.now = now
		return nil
	}
}

func NewPostgres(pool *pgxpool.Pool, retention time.Duration, opts ...PostgresOption) (*Postgres, error) {
	st := &Postgres{
		pool:      pool,
		table:     pgx.Identifier{"public", "gotoken_nonces"}.Sanitize(),
		retention: retention,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil || st.retention <= 0 {
		return nil, ErrInvalidConfig
	}
	return st, nil
}

// EnsureSchema creates the nonce table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		context    TEXT        NOT NULL,
		nonce      TEXT        NOT NULL,
		issued_at  TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (context, nonce)
	)`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// StoreIfAbsent inserts the nonce. An expired row with the same key is
// replaced, so a nonce is rejected only while it is within retention.
func (s *Postgres) StoreIfAbsent(ctx context.Context, contextKey, nonce string, issuedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	now := s.now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` AS n (context, nonce, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (context, nonce) DO UPDATE
		   SET issued_at = EXCLUDED.issued_at, expires_at = EXCLUDED.expires_at
		   WHERE n.expires_at <= $5`,
		contextKey,
		nonce,
		issuedAt.UTC(),
		now.Add(s.retention),
		now,
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Prune deletes expired rows and returns how many were removed.
func (s *Postgres) Prune(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) Retention() time.Duration {
	return s.retention
}
