package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore persists pool candidates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed pool store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the candidates table when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pool_candidates (
		id               UUID PRIMARY KEY,
		domain           TEXT NOT NULL UNIQUE,
		word             TEXT NOT NULL,
		tld              TEXT NOT NULL,
		length           INTEGER NOT NULL,
		phonetic_pattern TEXT NOT NULL DEFAULT '',
		quality_score    DOUBLE PRECISION,
		embedding        DOUBLE PRECISION[],
		discovered_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pool_candidates_tld ON pool_candidates(tld);
	CREATE INDEX IF NOT EXISTS idx_pool_candidates_length ON pool_candidates(length);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure pool schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, c Candidate) (bool, error) {
	if c.Domain == "" {
		return false, fmt.Errorf("candidate domain is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO pool_candidates
			(id, domain, word, tld, length, phonetic_pattern, quality_score, embedding, discovered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (domain) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.Domain, c.Word, c.TLD, c.Length, c.PhoneticPattern,
		nullFloat(c.QualityScore), pq.Array(c.Embedding), c.DiscoveredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert candidate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert candidate rows: %w", err)
	}
	return rows > 0, nil
}

func (s *PostgresStore) Exists(ctx context.Context, domain string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pool_candidates WHERE domain = $1)`, domain).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check candidate: %w", err)
	}
	return exists, nil
}

const selectCandidates = `SELECT id, domain, word, tld, length, phonetic_pattern, quality_score, embedding, discovered_at
	FROM pool_candidates`

// filterClause renders the filter as a WHERE clause with positional args.
func filterClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.TLD != "" {
		add("tld = $%d", f.TLD)
	}
	if f.MinLength > 0 {
		add("length >= $%d", f.MinLength)
	}
	if f.MaxLength > 0 {
		add("length <= $%d", f.MaxLength)
	}
	if f.Pattern != "" {
		add("phonetic_pattern = $%d", strings.ToUpper(f.Pattern))
	}
	if f.Prefix != "" {
		add("word LIKE $%d || '%%'", f.Prefix)
	}
	if f.Suffix != "" {
		add("word LIKE '%%' || $%d", f.Suffix)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) Sample(ctx context.Context, f Filter) ([]Candidate, error) {
	where, args := filterClause(f)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query := selectCandidates + where + fmt.Sprintf(" ORDER BY random() LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample candidates: %w", err)
	}
	defer rows.Close()
	return collectCandidates(rows)
}

// List is the deterministic counterpart of Sample: matching candidates come
// back in domain order, truncated only when the filter carries a limit.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Candidate, error) {
	where, args := filterClause(f)
	query := selectCandidates + where + " ORDER BY domain"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()
	return collectCandidates(rows)
}

func collectCandidates(rows *sql.Rows) ([]Candidate, error) {
	var out []Candidate
	for rows.Next() {
		var (
			c         Candidate
			score     sql.NullFloat64
			embedding pq.Float64Array
		)
		if err := rows.Scan(&c.ID, &c.Domain, &c.Word, &c.TLD, &c.Length,
			&c.PhoneticPattern, &score, &embedding, &c.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if score.Valid {
			v := score.Float64
			c.QualityScore = &v
		}
		c.Embedding = embedding
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, domain string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pool_candidates WHERE domain = $1`, domain); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	return nil
}

func (s *PostgresStore) AttachScore(ctx context.Context, domain string, score float64, embedding []float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pool_candidates
		SET quality_score = $2, embedding = $3
		WHERE domain = $1
	`, domain, score, pq.Array(embedding))
	if err != nil {
		return fmt.Errorf("attach score: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach score rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context, tld string) (int, error) {
	var (
		count int
		err   error
	)
	if tld == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pool_candidates`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pool_candidates WHERE tld = $1`, tld).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return count, nil
}

// ErrNotFound reports an operation against a domain that is not pooled.
var ErrNotFound = errors.New("candidate not found")

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
