package enumerate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Checkpoint is the durable progress marker of one enumeration run.
// LastPosition is the next space index to check, so a fresh checkpoint at
// zero and a resumed one compose without overlap.
type Checkpoint struct {
	SpaceID        string
	LastPosition   int
	TotalChecked   int
	TotalAvailable int
	TotalTaken     int
	TotalErrors    int
	UpdatedAt      time.Time
}

// AvailabilityRate returns the share of checked domains that were available,
// in percent.
func (c Checkpoint) AvailabilityRate() float64 {
	if c.TotalChecked == 0 {
		return 0
	}
	return float64(c.TotalAvailable) / float64(c.TotalChecked) * 100
}

// CheckpointStore persists enumeration progress keyed by space id.
type CheckpointStore interface {
	// Load returns the checkpoint for the space, false when none exists.
	Load(ctx context.Context, spaceID string) (Checkpoint, bool, error)

	// Save upserts the checkpoint.
	Save(ctx context.Context, c Checkpoint) error
}

// PostgresCheckpointStore keeps checkpoints in Postgres.
type PostgresCheckpointStore struct {
	db *sql.DB
}

func NewPostgresCheckpointStore(db *sql.DB) (*PostgresCheckpointStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &PostgresCheckpointStore{db: db}, nil
}

// EnsureSchema creates the checkpoint table when missing.
func (s *PostgresCheckpointStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS enumeration_checkpoints (
			space_id        TEXT PRIMARY KEY,
			last_position   INTEGER NOT NULL,
			total_checked   INTEGER NOT NULL,
			total_available INTEGER NOT NULL,
			total_taken     INTEGER NOT NULL,
			total_errors    INTEGER NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure enumeration_checkpoints schema: %w", err)
	}
	return nil
}

func (s *PostgresCheckpointStore) Load(ctx context.Context, spaceID string) (Checkpoint, bool, error) {
	const query = `
		SELECT space_id, last_position, total_checked, total_available,
		       total_taken, total_errors, updated_at
		FROM enumeration_checkpoints
		WHERE space_id = $1`

	var c Checkpoint
	err := s.db.QueryRowContext(ctx, query, spaceID).Scan(
		&c.SpaceID, &c.LastPosition, &c.TotalChecked, &c.TotalAvailable,
		&c.TotalTaken, &c.TotalErrors, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint %s: %w", spaceID, err)
	}
	return c, true, nil
}

func (s *PostgresCheckpointStore) Save(ctx context.Context, c Checkpoint) error {
	const query = `
		INSERT INTO enumeration_checkpoints (
			space_id, last_position, total_checked, total_available,
			total_taken, total_errors, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (space_id) DO UPDATE SET
			last_position   = EXCLUDED.last_position,
			total_checked   = EXCLUDED.total_checked,
			total_available = EXCLUDED.total_available,
			total_taken     = EXCLUDED.total_taken,
			total_errors    = EXCLUDED.total_errors,
			updated_at      = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		c.SpaceID, c.LastPosition, c.TotalChecked, c.TotalAvailable,
		c.TotalTaken, c.TotalErrors, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", c.SpaceID, err)
	}
	return nil
}

// MemoryCheckpointStore is the in-memory twin for tests and local runs.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]Checkpoint
}

func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]Checkpoint)}
}

func (s *MemoryCheckpointStore) Load(_ context.Context, spaceID string) (Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkpoints[spaceID]
	return c, ok, nil
}

func (s *MemoryCheckpointStore) Save(_ context.Context, c Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[c.SpaceID] = c
	return nil
}
