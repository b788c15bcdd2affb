// Package postgres stores actor state in PostgreSQL through Grove.
//
// All actor types share one table keyed by (actor_type, actor_id); the
// state itself is kept as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bazaar/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db     *grove.DB
	pg     *pgdriver.PgDB
	closed atomic.Bool
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the actor state table using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bazaar/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bazaar/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, key store.Key) ([]byte, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}

	m := new(actorStateModel)
	err := s.pg.NewSelect(m).
		Where("actor_type = $1", key.ActorType).
		Where("actor_id = $2", key.ActorID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("bazaar/postgres: load %s: %w", key, err)
	}
	return []byte(m.Data), nil
}

func (s *Store) Save(ctx context.Context, key store.Key, data []byte) error {
	if s.closed.Load() {
		return store.ErrClosed
	}

	m := toActorStateModel(key, data, time.Now().UTC())
	_, err := s.pg.NewInsert(m).
		OnConflict("(actor_type, actor_id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/postgres: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, actorType string) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}

	var models []actorStateModel
	err := s.pg.NewSelect(&models).
		Where("actor_type = $1", actorType).
		OrderExpr("actor_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/postgres: keys %s: %w", actorType, err)
	}

	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ActorID
	}
	return ids, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
