// Package mongo stores actor state in MongoDB through Grove. Each actor is
// one document whose _id is the "type||id" key.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bazaar/store"
)

// Collection name constants.
const (
	colActorState = "bazaar_actor_state"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db     *grove.DB
	mdb    *mongodriver.MongoDB
	closed atomic.Bool
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the actor state collection.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bazaar/mongo: migrate %s indexes: %w", col, err)
		}
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

	var m actorStateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: load %s: %w", key, err)
	}
	return m.Data, nil
}

func (s *Store) Save(ctx context.Context, key store.Key, data []byte) error {
	if s.closed.Load() {
		return store.ErrClosed
	}

	m := toActorStateModel(key, data, time.Now().UTC())
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.ID,
			"actor_type": m.ActorType,
			"actor_id":   m.ActorID,
			"data":       m.Data,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, actorType string) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}

	var models []actorStateModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"actor_type": actorType}).
		Sort(bson.D{{Key: "actor_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: keys %s: %w", actorType, err)
	}

	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ActorID
	}
	return ids, nil
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colActorState: {
			{Keys: bson.D{{Key: "actor_type", Value: 1}, {Key: "actor_id", Value: 1}}},
			{Keys: bson.D{{Key: "actor_type", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
	}
}
