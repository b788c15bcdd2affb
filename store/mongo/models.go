package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bazaar/store"
)

type actorStateModel struct {
	grove.BaseModel `grove:"table:bazaar_actor_state"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	ActorType string    `grove:"actor_type" bson:"actor_type"`
	ActorID   string    `grove:"actor_id"   bson:"actor_id"`
	Data      []byte    `grove:"data"       bson:"data"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toActorStateModel(key store.Key, data []byte, now time.Time) *actorStateModel {
	return &actorStateModel{
		ID:        key.String(),
		ActorType: key.ActorType,
		ActorID:   key.ActorID,
		Data:      data,
		UpdatedAt: now,
	}
}
