package postgres

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bazaar/store"
)

type actorStateModel struct {
	grove.BaseModel `grove:"table:bazaar_actor_state"`

	ActorType string          `grove:"actor_type,pk"`
	ActorID   string          `grove:"actor_id,pk"`
	Data      json.RawMessage `grove:"data,type:jsonb"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toActorStateModel(key store.Key, data []byte, now time.Time) *actorStateModel {
	return &actorStateModel{
		ActorType: key.ActorType,
		ActorID:   key.ActorID,
		Data:      json.RawMessage(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
