package bazaar

import "github.com/xraph/bazaar/id"

// ID is the identifier type of every Bazaar entity. It doubles as the
// address of the actor that owns the entity.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
