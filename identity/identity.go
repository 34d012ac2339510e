// Package identity produces local identifiers for optimistic entities.
package identity

import "github.com/google/uuid"

// Generator hands out random (version 4) UUIDs, collision resistant across
// clients without any coordination.
type Generator struct{}

func New() Generator {
	return Generator{}
}

func (Generator) NewID() string {
	return uuid.NewString()
}
