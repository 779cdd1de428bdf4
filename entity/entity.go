// Package entity allocates generation-checked entity identifiers.
//
// An Entity packs a 20-bit slot index and a 12-bit generation into a
// uint32. When an entity is destroyed its index goes back to the pool and
// the stored generation is bumped, so outstanding copies of the old value
// stop being reported alive when the index is reused. The generation wraps
// after a few thousand reuses of one index, after which a very old copy
// can match a live entity again (see Manager.IsAlive).
//
// A Manager is not safe for concurrent use. It belongs to the simulation
// goroutine, together with the component stores that key on its entities.
package entity

import (
	"errors"
	"fmt"
)

const (
	// IndexBits is the number of bits that encode the slot index.
	IndexBits = 20
	// GenerationBits is the number of bits that encode the generation.
	GenerationBits = 12

	// MaxEntities is the size of the index space.
	MaxEntities = 1 << IndexBits

	indexMask      = MaxEntities - 1
	generationMask = 1<<GenerationBits - 1
)

// Errors reported by the Manager. Both are programming errors and are
// raised as panics wrapping these values.
var (
	ErrExhausted = errors.New("entity: index space exhausted")
	ErrNotAlive  = errors.New("entity: not alive")
)

// Entity identifies a logical object.
type Entity uint32

// Zero is never returned by Create and means "no entity".
const Zero Entity = 0

func makeEntity(index uint32, generation uint16) Entity {
	return Entity(uint32(generation)<<IndexBits | index&indexMask)
}

// Index returns the slot index encoded in e.
func (e Entity) Index() uint32 { return uint32(e) & indexMask }

// Generation returns the generation encoded in e.
func (e Entity) Generation() uint16 { return uint16(uint32(e)>>IndexBits) & generationMask }

// IsZero reports whether e is Zero.
func (e Entity) IsZero() bool { return e == Zero }

// String formats e as index:generation.
func (e Entity) String() string {
	if e == Zero {
		return "entity(none)"
	}
	return fmt.Sprintf("entity(%d:%d)", e.Index(), e.Generation())
}
