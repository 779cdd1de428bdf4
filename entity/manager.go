package entity

import "fmt"

// Manager hands out entities and recycles their indices.
type Manager struct {
	generations []uint16
	alive       []bool
	free        []uint32
	limit       uint32
	live        int
}

// NewManager returns a manager over the full index space.
func NewManager() *Manager {
	return newManager(MaxEntities)
}

func newManager(limit uint32) *Manager {
	return &Manager{limit: limit}
}

// Create returns a fresh entity. It panics with ErrExhausted once every
// index is in use.
func (m *Manager) Create() Entity {
	var index uint32
	if n := len(m.free); n > 0 {
		index = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		if uint32(len(m.generations)) >= m.limit {
			panic(fmt.Errorf("%w: %d live entities", ErrExhausted, m.live))
		}
		index = uint32(len(m.generations))
		m.generations = append(m.generations, 0)
		m.alive = append(m.alive, false)
	}
	gen := nextGeneration(m.generations[index])
	m.generations[index] = gen
	m.alive[index] = true
	m.live++
	return makeEntity(index, gen)
}

// Destroy invalidates e and returns its index to the pool. Destroying an
// entity that is not alive panics with ErrNotAlive.
func (m *Manager) Destroy(e Entity) {
	if !m.IsAlive(e) {
		panic(fmt.Errorf("%w: destroy %v", ErrNotAlive, e))
	}
	index := e.Index()
	m.generations[index] = nextGeneration(m.generations[index])
	m.alive[index] = false
	m.free = append(m.free, index)
	m.live--
}

// IsAlive reports whether e was issued by m and has not been destroyed.
//
// Generations have GenerationBits bits and both Create and Destroy advance
// them, so an index cycles through every generation within generationMask
// reuses. A handle kept across that many reuses of its index may alias the
// entity currently holding it and be reported alive.
func (m *Manager) IsAlive(e Entity) bool {
	if e == Zero {
		return false
	}
	index := e.Index()
	if index >= uint32(len(m.generations)) {
		return false
	}
	return m.alive[index] && m.generations[index] == e.Generation()
}

// Len returns the number of live entities.
func (m *Manager) Len() int { return m.live }

// nextGeneration increments within GenerationBits, skipping 0 so that
// index 0 never encodes to Zero.
func nextGeneration(g uint16) uint16 {
	g = (g + 1) & generationMask
	if g == 0 {
		g = 1
	}
	return g
}
