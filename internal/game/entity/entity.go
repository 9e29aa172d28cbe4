// Package entity implements the players and bots whose models are shown to
// connections.
package entity

import (
	"sort"
	"sync"
)

// Type represents the type of entity.
type Type uint8

const (
	TypePlayer Type = iota
	TypeBot
)

// DefaultModel is the built-in model every entity starts with.
const DefaultModel = "humanoid"

// Entity is a player or bot. Level, model and skin may change while other
// goroutines read them.
type Entity struct {
	id   uint32
	typ  Type
	name string

	mu       sync.RWMutex
	level    string
	model    string
	skin     string
	revision uint64
}

// New creates an entity with the default model.
func New(id uint32, typ Type, name string) *Entity {
	return &Entity{id: id, typ: typ, name: name, model: DefaultModel}
}

// ID returns the entity id.
func (e *Entity) ID() uint32 { return e.id }

// Type returns the entity type.
func (e *Entity) Type() Type { return e.typ }

// Name returns the entity name.
func (e *Entity) Name() string { return e.name }

// Level returns the level the entity is on, "" when on none.
func (e *Entity) Level() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.level
}

// SetLevel moves the entity.
func (e *Entity) SetLevel(level string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = level
}

// CurrentModelName returns the model the entity has chosen, possibly with
// modifier tags.
func (e *Entity) CurrentModelName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// SetModel changes the chosen model. An empty name restores the default.
func (e *Entity) SetModel(name string) {
	if name == "" {
		name = DefaultModel
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != name {
		e.model = name
		e.revision++
	}
}

// SkinName returns the skin to show, defaulting to the entity name.
func (e *Entity) SkinName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.skin == "" {
		return e.name
	}
	return e.skin
}

// SetSkin changes the skin. An empty name restores the default.
func (e *Entity) SetSkin(skin string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.skin != skin {
		e.skin = skin
		e.revision++
	}
}

// Revision increases on every model or skin change.
func (e *Entity) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// Manager manages all entities.
type Manager struct {
	mu       sync.RWMutex
	entities map[uint32]*Entity
}

// NewManager creates a new entity manager.
func NewManager() *Manager {
	return &Manager{
		entities: make(map[uint32]*Entity),
	}
}

// Add adds an entity.
func (m *Manager) Add(e *Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[e.ID()] = e
}

// Remove removes an entity.
func (m *Manager) Remove(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entities, id)
}

// Get returns an entity by ID.
func (m *Manager) Get(id uint32) *Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entities[id]
}

// All returns all entities ordered by ID.
func (m *Manager) All() []*Entity {
	m.mu.RLock()
	result := make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		result = append(result, e)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// OnLevel returns the entities on level, ordered by ID.
func (m *Manager) OnLevel(level string) []*Entity {
	var result []*Entity
	for _, e := range m.All() {
		if e.Level() == level {
			result = append(result, e)
		}
	}
	return result
}

// Count returns the total number of entities.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}

// CountByType returns the number of entities of a specific type.
func (m *Manager) CountByType(t Type) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.entities {
		if e.typ == t {
			count++
		}
	}
	return count
}
