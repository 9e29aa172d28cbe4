package modelsync

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSlotsExhausted is returned when every model id of a connection is in
// use.
var ErrSlotsExhausted = errors.New("model slots exhausted")

// SlotAllocator binds model names to the ids of one connection.
// It is not safe for concurrent use; Session guards it.
type SlotAllocator struct {
	max  int
	ids  map[string]uint8
	used []bool
}

// NewSlotAllocator creates an allocator for ids 0..max-1. max is capped at
// 256.
func NewSlotAllocator(max int) *SlotAllocator {
	if max > 256 || max <= 0 {
		max = 256
	}
	return &SlotAllocator{
		max:  max,
		ids:  make(map[string]uint8),
		used: make([]bool, max),
	}
}

// Allocate returns the id bound to name, binding the lowest free id if it
// has none.
func (a *SlotAllocator) Allocate(name string) (uint8, error) {
	if id, ok := a.ids[name]; ok {
		return id, nil
	}
	for id := 0; id < a.max; id++ {
		if !a.used[id] {
			a.used[id] = true
			a.ids[name] = uint8(id)
			return uint8(id), nil
		}
	}
	return 0, fmt.Errorf("%w: all %d in use, can't define %s", ErrSlotsExhausted, a.max, name)
}

// Release unbinds name and returns the id it held.
func (a *SlotAllocator) Release(name string) (uint8, bool) {
	id, ok := a.ids[name]
	if !ok {
		return 0, false
	}
	delete(a.ids, name)
	a.used[id] = false
	return id, true
}

// ID returns the id bound to name.
func (a *SlotAllocator) ID(name string) (uint8, bool) {
	id, ok := a.ids[name]
	return id, ok
}

// Has reports whether name is bound.
func (a *SlotAllocator) Has(name string) bool {
	_, ok := a.ids[name]
	return ok
}

// Len returns the number of bound names.
func (a *SlotAllocator) Len() int {
	return len(a.ids)
}

// Names returns the bound names, sorted.
func (a *SlotAllocator) Names() []string {
	names := make([]string, 0, len(a.ids))
	for name := range a.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
