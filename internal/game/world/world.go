// Package world tracks which connection controls which player and which
// entities each connection can see.
package world

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/game/entity"
	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/modelsync"
	"github.com/Faultbox/ccmodels/internal/network"
)

// World errors.
var (
	ErrAlreadyJoined = errors.New("connection already has a player")
	ErrNotJoined     = errors.New("connection has no player")
)

// RefreshFunc is called when observers should re-resolve an entity's model.
type RefreshFunc func(e *entity.Entity, observers []network.ConnID)

// World is the set of entities, the players controlled by connections and
// the levels they are on. Entities see each other when on the same level.
type World struct {
	entities *entity.Manager
	nextID   atomic.Uint32

	mu      sync.RWMutex
	players map[network.ConnID]*entity.Entity
	owners  map[uint32]network.ConnID

	onRefresh RefreshFunc
}

// New creates an empty world.
func New() *World {
	return &World{
		entities: entity.NewManager(),
		players:  make(map[network.ConnID]*entity.Entity),
		owners:   make(map[uint32]network.ConnID),
	}
}

// SetRefreshHandler sets the function called by RefreshEntity.
func (w *World) SetRefreshHandler(fn RefreshFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onRefresh = fn
}

// Manager returns the entity manager.
func (w *World) Manager() *entity.Manager {
	return w.entities
}

// Join creates the player controlled by conn on level.
func (w *World) Join(conn network.ConnID, name, level string) (*entity.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.players[conn]; ok {
		return nil, ErrAlreadyJoined
	}

	p := entity.New(w.nextID.Add(1), entity.TypePlayer, name)
	p.SetLevel(level)
	w.entities.Add(p)
	w.players[conn] = p
	w.owners[p.ID()] = conn

	logger.Info("player joined",
		zap.Uint32("conn", uint32(conn)),
		zap.String("name", name),
		zap.String("level", level))
	return p, nil
}

// Leave removes conn's player and returns it.
func (w *World) Leave(conn network.ConnID) (*entity.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[conn]
	if !ok {
		return nil, ErrNotJoined
	}
	delete(w.players, conn)
	delete(w.owners, p.ID())
	w.entities.Remove(p.ID())

	logger.Info("player left", zap.Uint32("conn", uint32(conn)), zap.String("name", p.Name()))
	return p, nil
}

// Player returns conn's player, or nil.
func (w *World) Player(conn network.ConnID) *entity.Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.players[conn]
}

// SpawnBot adds a bot on level.
func (w *World) SpawnBot(name, level string) *entity.Entity {
	b := entity.New(w.nextID.Add(1), entity.TypeBot, name)
	b.SetLevel(level)
	w.entities.Add(b)
	return b
}

// Despawn removes a bot. Players leave through Leave.
func (w *World) Despawn(id uint32) *entity.Entity {
	e := w.entities.Get(id)
	if e == nil || e.Type() != entity.TypeBot {
		return nil
	}
	w.entities.Remove(id)
	return e
}

// EntitiesVisibleTo returns conn's player and everything on its level.
func (w *World) EntitiesVisibleTo(conn network.ConnID) []modelsync.EntityRef {
	p := w.Player(conn)
	if p == nil {
		return nil
	}
	refs := []modelsync.EntityRef{p}
	level := p.Level()
	if level == "" {
		return refs
	}
	for _, e := range w.entities.OnLevel(level) {
		if e.ID() != p.ID() {
			refs = append(refs, e)
		}
	}
	return refs
}

// Entities returns every entity.
func (w *World) Entities() []modelsync.EntityRef {
	all := w.entities.All()
	refs := make([]modelsync.EntityRef, len(all))
	for i, e := range all {
		refs[i] = e
	}
	return refs
}

// ConnectionsSeeing returns the connections whose view includes the entity:
// its owner plus every player on its level.
func (w *World) ConnectionsSeeing(id uint32) []network.ConnID {
	e := w.entities.Get(id)
	if e == nil {
		return nil
	}
	level := e.Level()

	w.mu.RLock()
	var conns []network.ConnID
	for conn, p := range w.players {
		if p.ID() == id || (level != "" && p.Level() == level) {
			conns = append(conns, conn)
		}
	}
	w.mu.RUnlock()

	sort.Slice(conns, func(i, j int) bool { return conns[i] < conns[j] })
	return conns
}

// RefreshEntity asks the refresh handler to respawn e for its observers.
func (w *World) RefreshEntity(ref modelsync.EntityRef) {
	e := w.entities.Get(ref.ID())
	if e == nil {
		return
	}
	w.mu.RLock()
	fn := w.onRefresh
	w.mu.RUnlock()
	if fn != nil {
		fn(e, w.ConnectionsSeeing(e.ID()))
	}
}
