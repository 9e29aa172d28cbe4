package modelsync

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/modelconfig"
	"github.com/Faultbox/ccmodels/internal/network/packets"
)

// ErrUnknownConnection is returned for connections that never connected or
// have disconnected.
var ErrUnknownConnection = errors.New("unknown connection")

// Session is the model state of one connection. A name is bound in slots
// exactly while it is defined on the client.
type Session struct {
	mu           sync.Mutex
	partsVersion int
	slots        *SlotAllocator
}

// Options configures an Engine.
type Options struct {
	MaxSlots     int
	PartsVersion int // default part encoding for new connections
}

// Engine synchronizes every connection's defined models with what it can
// see.
type Engine struct {
	resolver   *Resolver
	codec      PacketCodec
	transport  Transport
	visibility VisibilityProvider
	directory  EntityDirectory
	refresher  EntityRefresher
	opts       Options

	mu       sync.RWMutex
	sessions map[ConnID]*Session
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Resolver   *Resolver
	Codec      PacketCodec
	Transport  Transport
	Visibility VisibilityProvider
	Directory  EntityDirectory
	Refresher  EntityRefresher
}

// NewEngine creates an engine. Skin probes landing in the background
// trigger a resync of the connections seeing the probed entity.
func NewEngine(deps Deps, opts Options) *Engine {
	if opts.MaxSlots <= 0 || opts.MaxSlots > packets.MaxSlots {
		opts.MaxSlots = packets.MaxSlots
	}
	if opts.PartsVersion == 0 {
		opts.PartsVersion = packets.PartsV2
	}
	if deps.Codec == nil {
		deps.Codec = WireCodec{}
	}

	e := &Engine{
		resolver:   deps.Resolver,
		codec:      deps.Codec,
		transport:  deps.Transport,
		visibility: deps.Visibility,
		directory:  deps.Directory,
		refresher:  deps.Refresher,
		opts:       opts,
		sessions:   make(map[ConnID]*Session),
	}
	e.resolver.onProbed = func(ent EntityRef) {
		if err := e.OnEntityChanged(ent); err != nil {
			logger.Warn("resync after skin probe failed", zap.Uint32("entity", ent.ID()), zap.Error(err))
		}
	}
	return e
}

// Connect starts tracking conn with nothing defined. partsVersion selects
// the part encoding the client supports; 0 uses the default.
func (e *Engine) Connect(conn ConnID, partsVersion int) {
	if partsVersion == 0 {
		partsVersion = e.opts.PartsVersion
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[conn] = &Session{
		partsVersion: partsVersion,
		slots:        NewSlotAllocator(e.opts.MaxSlots),
	}
}

// Disconnect drops conn's state. Nothing is sent.
func (e *Engine) Disconnect(conn ConnID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, conn)
}

func (e *Engine) session(conn ConnID) *Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions[conn]
}

func (e *Engine) connections() []ConnID {
	e.mu.RLock()
	conns := make([]ConnID, 0, len(e.sessions))
	for conn := range e.sessions {
		conns = append(conns, conn)
	}
	e.mu.RUnlock()
	sort.Slice(conns, func(i, j int) bool { return conns[i] < conns[j] })
	return conns
}

// SentModels returns the names currently defined on conn, sorted.
func (e *Engine) SentModels(conn ConnID) []string {
	s := e.session(conn)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots.Names()
}

func (e *Engine) visibleModels(conn ConnID) map[string]struct{} {
	visible := make(map[string]struct{})
	for _, ent := range e.visibility.EntitiesVisibleTo(conn) {
		if name, ok := e.resolver.DisplayName(ent); ok {
			visible[name] = struct{}{}
		}
	}
	return visible
}

// Sync defines every visible model conn lacks, then undefines every model
// it no longer sees. A model that fails to define is skipped and reported;
// the rest of the pass still runs.
func (e *Engine) Sync(conn ConnID) error {
	s := e.session(conn)
	if s == nil {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, conn)
	}

	// Resolve under the session lock so a sync triggered by a landed skin
	// probe can't be overtaken by one holding an older view.
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := e.visibleModels(conn)

	var toDefine, toUndefine []string
	for name := range visible {
		if !s.slots.Has(name) {
			toDefine = append(toDefine, name)
		}
	}
	for _, name := range s.slots.Names() {
		if _, ok := visible[name]; !ok {
			toUndefine = append(toUndefine, name)
		}
	}
	sort.Strings(toDefine)

	var errs error
	for _, name := range toDefine {
		errs = multierr.Append(errs, e.define(conn, s, name))
	}
	for _, name := range toUndefine {
		e.undefine(conn, s, name)
	}

	if errs != nil {
		logger.Warn("model sync incomplete", zap.Uint32("conn", uint32(conn)), zap.Error(errs))
	}
	return errs
}

// define compiles name before taking a slot so a failed build leaves the
// session untouched. Caller holds s.mu.
func (e *Engine) define(conn ConnID, s *Session, name string) error {
	header, parts, err := e.resolver.Compile(name)
	if err != nil {
		return fmt.Errorf("define %s: %w", name, err)
	}
	id, err := s.slots.Allocate(name)
	if err != nil {
		return err
	}

	e.transport.Send(conn, e.codec.EncodeDefineModel(id, header))
	for i := range parts {
		e.transport.Send(conn, e.codec.EncodeDefineModelPart(id, &parts[i], s.partsVersion))
	}
	logger.Debug("model defined",
		zap.Uint32("conn", uint32(conn)),
		zap.String("model", name),
		zap.Uint8("slot", id),
		zap.Int("parts", len(parts)))
	return nil
}

// undefine releases name's slot; unbound names are ignored. Caller holds s.mu.
func (e *Engine) undefine(conn ConnID, s *Session, name string) {
	id, ok := s.slots.Release(name)
	if !ok {
		return
	}
	e.transport.Send(conn, e.codec.EncodeUndefineModel(id))
	logger.Debug("model undefined",
		zap.Uint32("conn", uint32(conn)),
		zap.String("model", name),
		zap.Uint8("slot", id))
}

// SyncAll syncs every connection.
func (e *Engine) SyncAll() error {
	var errs error
	for _, conn := range e.connections() {
		errs = multierr.Append(errs, e.Sync(conn))
	}
	return errs
}

// OnEntityChanged resyncs every connection that can see ent. Call it after
// spawns and model or skin changes. A despawned or moved entity is no longer
// seen by its former observers; resync those with Sync.
func (e *Engine) OnEntityChanged(ent EntityRef) error {
	var errs error
	for _, conn := range e.directory.ConnectionsSeeing(ent.ID()) {
		err := e.Sync(conn)
		if errors.Is(err, ErrUnknownConnection) {
			continue
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

// CheckUpdateAll applies a change to the stored model base: every variant
// of it is undefined wherever it is defined, those connections are synced
// again, and entities showing it are refreshed.
func (e *Engine) CheckUpdateAll(base string) error {
	base = modelconfig.ParseModelName(base).Base
	e.resolver.Invalidate(base)

	var errs error
	for _, conn := range e.connections() {
		s := e.session(conn)
		if s == nil {
			continue
		}

		s.mu.Lock()
		held := false
		for _, name := range s.slots.Names() {
			if modelconfig.ParseModelName(name).Base == base {
				e.undefine(conn, s, name)
				held = true
			}
		}
		s.mu.Unlock()

		if held {
			errs = multierr.Append(errs, e.Sync(conn))
		}
	}

	if e.refresher != nil {
		for _, ent := range e.directory.Entities() {
			if modelconfig.ParseModelName(ent.CurrentModelName()).Base == base {
				e.refresher.RefreshEntity(ent)
			}
		}
	}

	logger.Info("model updated", zap.String("model", base))
	return errs
}

// InvalidateSkin forgets the classification of skin, for when a player
// changes it. The next sync probes it again.
func (e *Engine) InvalidateSkin(skinName string) {
	if e.resolver.probe != nil {
		e.resolver.probe.Invalidate(skinName)
	}
}

// Close stops background skin probes.
func (e *Engine) Close() {
	e.resolver.Close()
}
