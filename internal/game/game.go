// Package game wires the model library, skin probing, the world and the
// model sync engine into one service.
package game

import (
	"errors"
	"fmt"
	"net"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/assets"
	"github.com/Faultbox/ccmodels/internal/config"
	"github.com/Faultbox/ccmodels/internal/game/entity"
	"github.com/Faultbox/ccmodels/internal/game/world"
	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/internal/modelconfig"
	"github.com/Faultbox/ccmodels/internal/modelsync"
	"github.com/Faultbox/ccmodels/internal/network"
	"github.com/Faultbox/ccmodels/internal/skin"
)

// ErrUnknownBot is returned by Despawn for ids that aren't spawned bots.
var ErrUnknownBot = errors.New("unknown bot")

// Game is the running service.
type Game struct {
	cfg       *config.Config
	library   *modelconfig.Library
	probe     *skin.MemoizedProbe
	resolver  *modelsync.Resolver
	engine    *modelsync.Engine
	transport *network.ConnTransport
	world     *world.World
}

// New opens the model stores and builds the service from cfg.
func New(cfg *config.Config) (*Game, error) {
	configs, err := modelconfig.NewFileStore(cfg.Models.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening model configs: %w", err)
	}
	scenes, err := assets.NewDirStore(cfg.Models.AssetDir, cfg.Models.CacheAssets)
	if err != nil {
		return nil, fmt.Errorf("opening scene documents: %w", err)
	}
	fallback, err := skin.ParseSkinType(cfg.Skins.Fallback)
	if err != nil {
		return nil, fmt.Errorf("skins.fallback: %w", err)
	}

	fetcher := skin.NewHTTPFetcher(cfg.Skins.URLTemplate, cfg.Skins.FetchTimeout, cfg.Skins.MaxBytes)
	fetcher.AllowURLs = true
	g := &Game{
		cfg: cfg,
		library: &modelconfig.Library{
			Configs: configs,
			Assets:  scenes,
			Limits:  model.Limits{MaxParts: cfg.Protocol.MaxParts, MaxAnims: cfg.Protocol.MaxAnims},
		},
		probe: skin.NewMemoizedProbe(fetcher, skin.ProbeOptions{
			TTL:          cfg.Skins.ProbeTTL,
			FetchTimeout: cfg.Skins.FetchTimeout,
			Fallback:     fallback,
		}),
		transport: network.NewConnTransport(0),
		world:     world.New(),
	}
	g.resolver = modelsync.NewResolver(g.library, g.probe)
	g.engine = modelsync.NewEngine(modelsync.Deps{
		Resolver:   g.resolver,
		Transport:  g.transport,
		Visibility: g.world,
		Directory:  g.world,
		Refresher:  g.world,
	}, modelsync.Options{
		MaxSlots:     cfg.Protocol.MaxSlots,
		PartsVersion: cfg.Protocol.PartsVersion,
	})

	g.world.SetRefreshHandler(g.refresh)
	// Closing may be reported from inside a sync holding session locks.
	g.transport.SetCloseHandler(func(id network.ConnID) {
		go g.Leave(id)
	})
	return g, nil
}

// Library returns the model library.
func (g *Game) Library() *modelconfig.Library {
	return g.library
}

// Skins returns the skin probe.
func (g *Game) Skins() *skin.MemoizedProbe {
	return g.probe
}

// World returns the world.
func (g *Game) World() *world.World {
	return g.world
}

// Transport returns the connection transport.
func (g *Game) Transport() *network.ConnTransport {
	return g.transport
}

// Engine returns the model sync engine.
func (g *Game) Engine() *modelsync.Engine {
	return g.engine
}

// ValidateAll builds every stored model, logging each failure.
func (g *Game) ValidateAll() error {
	names, err := g.library.Configs.List()
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}

	var errs error
	for _, name := range names {
		if _, _, err := g.library.Build(modelconfig.ParseModelName(name)); err != nil {
			logger.Warn("stored model is invalid", zap.String("model", name), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	logger.Info("validated stored models", zap.Int("count", len(names)))
	return errs
}

// Accept registers a client connection.
func (g *Game) Accept(conn net.Conn) network.ConnID {
	return g.transport.Add(conn)
}

// Join spawns the player for id and defines what it can see.
func (g *Game) Join(id network.ConnID, name, level string, partsVersion int) (*entity.Entity, error) {
	p, err := g.world.Join(id, name, level)
	if err != nil {
		return nil, err
	}
	g.engine.Connect(id, partsVersion)
	return p, g.engine.OnEntityChanged(p)
}

// Leave removes id's player and resyncs whoever could see it.
func (g *Game) Leave(id network.ConnID) error {
	p := g.world.Player(id)
	if p == nil {
		g.transport.Remove(id)
		return world.ErrNotJoined
	}
	observers := g.world.ConnectionsSeeing(p.ID())

	if _, err := g.world.Leave(id); err != nil {
		return err
	}
	g.engine.Disconnect(id)
	g.resolver.CancelProbe(p.ID())
	g.transport.Remove(id)
	return g.syncConns(observers)
}

// SetModel changes the model of id's player.
func (g *Game) SetModel(id network.ConnID, name string) error {
	p := g.world.Player(id)
	if p == nil {
		return world.ErrNotJoined
	}
	p.SetModel(name)
	return g.engine.OnEntityChanged(p)
}

// SetSkin changes the skin of id's player and forgets its old layout.
func (g *Game) SetSkin(id network.ConnID, skinName string) error {
	p := g.world.Player(id)
	if p == nil {
		return world.ErrNotJoined
	}
	g.resolver.CancelProbe(p.ID())
	p.SetSkin(skinName)
	g.engine.InvalidateSkin(p.SkinName())
	return g.engine.OnEntityChanged(p)
}

// SetLevel moves id's player, resyncing observers on both levels.
func (g *Game) SetLevel(id network.ConnID, level string) error {
	p := g.world.Player(id)
	if p == nil {
		return world.ErrNotJoined
	}
	before := g.world.ConnectionsSeeing(p.ID())
	p.SetLevel(level)
	return g.syncConns(append(before, g.world.ConnectionsSeeing(p.ID())...))
}

// SpawnBot adds a bot showing modelName on level and defines its model for
// the connections that can see it.
func (g *Game) SpawnBot(name, level, modelName string) (*entity.Entity, error) {
	b := g.world.SpawnBot(name, level)
	b.SetModel(modelName)
	return b, g.engine.OnEntityChanged(b)
}

// Despawn removes a bot and resyncs the connections that could see it.
func (g *Game) Despawn(id uint32) error {
	observers := g.world.ConnectionsSeeing(id)
	if g.world.Despawn(id) == nil {
		return ErrUnknownBot
	}
	g.resolver.CancelProbe(id)
	return g.syncConns(observers)
}

// Upload stores a scene document and pushes the new model to every
// connection showing it.
func (g *Game) Upload(name string, data []byte) ([]string, error) {
	warnings, err := g.library.Upload(name, data)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out, g.engine.CheckUpdateAll(name)
}

// Reload re-reads a stored model after an edit.
func (g *Game) Reload(name string) error {
	return g.engine.CheckUpdateAll(name)
}

// Close disconnects everything.
func (g *Game) Close() {
	logger.Info("closing game")
	g.transport.Close()
	g.engine.Close()
}

func (g *Game) refresh(e *entity.Entity, observers []network.ConnID) {
	logger.Debug("refreshing entity", zap.Uint32("entity", e.ID()), zap.String("model", e.CurrentModelName()))
	if err := g.syncConns(observers); err != nil {
		logger.Warn("refresh incomplete", zap.Uint32("entity", e.ID()), zap.Error(err))
	}
}

func (g *Game) syncConns(conns []network.ConnID) error {
	sort.Slice(conns, func(i, j int) bool { return conns[i] < conns[j] })
	var errs error
	for i, conn := range conns {
		if i > 0 && conn == conns[i-1] {
			continue
		}
		err := g.engine.Sync(conn)
		if errors.Is(err, modelsync.ErrUnknownConnection) {
			continue
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}
