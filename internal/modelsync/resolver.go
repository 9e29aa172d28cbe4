package modelsync

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/logger"
	"github.com/Faultbox/ccmodels/internal/model"
	"github.com/Faultbox/ccmodels/internal/modelconfig"
	"github.com/Faultbox/ccmodels/internal/skin"
)

// Resolver decides which custom model an entity displays and caches the
// compiled result per fully-qualified name.
type Resolver struct {
	models ModelSource
	probe  SkinProbe
	prober *skin.EntityProber[uint32]

	// onProbed runs after a background skin probe for an entity lands.
	onProbed func(EntityRef)

	mu       sync.Mutex
	configs  map[string]*modelconfig.StoredModelConfig
	compiled map[string]*compiledModel
}

type compiledModel struct {
	header *model.CompiledModel
	parts  []model.Part
}

// NewResolver creates a resolver. probe may be nil to skip skin layouts.
func NewResolver(models ModelSource, probe SkinProbe) *Resolver {
	r := &Resolver{
		models:   models,
		probe:    probe,
		configs:  make(map[string]*modelconfig.StoredModelConfig),
		compiled: make(map[string]*compiledModel),
	}
	if probe != nil {
		r.prober = skin.NewEntityProber[uint32](probe)
	}
	return r
}

// DisplayName returns the fully-qualified custom model name e shows, or
// false if its model isn't a stored custom model. A skin layout modifier is
// added for models drawn with a human skin; if the skin isn't classified yet
// a background probe is started and the name is returned without one.
func (r *Resolver) DisplayName(e EntityRef) (string, bool) {
	name := modelconfig.ParseModelName(e.CurrentModelName())
	cfg, ok := r.config(name.Base)
	if !ok {
		return "", false
	}
	if !cfg.UsesHumanSkin || r.probe == nil || name.Has(model.ModAlex) || name.Has(model.ModSteve) {
		return name.String(), true
	}

	skinName := e.SkinName()
	if skinName == "" {
		skinName = cfg.DefaultSkin
	}
	if skinName == "" {
		return name.String(), true
	}

	if t, ok := r.probe.GetCached(skinName); ok {
		if mod := t.Modifier(); mod != "" {
			name = name.WithModifiers(mod)
		}
		return name.String(), true
	}

	rev := e.Revision()
	r.prober.Spawn(e.ID(), skinName,
		func() bool { return e.Revision() == rev },
		func(skin.SkinType) {
			// A failed probe isn't cached; resyncing would only probe again.
			if _, ok := r.probe.GetCached(skinName); ok && r.onProbed != nil {
				r.onProbed(e)
			}
		})
	return name.String(), true
}

func (r *Resolver) config(base string) (*modelconfig.StoredModelConfig, bool) {
	r.mu.Lock()
	cfg, ok := r.configs[base]
	r.mu.Unlock()
	if ok {
		return cfg, cfg != nil
	}

	if r.models.Exists(base) {
		var err error
		cfg, err = r.models.Load(base)
		if err != nil {
			logger.Warn("loading model config failed", zap.String("model", base), zap.Error(err))
			return nil, false
		}
	}

	// Misses are cached too so built-in model names don't hit storage.
	r.mu.Lock()
	r.configs[base] = cfg
	r.mu.Unlock()
	return cfg, cfg != nil
}

// Compile returns the header and parts for a fully-qualified name.
func (r *Resolver) Compile(fullName string) (*model.CompiledModel, []model.Part, error) {
	r.mu.Lock()
	c, ok := r.compiled[fullName]
	r.mu.Unlock()
	if ok {
		return c.header, c.parts, nil
	}

	header, parts, err := r.models.Build(modelconfig.ParseModelName(fullName))
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	r.compiled[fullName] = &compiledModel{header: header, parts: parts}
	r.mu.Unlock()
	return header, parts, nil
}

// Invalidate forgets the config and every compiled variant of base.
func (r *Resolver) Invalidate(base string) {
	base = modelconfig.ParseModelName(base).Base

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, base)
	for name := range r.compiled {
		if modelconfig.ParseModelName(name).Base == base {
			delete(r.compiled, name)
		}
	}
}

// CancelProbe stops any background skin probe for the entity.
func (r *Resolver) CancelProbe(entityID uint32) {
	if r.prober != nil {
		r.prober.Cancel(entityID)
	}
}

// Wait blocks until background skin probes have finished.
func (r *Resolver) Wait() {
	if r.prober != nil {
		r.prober.Wait()
	}
}

// Close cancels background skin probes.
func (r *Resolver) Close() {
	if r.prober != nil {
		r.prober.Close()
	}
}
