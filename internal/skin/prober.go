package skin

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/logger"
)

// Prober resolves a skin to its layout.
type Prober interface {
	Get(ctx context.Context, skin string) SkinType
}

// EntityProber runs at most one background probe per entity. Spawning a
// new probe for an entity cancels the previous one.
type EntityProber[K comparable] struct {
	probe Prober

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks map[K]*probeTask
	wg    sync.WaitGroup
}

type probeTask struct {
	cancel context.CancelFunc
}

// NewEntityProber creates a prober resolving through probe.
func NewEntityProber[K comparable](probe Prober) *EntityProber[K] {
	ctx, cancel := context.WithCancel(context.Background())
	return &EntityProber[K]{
		probe:  probe,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[K]*probeTask),
	}
}

// Spawn probes skin for entity in the background. When the probe finishes,
// apply is called with the result unless the task was cancelled or
// stillCurrent reports that the entity has moved on since the spawn.
func (p *EntityProber[K]) Spawn(entity K, skin string, stillCurrent func() bool, apply func(SkinType)) {
	ctx, cancel := context.WithCancel(p.ctx)
	task := &probeTask{cancel: cancel}

	p.mu.Lock()
	if prev, ok := p.tasks[entity]; ok {
		prev.cancel()
	}
	p.tasks[entity] = task
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer p.finish(entity, task)

		if ctx.Err() != nil {
			return
		}
		t := p.probe.Get(ctx, skin)
		if ctx.Err() != nil {
			return
		}
		if !stillCurrent() {
			logger.Debug("discarding stale skin probe", zap.String("skin", skin))
			return
		}
		apply(t)
	}()
}

func (p *EntityProber[K]) finish(entity K, task *probeTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tasks[entity] == task {
		delete(p.tasks, entity)
	}
	task.cancel()
}

// Cancel stops any in-flight probe for entity.
func (p *EntityProber[K]) Cancel(entity K) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if task, ok := p.tasks[entity]; ok {
		task.cancel()
		delete(p.tasks, entity)
	}
}

// Pending returns the number of probes not yet finished.
func (p *EntityProber[K]) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// Wait blocks until all spawned probes have returned.
func (p *EntityProber[K]) Wait() {
	p.wg.Wait()
}

// Close cancels every probe and waits for them.
func (p *EntityProber[K]) Close() {
	p.cancel()
	p.wg.Wait()
}
