package skin

import (
	"context"
	"sync"
	"testing"
)

// gatedProbe blocks each skin until released or cancelled.
type gatedProbe struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	types map[string]SkinType
}

func newGatedProbe() *gatedProbe {
	return &gatedProbe{gates: make(map[string]chan struct{}), types: make(map[string]SkinType)}
}

func (g *gatedProbe) gate(skin string, t SkinType) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan struct{})
	g.gates[skin] = ch
	g.types[skin] = t
	return ch
}

func (g *gatedProbe) Get(ctx context.Context, skin string) SkinType {
	g.mu.Lock()
	ch, t := g.gates[skin], g.types[skin]
	g.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return SteveLayers
		}
	}
	return t
}

type applied struct {
	mu    sync.Mutex
	types []SkinType
}

func (a *applied) add(t SkinType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types = append(a.types, t)
}

func (a *applied) get() []SkinType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]SkinType(nil), a.types...)
}

func always() bool { return true }

func TestEntityProber_Applies(t *testing.T) {
	probe := newGatedProbe()
	close(probe.gate("bob", Alex))
	p := NewEntityProber[int](probe)
	defer p.Close()

	var got applied
	p.Spawn(1, "bob", always, got.add)
	p.Wait()

	if types := got.get(); len(types) != 1 || types[0] != Alex {
		t.Errorf("expected [alex], got %v", types)
	}
	if p.Pending() != 0 {
		t.Errorf("expected no pending probes, got %d", p.Pending())
	}
}

func TestEntityProber_SupersedesPrevious(t *testing.T) {
	probe := newGatedProbe()
	probe.gate("old", Steve) // never released
	close(probe.gate("new", Alex))
	p := NewEntityProber[int](probe)
	defer p.Close()

	var got applied
	p.Spawn(1, "old", always, got.add)
	p.Spawn(1, "new", always, got.add)
	p.Wait()

	if types := got.get(); len(types) != 1 || types[0] != Alex {
		t.Errorf("expected only the newer probe to apply, got %v", types)
	}
}

func TestEntityProber_IndependentEntities(t *testing.T) {
	probe := newGatedProbe()
	close(probe.gate("a", Alex))
	close(probe.gate("b", Steve))
	p := NewEntityProber[string](probe)
	defer p.Close()

	var got applied
	p.Spawn("one", "a", always, got.add)
	p.Spawn("two", "b", always, got.add)
	p.Wait()

	if types := got.get(); len(types) != 2 {
		t.Errorf("expected both entities to apply, got %v", types)
	}
}

func TestEntityProber_StaleGuard(t *testing.T) {
	probe := newGatedProbe()
	close(probe.gate("bob", Alex))
	p := NewEntityProber[int](probe)
	defer p.Close()

	var got applied
	p.Spawn(1, "bob", func() bool { return false }, got.add)
	p.Wait()

	if types := got.get(); len(types) != 0 {
		t.Errorf("expected stale result to be discarded, got %v", types)
	}
}

func TestEntityProber_Cancel(t *testing.T) {
	probe := newGatedProbe()
	probe.gate("bob", Alex)
	p := NewEntityProber[int](probe)

	var got applied
	p.Spawn(1, "bob", always, got.add)
	p.Cancel(1)
	p.Wait()

	if types := got.get(); len(types) != 0 {
		t.Errorf("expected cancelled probe not to apply, got %v", types)
	}

	p.Spawn(2, "bob", always, got.add)
	p.Close()
	if types := got.get(); len(types) != 0 {
		t.Errorf("expected Close to cancel probes, got %v", types)
	}
}
