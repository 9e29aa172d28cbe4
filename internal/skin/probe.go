package skin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/ccmodels/internal/logger"
)

// Default probe settings.
const (
	DefaultTTL          = time.Hour
	DefaultFetchTimeout = 10 * time.Second
)

// ProbeOptions configures a MemoizedProbe. Zero values take the defaults.
type ProbeOptions struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Fallback     SkinType
	Now          func() time.Time
}

// MemoizedProbe classifies skins through a Fetcher and caches successes for
// a TTL. Concurrent lookups of one skin share a single download.
type MemoizedProbe struct {
	fetcher  Fetcher
	ttl      time.Duration
	timeout  time.Duration
	fallback SkinType
	now      func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*probeEntry
	pending map[string]*struct{} // in-flight fetch tokens, dropped by Invalidate
}

type probeEntry struct {
	skinType SkinType
	expires  time.Time
	timer    *time.Timer
}

// NewMemoizedProbe creates a probe over fetcher.
func NewMemoizedProbe(fetcher Fetcher, opts ProbeOptions) *MemoizedProbe {
	p := &MemoizedProbe{
		fetcher:  fetcher,
		ttl:      opts.TTL,
		timeout:  opts.FetchTimeout,
		fallback: opts.Fallback,
		now:      opts.Now,
		entries:  make(map[string]*probeEntry),
		pending:  make(map[string]*struct{}),
	}
	if p.ttl <= 0 {
		p.ttl = DefaultTTL
	}
	if p.timeout <= 0 {
		p.timeout = DefaultFetchTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Fallback returns the type reported when a skin can't be classified.
func (p *MemoizedProbe) Fallback() SkinType {
	return p.fallback
}

// GetCached returns a cached, unexpired classification without blocking.
func (p *MemoizedProbe) GetCached(skin string) (SkinType, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[skin]
	if !ok {
		return 0, false
	}
	if !p.now().Before(e.expires) {
		p.evictLocked(skin, e)
		return 0, false
	}
	return e.skinType, true
}

// Get returns the classification of skin, downloading it if needed. Fetch
// or decode failures yield the fallback and are not cached. If ctx ends
// first, Get returns the fallback while the shared download carries on.
func (p *MemoizedProbe) Get(ctx context.Context, skin string) SkinType {
	if t, ok := p.GetCached(skin); ok {
		return t
	}

	ch := p.group.DoChan(skin, func() (any, error) {
		return p.load(skin)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return p.fallback
		}
		return res.Val.(SkinType)
	case <-ctx.Done():
		return p.fallback
	}
}

// load runs once per flight. A flight that finished between the caller's
// cache miss and DoChan has already stored the answer.
func (p *MemoizedProbe) load(skin string) (SkinType, error) {
	if t, ok := p.GetCached(skin); ok {
		return t, nil
	}
	return p.fetch(skin)
}

func (p *MemoizedProbe) fetch(skin string) (SkinType, error) {
	token := new(struct{})
	p.mu.Lock()
	p.pending[skin] = token
	p.mu.Unlock()

	// Detached from any one caller so a cancelled waiter doesn't fail the
	// others sharing this download.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	data, err := p.fetcher.Fetch(ctx, skin)
	var t SkinType
	if err == nil {
		t, err = ClassifyBytes(data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.pending[skin] == token
	if current {
		delete(p.pending, skin)
	}

	if err != nil {
		logger.Warn("skin probe failed",
			zap.String("skin", skin),
			zap.Stringer("fallback", p.fallback),
			zap.Error(err))
		return p.fallback, err
	}

	if current {
		p.storeLocked(skin, t)
	}
	logger.Debug("skin classified", zap.String("skin", skin), zap.Stringer("type", t))
	return t, nil
}

func (p *MemoizedProbe) storeLocked(skin string, t SkinType) {
	if old, ok := p.entries[skin]; ok {
		old.timer.Stop()
	}
	e := &probeEntry{skinType: t, expires: p.now().Add(p.ttl)}
	e.timer = time.AfterFunc(p.ttl, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.entries[skin] == e {
			delete(p.entries, skin)
		}
	})
	p.entries[skin] = e
}

func (p *MemoizedProbe) evictLocked(skin string, e *probeEntry) {
	e.timer.Stop()
	delete(p.entries, skin)
}

// Invalidate drops the cached classification of skin. A download already in
// flight still answers its waiters but is not cached.
func (p *MemoizedProbe) Invalidate(skin string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[skin]; ok {
		p.evictLocked(skin, e)
	}
	delete(p.pending, skin)
	p.group.Forget(skin)
}

// Len returns the number of cached entries, expired ones included until
// their timers fire.
func (p *MemoizedProbe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
