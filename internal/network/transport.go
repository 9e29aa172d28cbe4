// Package network delivers encoded packets to connected clients.
package network

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/logger"
)

// ConnID identifies a connection for its lifetime.
type ConnID uint32

// Transport defaults.
const (
	DefaultQueueSize   = 256             // per-connection send queue length
	DefaultSendTimeout = 5 * time.Second // longest a Send waits on a full queue
)

// ConnTransport owns the write side of a set of connections. Sends are
// queued and written in order by one goroutine per connection. A full queue
// makes Send wait for the writer; a write failure, or a queue that stays
// full for the send timeout, closes and unregisters the connection.
type ConnTransport struct {
	mu          sync.RWMutex
	peers       map[ConnID]*peer
	nextID      atomic.Uint32
	queueSize   int
	sendTimeout time.Duration

	onClose func(ConnID)
}

type peer struct {
	id      ConnID
	conn    net.Conn
	sendCh  chan []byte
	closeCh chan struct{}
	once    sync.Once
}

// NewConnTransport creates a transport. queueSize <= 0 uses the default.
func NewConnTransport(queueSize int) *ConnTransport {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &ConnTransport{
		peers:       make(map[ConnID]*peer),
		queueSize:   queueSize,
		sendTimeout: DefaultSendTimeout,
	}
}

// SetSendTimeout sets how long Send waits on a full queue before dropping
// the connection. d <= 0 restores the default.
func (t *ConnTransport) SetSendTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultSendTimeout
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendTimeout = d
}

// SetCloseHandler registers a callback run once for every connection that
// leaves the transport, whether removed or faulted.
func (t *ConnTransport) SetCloseHandler(fn func(ConnID)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClose = fn
}

// Add registers conn and starts its writer.
func (t *ConnTransport) Add(conn net.Conn) ConnID {
	p := &peer{
		id:      ConnID(t.nextID.Add(1)),
		conn:    conn,
		sendCh:  make(chan []byte, t.queueSize),
		closeCh: make(chan struct{}),
	}

	t.mu.Lock()
	t.peers[p.id] = p
	t.mu.Unlock()

	go t.writeLoop(p)
	logger.Debug("connection added", zap.Uint32("conn", uint32(p.id)), zap.Stringer("addr", conn.RemoteAddr()))
	return p.id
}

// Send queues data for id, waiting while the queue is full. Unknown
// connections are ignored.
func (t *ConnTransport) Send(id ConnID, data []byte) {
	t.mu.RLock()
	p, ok := t.peers[id]
	timeout := t.sendTimeout
	t.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case p.sendCh <- data:
		return
	case <-p.closeCh:
		return
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case p.sendCh <- data:
	case <-p.closeCh:
	case <-timer.C:
		logger.Warn("send queue stalled, dropping connection",
			zap.Uint32("conn", uint32(id)),
			zap.Duration("timeout", timeout))
		t.drop(p)
	}
}

// Remove closes and unregisters id.
func (t *ConnTransport) Remove(id ConnID) {
	t.mu.RLock()
	p, ok := t.peers[id]
	t.mu.RUnlock()
	if ok {
		t.drop(p)
	}
}

// Len returns the number of registered connections.
func (t *ConnTransport) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// Close drops every connection.
func (t *ConnTransport) Close() {
	t.mu.RLock()
	peers := make([]*peer, 0, len(t.peers))
	for _, p := range t.peers {
		peers = append(peers, p)
	}
	t.mu.RUnlock()

	for _, p := range peers {
		t.drop(p)
	}
}

func (t *ConnTransport) drop(p *peer) {
	p.once.Do(func() {
		close(p.closeCh)
		p.conn.Close()

		t.mu.Lock()
		delete(t.peers, p.id)
		onClose := t.onClose
		t.mu.Unlock()

		if onClose != nil {
			onClose(p.id)
		}
	})
}

func (t *ConnTransport) writeLoop(p *peer) {
	for {
		select {
		case <-p.closeCh:
			return
		case data := <-p.sendCh:
			if _, err := p.conn.Write(data); err != nil {
				logger.Warn("write failed, dropping connection",
					zap.Uint32("conn", uint32(p.id)),
					zap.Error(err))
				t.drop(p)
				return
			}
		}
	}
}
