package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/connectivity"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/workers"
	"github.com/MKhiriev/go-farm-sync/models"
)

type pollFunc[E models.Syncable] func(ctx context.Context, q models.Query) ([]E, error)

// listenerRegistry runs at most one poller per query signature and fans its
// snapshots out to every subscriber of that query.
type listenerRegistry[E models.Syncable] struct {
	poll     pollFunc[E]
	online   connectivity.Connectivity
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	pollers map[string]*poller[E]
	closed  bool
}

func newListenerRegistry[E models.Syncable](poll pollFunc[E], online connectivity.Connectivity, interval time.Duration, logger *logger.Logger) *listenerRegistry[E] {
	return &listenerRegistry[E]{
		poll:     poll,
		online:   online,
		interval: interval,
		logger:   logger,
		pollers:  make(map[string]*poller[E]),
	}
}

// subscribe returns a channel of snapshots for q and the func that ends the
// subscription. The channel holds only the latest undelivered snapshot and is
// closed when the subscription ends.
func (l *listenerRegistry[E]) subscribe(q models.Query) (<-chan models.Result[[]E], func()) {
	sig := q.Signature()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		ch := make(chan models.Result[[]E])
		close(ch)
		return ch, func() {}
	}

	p, ok := l.pollers[sig]
	if !ok {
		p = newPoller(q, l.poll, l.online, l.interval, l.logger)
		l.pollers[sig] = p
		p.ticker.Start(context.Background())
	}

	id, ch := p.add()

	var once sync.Once
	return ch, func() {
		once.Do(func() { l.unsubscribe(sig, p, id) })
	}
}

func (l *listenerRegistry[E]) unsubscribe(sig string, p *poller[E], id uint64) {
	l.mu.Lock()
	last := p.remove(id) == 0 && l.pollers[sig] == p
	if last {
		delete(l.pollers, sig)
	}
	l.mu.Unlock()

	if last {
		p.ticker.Stop()
	}
}

// active reports the number of running pollers.
func (l *listenerRegistry[E]) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pollers)
}

// Close stops every poller and ends every subscription. Later subscriptions
// end immediately.
func (l *listenerRegistry[E]) Close() {
	l.mu.Lock()
	l.closed = true
	pollers := l.pollers
	l.pollers = make(map[string]*poller[E])
	l.mu.Unlock()

	for _, p := range pollers {
		p.ticker.Stop()
		p.closeAll()
	}
}

// poller polls one query and publishes changed snapshots.
type poller[E models.Syncable] struct {
	query  models.Query
	poll   pollFunc[E]
	online connectivity.Connectivity
	ticker *workers.Ticker

	mu     sync.Mutex
	subs   map[uint64]chan models.Result[[]E]
	nextID uint64
	last   string
	latest *models.Result[[]E]
}

func newPoller[E models.Syncable](q models.Query, poll pollFunc[E], online connectivity.Connectivity, interval time.Duration, logger *logger.Logger) *poller[E] {
	p := &poller[E]{
		query:  q,
		poll:   poll,
		online: online,
		subs:   make(map[uint64]chan models.Result[[]E]),
	}
	p.ticker = workers.NewTicker("listener:"+q.Collection, interval, true, p.tick, logger)
	return p
}

func (p *poller[E]) tick(ctx context.Context) {
	if !p.online.IsOnline() {
		return
	}

	items, err := p.poll(ctx, p.query)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).
			Str("func", "poller.tick").
			Str("collection", p.query.Collection).
			Msg("live query poll failed")
		p.publish("error:"+err.Error(), models.Failure[[]E](err, models.SourceRemote))
		return
	}

	p.publish(snapshotKey(items), models.Success(items, models.SourceRemote))
}

// publish delivers res to every subscriber unless it repeats the previous
// snapshot. A subscriber that has not consumed the previous snapshot gets it
// replaced.
func (p *poller[E]) publish(key string, res models.Result[[]E]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key == p.last {
		return
	}
	p.last = key
	p.latest = &res

	for _, ch := range p.subs {
		replaceLatest(ch, res)
	}
}

func (p *poller[E]) add() (uint64, <-chan models.Result[[]E]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	ch := make(chan models.Result[[]E], 1)
	p.subs[p.nextID] = ch
	if p.latest != nil {
		ch <- *p.latest
	}

	return p.nextID, ch
}

// remove ends one subscription and returns how many are left.
func (p *poller[E]) remove(id uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ch, ok := p.subs[id]; ok {
		close(ch)
		delete(p.subs, id)
	}
	return len(p.subs)
}

func (p *poller[E]) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

// replaceLatest sends res without blocking, dropping an unread value first.
// Only the owning poller sends on ch, under its mutex.
func replaceLatest[T any](ch chan T, res T) {
	select {
	case ch <- res:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- res
}

func snapshotKey[E any](items []E) string {
	raw, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
