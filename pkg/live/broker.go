// Package live implements the push side of the query contract: mutations
// publish invalidation topics, subscribed queries are re-evaluated against
// the store after commit, and fresh snapshots are pushed to subscribers.
// Delivered results are always whole post-commit snapshots, never torn.
package live

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"pairchat/pkg/logger"
	"pairchat/pkg/metrics"
)

// Topic constructors. A query subscribes to every topic whose records it
// reads; a mutation publishes every topic whose records it wrote.
func TopicConversation(convID string) string { return "conv:" + convID }
func TopicUser(userID string) string         { return "user:" + userID }

// TopicPresence covers the global presence set.
const TopicPresence = "presence"

// Query re-evaluates a subscribed read against the store. It runs on the
// dispatcher goroutine after the triggering mutation has committed.
type Query func() (any, error)

type subscription struct {
	id      uint64
	topics  map[string]struct{}
	refresh bool
	query   Query
	ch      chan []byte
}

// Broker owns the subscription registry and the dispatcher draining the
// invalidation queue. Window-derived queries (typing, presence) also get
// re-evaluated on a fixed tick, since aging out of a window has no mutation
// edge to publish.
type Broker struct {
	mu    sync.Mutex
	subs  map[uint64]*subscription
	queue *Queue

	refreshEvery time.Duration
	nextID       uint64
	done         chan struct{}
	stopOnce     sync.Once
}

// NewBroker builds a broker with the given queue capacity and refresh tick.
func NewBroker(queueCapacity int, refreshEvery time.Duration) *Broker {
	if refreshEvery <= 0 {
		refreshEvery = time.Second
	}
	return &Broker{
		subs:         make(map[uint64]*subscription),
		queue:        NewQueue(queueCapacity),
		refreshEvery: refreshEvery,
		done:         make(chan struct{}),
	}
}

// Start launches the dispatcher goroutine.
func (b *Broker) Start() {
	go b.dispatch()
}

// Stop terminates the dispatcher. Subscriber channels are left to drain;
// no further pushes are attempted.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// Publish enqueues an invalidation event for the given topics. The mutation
// has already committed when Publish runs; a full queue only costs a push,
// subscribers converge on the next event or tick.
func (b *Broker) Publish(topics ...string) {
	if err := b.queue.TryEnqueue(topics...); err != nil {
		metrics.LiveEventsDropped.Inc()
		logger.Warn("live_queue_full", "topics", len(topics))
		return
	}
	metrics.LiveEventsPublished.Inc()
}

// Subscribe registers a query against a topic set and returns its snapshot
// channel. The first snapshot is evaluated and pushed before Subscribe
// returns, so a subscriber always starts from current state. refresh marks
// window-derived queries that must also re-evaluate on the tick. The
// subscription is torn down when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, topics []string, refresh bool, q Query) (<-chan []byte, error) {
	sub := &subscription{
		id:      atomic.AddUint64(&b.nextID, 1),
		topics:  make(map[string]struct{}, len(topics)),
		refresh: refresh,
		query:   q,
		ch:      make(chan []byte, 1),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	// register before the first evaluation: a mutation committed while the
	// initial snapshot is being computed must already match this
	// subscription and trigger a re-evaluation.
	b.mu.Lock()
	b.subs[sub.id] = sub
	n := len(b.subs)
	b.mu.Unlock()
	metrics.LiveSubscriptions.Set(float64(n))

	first, err := evaluate(q)
	if err != nil {
		b.unsubscribe(sub.id)
		return nil, err
	}
	// non-blocking: if the dispatcher already delivered a fresher snapshot,
	// keep that one
	select {
	case sub.ch <- first:
	default:
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.unsubscribe(sub.id)
	}()
	return sub.ch, nil
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	n := len(b.subs)
	b.mu.Unlock()
	metrics.LiveSubscriptions.Set(float64(n))
}

func (b *Broker) dispatch() {
	tick := time.NewTicker(b.refreshEvery)
	defer tick.Stop()
	for {
		select {
		case <-b.done:
			return
		case it := <-b.queue.Out():
			topics := it.Event.Topics()
			it.Done()
			b.fanout(func(s *subscription) bool {
				for _, t := range topics {
					if _, ok := s.topics[t]; ok {
						return true
					}
				}
				return false
			})
		case <-tick.C:
			b.fanout(func(s *subscription) bool { return s.refresh })
		}
	}
}

// fanout re-evaluates every subscription the predicate selects and pushes
// the fresh snapshot, latest-wins.
func (b *Broker) fanout(match func(*subscription) bool) {
	b.mu.Lock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if match(s) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		start := time.Now()
		data, err := evaluate(s.query)
		if err != nil {
			logger.Error("live_query_eval_failed", "sub", s.id, "error", err)
			continue
		}
		metrics.LiveEvalSeconds.Observe(time.Since(start).Seconds())
		push(s.ch, data)
	}
}

func evaluate(q Query) ([]byte, error) {
	v, err := q()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// push delivers latest-wins: a slow subscriber's stale snapshot is replaced
// rather than blocking the dispatcher.
func push(ch chan []byte, data []byte) {
	for {
		select {
		case ch <- data:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Default is the process-wide broker, installed at startup.
var Default *Broker

// SetDefault installs the process-wide broker.
func SetDefault(b *Broker) { Default = b }

// Publish publishes on the default broker when one is installed. Mutation
// sites call this unconditionally; before startup wiring it is a no-op.
func Publish(topics ...string) {
	if Default != nil {
		Default.Publish(topics...)
	}
}
