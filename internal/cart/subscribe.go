package cart

import (
	"context"
	"sync"
)

type subscriber struct {
	mu     sync.Mutex
	ch     chan Snapshot
	last   uint64
	closed bool
}

// offer never blocks: a subscriber that has not consumed the previous snapshot gets it
// replaced by the newer one.
func (sub *subscriber) offer(snap Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed || (sub.last != 0 && snap.Version <= sub.last) {
		return
	}
	sub.last = snap.Version
	select {
	case sub.ch <- snap:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

func (sub *subscriber) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

// Subscribe delivers the current snapshot and then every newer one until ctx is done,
// when the channel is closed. Readers that fall behind only see the latest snapshot.
func (s *Store) Subscribe(ctx context.Context) <-chan Snapshot {
	sub := &subscriber{ch: make(chan Snapshot, 1)}

	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	sub.offer(s.Snapshot())
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, sub)
		s.subsMu.Unlock()
		sub.close()
	}()
	return sub.ch
}

// Subscribers reports how many subscriptions are active.
func (s *Store) Subscribers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

func (s *Store) publish(snap Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		sub.offer(snap)
	}
}
