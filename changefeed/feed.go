// Package changefeed fans a collection's change notifications out to many
// subscribers. Each watched collection holds at most one upstream stream,
// opened lazily on the first subscriber and shared from then on; every
// subscriber sees only the events its predicate matches, on a private
// channel it can cancel without disturbing anyone else.
package changefeed

import (
	"context"
	"log"
	"sync"

	"thangd/store"
)

// subscriber channels are bounded; a consumer that stops draining is
// detached rather than allowed to stall the shared loop.
const subscriberBuffer = 64

// Predicate filters raw upstream events per subscriber.
type Predicate func(store.Change) bool

type Subscription struct {
	feed *Feed
	pred Predicate
	ch   chan store.Change
}

// Events yields the filtered change sequence. The channel closes on Cancel,
// on upstream failure, or when the subscriber falls too far behind.
func (s *Subscription) Events() <-chan store.Change {
	return s.ch
}

// Cancel detaches the subscription. Synchronous: once it returns no further
// event is delivered. Safe to call twice; never affects the shared upstream.
func (s *Subscription) Cancel() {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	if _, ok := s.feed.subs[s]; ok {
		delete(s.feed.subs, s)
		close(s.ch)
	}
}

// Feed is the shared fan-out point for one collection.
type Feed struct {
	st   store.Store
	coll store.Collection

	once     sync.Once
	startErr error

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewFeed(st store.Store, coll store.Collection) *Feed {
	return &Feed{st: st, coll: coll, subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a predicate-filtered listener, opening the upstream
// stream on first use. A predicate that can never match (unknown target id)
// is not an error; the sequence just stays silent.
func (f *Feed) Subscribe(pred Predicate) (*Subscription, error) {
	f.once.Do(f.start)
	if f.startErr != nil {
		return nil, f.startErr
	}
	sub := &Subscription{feed: f, pred: pred, ch: make(chan store.Change, subscriberBuffer)}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub, nil
}

// start opens the shared upstream. The stream lives for the process; there
// is no reference-counted teardown.
func (f *Feed) start() {
	upstream, err := f.st.Watch(context.Background(), f.coll)
	if err != nil {
		log.Printf("changefeed: open %s upstream: %v", f.coll, err)
		f.startErr = err
		return
	}
	go f.run(upstream)
}

func (f *Feed) run(upstream <-chan store.Change) {
	for c := range upstream {
		f.mu.Lock()
		for sub := range f.subs {
			if !sub.pred(c) {
				continue
			}
			select {
			case sub.ch <- c:
			default:
				log.Printf("changefeed: %s subscriber too slow, detaching", f.coll)
				delete(f.subs, sub)
				close(sub.ch)
			}
		}
		f.mu.Unlock()
	}

	// Upstream gone; release every listener.
	f.mu.Lock()
	for sub := range f.subs {
		delete(f.subs, sub)
		close(sub.ch)
	}
	f.mu.Unlock()
	log.Printf("changefeed: %s upstream closed", f.coll)
}

// Feeds bundles the watched collections.
type Feeds struct {
	Thangs   *Feed
	Bookings *Feed
}

func New(st store.Store) *Feeds {
	return &Feeds{
		Thangs:   NewFeed(st, store.CollThangs),
		Bookings: NewFeed(st, store.CollBookings),
	}
}
