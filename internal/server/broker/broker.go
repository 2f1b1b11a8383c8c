// Package broker fans document changes out to watchers in this process.
package broker

import (
	"sync"

	"github.com/dmitrijs2005/ridekeeper/internal/docrpc"
)

type key struct {
	collection string
	id         string
}

type subscriber struct {
	ch chan docrpc.Change
}

// Broker delivers changes per document. A slow subscriber only misses
// intermediate changes: its buffer keeps the newest one.
type Broker struct {
	mu   sync.Mutex
	subs map[key]map[*subscriber]struct{}
}

func New() *Broker {
	return &Broker{subs: make(map[key]map[*subscriber]struct{})}
}

// Subscribe registers for changes to one document. cancel must be called to
// release the subscription; it closes the channel.
func (b *Broker) Subscribe(collection, id string) (<-chan docrpc.Change, func()) {
	k := key{collection, id}
	s := &subscriber{ch: make(chan docrpc.Change, 1)}

	b.mu.Lock()
	if b.subs[k] == nil {
		b.subs[k] = make(map[*subscriber]struct{})
	}
	b.subs[k][s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[k], s)
			if len(b.subs[k]) == 0 {
				delete(b.subs, k)
			}
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// Publish hands c to every subscriber of the document without blocking.
func (b *Broker) Publish(collection string, c docrpc.Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs[key{collection, c.Document.ID}] {
		select {
		case s.ch <- c:
		default:
			// drop the stale change, keep the newest
			select {
			case <-s.ch:
			default:
			}
			s.ch <- c
		}
	}
}

// Subscribers reports how many watchers a document has.
func (b *Broker) Subscribers(collection, id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key{collection, id}])
}
