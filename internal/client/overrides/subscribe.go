package overrides

import "context"

// Subscribe returns a channel that receives the current snapshot right away
// and then a full snapshot after every mutation. Delivery is conflated: a
// subscriber that falls behind only sees the newest state. The channel is
// closed when ctx is done.
func (c *Cache) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	ch <- *c.state.Load()
	c.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		c.subsMu.Lock()
		delete(c.subs, ch)
		close(ch)
		c.subsMu.Unlock()
	}()

	return ch
}

// publish sends the latest state, loaded under subsMu so that no subscriber
// ever sees an older version after a newer one.
func (c *Cache) publish() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	snap := *c.state.Load()

	for ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale one; we are the only sender, so there is room after
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
