package cart

import "sync"

// Subscription receives the full line sequence after every mutation. C holds
// at most the latest snapshot; older undelivered snapshots are replaced.
type Subscription struct {
	C <-chan []Line

	once  sync.Once
	close func()
}

// Close stops delivery and closes C.
func (s *Subscription) Close() {
	s.once.Do(s.close)
}

type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan []Line
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan []Line)}
}

func (h *hub) subscribe(initial []Line) *Subscription {
	ch := make(chan []Line, 1)
	ch <- initial

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	return &Subscription{
		C: ch,
		close: func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		},
	}
}

// publish never blocks: a pending snapshot the subscriber has not read yet is
// dropped in favour of the new one.
func (h *hub) publish(snapshot []Line) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cloneLines(snapshot)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
