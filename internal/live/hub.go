// Package live re-runs read queries whenever the table they read from is
// written to.
//
// Invalidation is table scoped and not incremental: every committed write
// to a table wakes all of its subscribers, which then re-run their query
// and emit the fresh result.
//
//	hub := live.NewHub()
//	results := live.Watch(ctx, hub, "books", func(ctx context.Context) ([]entities.Book, error) {
//		return repo.GetBooksToRead(ctx)
//	})
//	for res := range results { ... }
//
// Writers call hub.Notify("books") after their transaction commits.
package live

import "sync"

// Hub fans out table change signals to subscribers. The zero value is not
// usable; a nil *Hub ignores notifications.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe registers for change signals on table. Signals coalesce: a
// subscriber that has not consumed the previous signal receives no second
// one. The returned func unregisters and closes the channel.
func (h *Hub) Subscribe(table string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.subs[table] == nil {
		h.subs[table] = make(map[int]chan struct{})
	}
	h.subs[table][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[table], id)
			if len(h.subs[table]) == 0 {
				delete(h.subs, table)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Notify signals every subscriber of the given tables without blocking.
func (h *Hub) Notify(tables ...string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, table := range tables {
		for _, ch := range h.subs[table] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Subscribers returns the number of active subscriptions on table.
func (h *Hub) Subscribers(table string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[table])
}
