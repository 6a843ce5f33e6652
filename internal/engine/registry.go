package engine

import (
	"sync"

	"fenrir/internal/book"
)

// registry is the pair -> OrderBook mapping. The outer mutex protects only
// the map itself; a book's own mutex (internal/book.OrderBook) guards its
// contents. The map is not sharded: it is a single outer map holding
// handles to books that each carry their own exclusive section. Two
// concurrent getOrCreate
// calls for an unseen pair serialise on map insertion, so exactly one
// book is created and both callers proceed against the same *OrderBook.
type registry struct {
	mu    sync.Mutex
	books map[string]*book.OrderBook
}

func newRegistry() *registry {
	return &registry{books: make(map[string]*book.OrderBook)}
}

func (r *registry) getOrCreate(pair string) *book.OrderBook {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[pair]; ok {
		return b
	}
	b := book.New(pair)
	r.books[pair] = b
	return b
}

func (r *registry) get(pair string) (*book.OrderBook, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[pair]
	return b, ok
}

func (r *registry) pairs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.books))
	for pair := range r.books {
		out = append(out, pair)
	}
	return out
}
