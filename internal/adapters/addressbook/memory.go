package addressbook

import (
	"context"
	"sync"

	"github.com/trebuchet-org/sling/internal/usecase"
)

// MemoryStore keeps books in memory. Reopening a network returns the same book.
type MemoryStore struct {
	mu    sync.Mutex
	books map[string]*Book
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]*Book)}
}

// Open returns the book of network
func (s *MemoryStore) Open(ctx context.Context, network string) (usecase.AddressBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[network]
	if !ok {
		book = newBook(network, nil, nil)
		s.books[network] = book
	}
	return book, nil
}
