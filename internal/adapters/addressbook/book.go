// Package addressbook persists the logical name to address mapping of each
// network.
package addressbook

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
)

// backend writes changes of one network's book. The snapshot passed in
// already contains the change.
type backend interface {
	put(ctx context.Context, network, name string, address common.Address, snapshot map[string]common.Address) error
	remove(ctx context.Context, network, name string, snapshot map[string]common.Address) error
}

// Book is the in-memory view of a network's address book. Changes are handed
// to the backend first and only applied once it succeeded.
type Book struct {
	mu      sync.RWMutex
	network string
	entries map[string]common.Address
	backend backend
}

func newBook(network string, entries map[string]common.Address, b backend) *Book {
	if entries == nil {
		entries = make(map[string]common.Address)
	}
	return &Book{network: network, entries: entries, backend: b}
}

// Network returns the network the book belongs to
func (b *Book) Network() string {
	return b.network
}

// Lookup returns the address recorded for name
func (b *Book) Lookup(name string) (common.Address, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	addr, ok := b.entries[name]
	return addr, ok
}

// All returns a copy of every entry
func (b *Book) All() map[string]common.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.entries)
}

// Record stores name -> address. Recording the same address again is a no-op;
// a different one fails with domain.ErrAddressConflict.
func (b *Book) Record(ctx context.Context, name string, address common.Address) error {
	if name == "" {
		return fmt.Errorf("cannot record an empty name")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[name]; ok {
		if existing == address {
			return nil
		}
		return &domain.AddressConflictError{Network: b.network, Name: name, Existing: existing, Proposed: address}
	}

	snapshot := maps.Clone(b.entries)
	snapshot[name] = address
	if b.backend != nil {
		if err := b.backend.put(ctx, b.network, name, address, snapshot); err != nil {
			return fmt.Errorf("failed to persist %s: %w", name, err)
		}
	}
	b.entries = snapshot
	return nil
}

// Remove deletes name from the book
func (b *Book) Remove(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.entries[name]; !ok {
		return fmt.Errorf("%s on %s: %w", name, b.network, domain.ErrNotFound)
	}

	snapshot := maps.Clone(b.entries)
	delete(snapshot, name)
	if b.backend != nil {
		if err := b.backend.remove(ctx, b.network, name, snapshot); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	b.entries = snapshot
	return nil
}
