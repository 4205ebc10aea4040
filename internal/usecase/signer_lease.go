package usecase

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
)

// SignerLeases hands out exclusive nonce leases per signer account
type SignerLeases struct {
	mu   sync.Mutex
	held map[common.Address]*SignerLease
}

// NewSignerLeases creates an empty lease registry
func NewSignerLeases() *SignerLeases {
	return &SignerLeases{held: make(map[common.Address]*SignerLease)}
}

// Acquire takes the signer's nonce counter starting at next. A second
// acquire before Release fails with domain.ErrSignerBusy.
func (s *SignerLeases) Acquire(account common.Address, next uint64) (*SignerLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.held[account]; ok {
		return nil, fmt.Errorf("%w: %s is leased by another run", domain.ErrSignerBusy, account.Hex())
	}

	lease := &SignerLease{owner: s, account: account, next: next}
	s.held[account] = lease
	return lease, nil
}

func (s *SignerLeases) release(lease *SignerLease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[lease.account] == lease {
		delete(s.held, lease.account)
	}
}

// SignerLease owns a signer's nonce for one run. At most one nonce is
// reserved at a time.
type SignerLease struct {
	owner   *SignerLeases
	account common.Address

	mu       sync.Mutex
	next     uint64
	inFlight bool
	released bool
}

// Account returns the leased signer
func (l *SignerLease) Account() common.Address {
	return l.account
}

// Next returns the nonce the next reservation will get
func (l *SignerLease) Next() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next
}

// Reserve hands out the next nonce
func (l *SignerLease) Reserve() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return 0, fmt.Errorf("lease for %s already released", l.account.Hex())
	}
	if l.inFlight {
		return 0, fmt.Errorf("%w: nonce %d not settled", domain.ErrNonceInFlight, l.next)
	}
	l.inFlight = true
	return l.next, nil
}

// Commit settles a reserved nonce as used
func (l *SignerLease) Commit(nonce uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.inFlight || nonce != l.next {
		return fmt.Errorf("nonce %d is not reserved", nonce)
	}
	l.inFlight = false
	l.next++
	return nil
}

// Abort returns a reserved nonce without using it
func (l *SignerLease) Abort(nonce uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight && nonce == l.next {
		l.inFlight = false
	}
}

// Release gives the signer back. It is safe to call more than once.
func (l *SignerLease) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()

	if l.owner != nil {
		l.owner.release(l)
	}
}
