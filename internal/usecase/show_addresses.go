package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// AddressEntry is one recorded name
type AddressEntry struct {
	Name    string
	Address common.Address
}

// ShowAddressesParams contains parameters for listing recorded addresses
type ShowAddressesParams struct {
	// Filter keeps names containing it, case-insensitively
	Filter string
}

// ShowAddressesResult contains the recorded addresses of a network
type ShowAddressesResult struct {
	Network string
	Entries []AddressEntry
}

// ShowAddresses lists the address book of the selected network
type ShowAddresses struct {
	cfg   *config.RuntimeConfig
	store AddressBookStore
}

// NewShowAddresses creates a new ShowAddresses use case
func NewShowAddresses(cfg *config.RuntimeConfig, store AddressBookStore) *ShowAddresses {
	return &ShowAddresses{cfg: cfg, store: store}
}

// Run executes the use case
func (uc *ShowAddresses) Run(ctx context.Context, params ShowAddressesParams) (*ShowAddressesResult, error) {
	book, err := openSelectedBook(ctx, uc.cfg, uc.store)
	if err != nil {
		return nil, err
	}

	filter := strings.ToLower(params.Filter)
	entries := lo.FilterMap(lo.Entries(book.All()), func(e lo.Entry[string, common.Address], _ int) (AddressEntry, bool) {
		return AddressEntry{Name: e.Key, Address: e.Value}, strings.Contains(strings.ToLower(e.Key), filter)
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return &ShowAddressesResult{Network: book.Network(), Entries: entries}, nil
}

// ClearAddressParams contains parameters for clearing recorded addresses
type ClearAddressParams struct {
	Names []string
	All   bool
	Force bool
}

// ClearAddressResult lists what was removed
type ClearAddressResult struct {
	Network string
	Removed []AddressEntry
}

// ClearAddress is the operator command that removes address book entries so
// the next run deploys them again
type ClearAddress struct {
	cfg       *config.RuntimeConfig
	store     AddressBookStore
	confirmer Confirmer
}

// NewClearAddress creates a new ClearAddress use case
func NewClearAddress(cfg *config.RuntimeConfig, store AddressBookStore, confirmer Confirmer) *ClearAddress {
	return &ClearAddress{cfg: cfg, store: store, confirmer: confirmer}
}

// Run executes the use case
func (uc *ClearAddress) Run(ctx context.Context, params ClearAddressParams) (*ClearAddressResult, error) {
	book, err := openSelectedBook(ctx, uc.cfg, uc.store)
	if err != nil {
		return nil, err
	}

	all := book.All()
	names := params.Names
	if params.All {
		names = lo.Keys(all)
		sort.Strings(names)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("nothing to clear: pass names or --all")
	}

	for _, name := range names {
		if _, ok := all[name]; !ok {
			return nil, fmt.Errorf("%s on %s: %w", name, book.Network(), domain.ErrNotFound)
		}
	}

	if !params.Force {
		ok, err := uc.confirmer.Confirm(ctx, fmt.Sprintf("Remove %d address(es) from %s?", len(names), book.Network()))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDeploymentCancelled
		}
	}

	result := &ClearAddressResult{Network: book.Network()}
	for _, name := range names {
		if err := book.Remove(ctx, name); err != nil {
			return result, err
		}
		result.Removed = append(result.Removed, AddressEntry{Name: name, Address: all[name]})
	}
	return result, nil
}

func openSelectedBook(ctx context.Context, cfg *config.RuntimeConfig, store AddressBookStore) (AddressBook, error) {
	if cfg.Network == nil {
		return nil, fmt.Errorf("%w: no network selected (use --network)", domain.ErrUnknownNetwork)
	}
	book, err := store.Open(ctx, cfg.Network.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open address book: %w", err)
	}
	return book, nil
}
