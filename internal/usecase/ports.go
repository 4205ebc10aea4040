package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// AddressBookStore opens the address book of a network
type AddressBookStore interface {
	Open(ctx context.Context, network string) (AddressBook, error)
}

// AddressBook maps logical contract names to deployed addresses on one
// network. Record persists before returning and fails with
// domain.ErrAddressConflict when the name holds a different address.
type AddressBook interface {
	Network() string
	Lookup(name string) (common.Address, bool)
	Record(ctx context.Context, name string, address common.Address) error
	Remove(ctx context.Context, name string) error
	All() map[string]common.Address
}

// ChainClient is the transaction broadcast and nonce query service of a signer
type ChainClient interface {
	Account(ctx context.Context) (common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)
	NonceState(ctx context.Context, account common.Address) (domain.NonceState, error)
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	Send(ctx context.Context, req domain.TxRequest) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error)
}

// ArtifactRepository provides compiled contracts
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*domain.Artifact, error)
	Names(ctx context.Context) []string
}

// NetworkResolver lists and resolves configured networks
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, name string) (*config.Network, error)
}

// Confirmer asks the operator before anything is broadcast
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// MetricsRecorder observes deployment runs
type MetricsRecorder interface {
	StepFinished(network string, state domain.StepState)
	TransactionSent(network, kind string)
	ConfirmationObserved(network string, elapsed time.Duration)
	NonceHealed(network string)
}

// NopMetrics discards observations
type NopMetrics struct{}

func (NopMetrics) StepFinished(string, domain.StepState)      {}
func (NopMetrics) TransactionSent(string, string)             {}
func (NopMetrics) ConfirmationObserved(string, time.Duration) {}
func (NopMetrics) NonceHealed(string)                         {}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
