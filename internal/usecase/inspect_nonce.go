package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// InspectNonceParams contains parameters for inspecting the signer nonce
type InspectNonceParams struct {
	Heal bool
}

// InspectNonceResult contains the signer's nonce state
type InspectNonceResult struct {
	Network string
	Account common.Address
	State   domain.NonceState
	Healed  []HealResult
}

// InspectNonce shows the signer's confirmed and pending nonce and optionally heals a gap
type InspectNonce struct {
	cfg    *config.RuntimeConfig
	chain  ChainClient
	leases *SignerLeases
	guard  *NonceGuard
}

// NewInspectNonce creates a new InspectNonce use case
func NewInspectNonce(cfg *config.RuntimeConfig, chain ChainClient, leases *SignerLeases, guard *NonceGuard) *InspectNonce {
	return &InspectNonce{cfg: cfg, chain: chain, leases: leases, guard: guard}
}

// Run executes the use case
func (uc *InspectNonce) Run(ctx context.Context, params InspectNonceParams) (*InspectNonceResult, error) {
	if uc.cfg.Network == nil {
		return nil, fmt.Errorf("%w: no network selected (use --network)", domain.ErrUnknownNetwork)
	}

	account, err := uc.chain.Account(ctx)
	if err != nil {
		return nil, err
	}

	state, err := uc.chain.NonceState(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query nonce state: %w", err)
	}

	result := &InspectNonceResult{Network: uc.cfg.Network.Name, Account: account, State: state}
	if !params.Heal || !state.HasGap() {
		return result, nil
	}

	lease, err := uc.leases.Acquire(account, state.Latest)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	result.Healed, err = uc.guard.Heal(ctx, lease, state)
	if err != nil {
		return result, err
	}

	if result.State, err = uc.chain.NonceState(ctx, account); err != nil {
		return result, fmt.Errorf("failed to query nonce state: %w", err)
	}
	return result, nil
}
