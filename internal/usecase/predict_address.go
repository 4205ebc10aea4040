package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/pkg/create2"
)

// PredictKind selects the derivation scheme
type PredictKind string

const (
	PredictPool    PredictKind = "pool"
	PredictClone   PredictKind = "clone"
	PredictCreate2 PredictKind = "create2"
)

// PredictAddressParams contains parameters for predicting an address
type PredictAddressParams struct {
	Kind PredictKind
	// Deployer overrides the configured CREATE2 factory
	Deployer *common.Address

	// pool
	Implementation string
	TokenA         common.Address
	TokenB         common.Address
	Fee            uint32

	// clone and create2
	Artifact   string
	Args       []domain.Argument
	Libraries  map[string]string
	Salt       string
	SaltString string
	Pair       *[2]int
}

// PredictAddressResult contains a derived address and its inputs
type PredictAddressResult struct {
	Kind         PredictKind
	Deployer     common.Address
	Salt         common.Hash
	InitCodeHash common.Hash
	Address      common.Address
	// Deployed is set when a network is selected and the address holds code
	Deployed *bool
}

// PredictAddress derives addresses without sending anything
type PredictAddress struct {
	cfg      *config.RuntimeConfig
	store    AddressBookStore
	chain    ChainClient
	deriver  *create2.Deriver
	preparer *stepPreparer
}

// NewPredictAddress creates a new PredictAddress use case
func NewPredictAddress(cfg *config.RuntimeConfig, store AddressBookStore, chain ChainClient, artifacts ArtifactRepository, deriver *create2.Deriver) *PredictAddress {
	return &PredictAddress{
		cfg:      cfg,
		store:    store,
		chain:    chain,
		deriver:  deriver,
		preparer: &stepPreparer{artifacts: artifacts, deriver: deriver},
	}
}

// Run executes the use case
func (uc *PredictAddress) Run(ctx context.Context, params PredictAddressParams) (*PredictAddressResult, error) {
	result := &PredictAddressResult{Kind: params.Kind, Deployer: uc.cfg.Deploy.Factory}
	if params.Deployer != nil {
		result.Deployer = *params.Deployer
	}

	// Names resolve against the selected network's book, if any
	names := newRunNames(nil)
	if uc.cfg.Network != nil {
		book, err := uc.store.Open(ctx, uc.cfg.Network.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to open address book: %w", err)
		}
		names.book = book
	}

	switch params.Kind {
	case PredictPool:
		impl, err := resolveName("pool", params.Implementation, names)
		if err != nil {
			return nil, err
		}
		if result.Salt, err = uc.deriver.Salt(create2.PoolSchema, []any{params.TokenA, params.TokenB, params.Fee}); err != nil {
			return nil, err
		}
		if result.InitCodeHash, err = uc.deriver.InitCodeHash(create2.ProxyOf(impl)); err != nil {
			return nil, err
		}
		if result.Address, err = uc.deriver.PoolAddress(result.Deployer, impl, params.TokenA, params.TokenB, params.Fee); err != nil {
			return nil, err
		}

	case PredictClone, PredictCreate2:
		spec := domain.DeploymentSpec{
			Name:           "prediction",
			Artifact:       params.Artifact,
			Strategy:       domain.StrategyCreate2,
			Implementation: params.Implementation,
			Args:           params.Args,
			Libraries:      params.Libraries,
			Salt:           params.Salt,
			SaltString:     params.SaltString,
			Pair:           params.Pair,
		}
		if params.Kind == PredictClone {
			spec.Strategy = domain.StrategyClone
		}
		prepared, err := uc.preparer.prepare(ctx, spec, names, result.Deployer)
		if err != nil {
			return nil, err
		}
		result.Salt = prepared.Salt
		result.InitCodeHash = prepared.InitCodeHash
		result.Address = prepared.Address

	default:
		return nil, fmt.Errorf("unknown prediction kind %q", params.Kind)
	}

	if uc.cfg.Network != nil {
		code, err := uc.chain.CodeAt(ctx, result.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to check code at %s: %w", result.Address.Hex(), err)
		}
		deployed := len(code) > 0
		result.Deployed = &deployed
	}

	return result, nil
}
