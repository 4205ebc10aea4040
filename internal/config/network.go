package config

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// NetworkResolver resolves network names against the [networks] tables
type NetworkResolver struct {
	sling *config.SlingConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(sling *config.SlingConfig) *NetworkResolver {
	if sling == nil {
		sling = &config.SlingConfig{}
	}
	return &NetworkResolver{sling: sling}
}

// GetNetworks returns the configured network names, sorted
func (r *NetworkResolver) GetNetworks() []string {
	names := lo.Keys(r.sling.Networks)
	sort.Strings(names)
	return names
}

// Resolve builds the runtime view of a network. The network's own signer
// replaces the global one when it sets any credential.
func (r *NetworkResolver) Resolve(name string) (*config.Network, error) {
	raw, ok := r.sling.Networks[name]
	if !ok {
		suggestions := lo.Map(fuzzy.Find(name, r.GetNetworks()), func(m fuzzy.Match, _ int) string { return m.Str })
		return nil, &domain.UnknownNetworkError{Name: name, Suggestions: suggestions}
	}

	if raw.RPCURL == "" {
		return nil, fmt.Errorf("network %s has no rpc_url (is its environment variable set?)", name)
	}

	network := &config.Network{
		Name:     name,
		RPCURL:   raw.RPCURL,
		ChainID:  raw.ChainID,
		Local:    raw.Local,
		GasLimit: raw.GasLimit,
		Signer:   r.sling.Signer,
	}

	if raw.Signer != nil && !raw.Signer.IsZero() {
		network.Signer = *raw.Signer
	}

	if raw.GasPrice != "" {
		price, err := ParseGasPrice(raw.GasPrice)
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", name, err)
		}
		network.GasPrice = price
	}

	timeout := raw.ConfirmationTimeout
	if timeout == "" {
		timeout = r.sling.Deploy.ConfirmationTimeout
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("network %s: invalid confirmation_timeout %q: %w", name, timeout, err)
		}
		network.ConfirmationTimeout = d
	}

	if v, ok := r.sling.Verification[name]; ok {
		network.Verification = &v
	}

	return network, nil
}

// ParseGasPrice parses a gas price such as "30gwei", "1.5 gwei" or a plain
// amount of wei
func ParseGasPrice(s string) (*big.Int, error) {
	value := strings.ToLower(strings.TrimSpace(s))
	unit := big.NewInt(params.Wei)

	switch {
	case strings.HasSuffix(value, "gwei"):
		unit = big.NewInt(params.GWei)
		value = strings.TrimSuffix(value, "gwei")
	case strings.HasSuffix(value, "ether"):
		unit = big.NewInt(params.Ether)
		value = strings.TrimSuffix(value, "ether")
	case strings.HasSuffix(value, "wei"):
		value = strings.TrimSuffix(value, "wei")
	}
	value = strings.TrimSpace(value)

	amount, ok := new(big.Rat).SetString(value)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid gas price %q", s)
	}
	amount.Mul(amount, new(big.Rat).SetInt(unit))
	if !amount.IsInt() {
		return nil, fmt.Errorf("gas price %q is not a whole number of wei", s)
	}
	return new(big.Int).Set(amount.Num()), nil
}
