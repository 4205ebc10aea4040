package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// MockNetworkResolver is a mock implementation of NetworkResolver
type MockNetworkResolver struct {
	mock.Mock
}

func (m *MockNetworkResolver) GetNetworks(ctx context.Context) []string {
	args := m.Called(ctx)
	return args.Get(0).([]string)
}

func (m *MockNetworkResolver) ResolveNetwork(ctx context.Context, name string) (*config.Network, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*config.Network), args.Error(1)
}

func TestListNetworks(t *testing.T) {
	ctx := context.Background()
	resolver := new(MockNetworkResolver)
	resolver.On("GetNetworks", ctx).Return([]string{"localhost", "sepolia", "broken"})
	resolver.On("ResolveNetwork", ctx, "localhost").Return(&config.Network{Name: "localhost", ChainID: 31337, RPCURL: "http://127.0.0.1:8545", Local: true}, nil)
	resolver.On("ResolveNetwork", ctx, "sepolia").Return(&config.Network{
		Name:         "sepolia",
		ChainID:      11155111,
		RPCURL:       "https://rpc.sepolia.org",
		Verification: &config.VerificationConfig{APIKey: "key"},
	}, nil)
	resolver.On("ResolveNetwork", ctx, "broken").Return(nil, errors.New("rpc_url references unset SEPOLIA_RPC"))

	cfg := &config.RuntimeConfig{Network: &config.Network{Name: "sepolia"}}
	result, err := usecase.NewListNetworks(resolver, cfg).Run(ctx, usecase.ListNetworksParams{})
	require.NoError(t, err)

	assert.Equal(t, "sepolia", result.Selected)
	require.Len(t, result.Networks, 3)

	assert.Equal(t, uint64(31337), result.Networks[0].ChainID)
	assert.True(t, result.Networks[0].Local)
	assert.False(t, result.Networks[0].Verification)

	assert.True(t, result.Networks[1].Verification)
	assert.Equal(t, "https://rpc.sepolia.org", result.Networks[1].RPCURL)

	assert.Error(t, result.Networks[2].Error)
	resolver.AssertExpectations(t)
}
