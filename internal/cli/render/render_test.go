package render

import (
	"bytes"
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/usecase"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var weth = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func TestDeployRenderer(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.DeployContractsResult{
			Network:    "localhost",
			ChainID:    31337,
			NonceState: domain.NonceState{Latest: 1, Pending: 2},
			Healed:     []usecase.HealResult{{Nonce: 1, TxHash: common.HexToHash("0xabc"), GasPrice: big.NewInt(1250000000)}},
			Steps: []usecase.StepResult{
				{Name: "WETH9", Strategy: domain.StrategyCreate, State: domain.StepConfirmed, Address: weth, Nonce: 2, Sent: true, TxHash: common.HexToHash("0x01")},
				{Name: "PoolFactory", Strategy: domain.StrategyCreate2, State: domain.StepAddressKnown, OnChain: true},
				{Name: "Oracle", Strategy: domain.StrategyCreate, State: domain.StepSkipped},
			},
		}

		require.NoError(t, NewDeployRenderer(&buf).Render(result))
		out := buf.String()
		assert.Contains(t, out, "Deploying to localhost (chain 31337)")
		assert.Contains(t, out, "signer nonce gap: confirmed 1, pending 2")
		assert.Contains(t, out, "healed nonce 1")
		assert.Contains(t, out, weth.Hex())
		assert.Contains(t, out, "on-chain")
		assert.Contains(t, out, "Create2")
		assert.Contains(t, out, "skipped")
		assert.Contains(t, out, "Deployment complete, 2 transaction(s) sent")
	})

	t.Run("dry run", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.DeployContractsResult{
			Network: "localhost",
			DryRun:  true,
			Steps:   []usecase.StepResult{{Name: "WETH9", Strategy: domain.StrategyCreate, State: domain.StepPredicted, Address: weth, Nonce: 3}},
		}

		require.NoError(t, NewDeployRenderer(&buf).Render(result))
		assert.Contains(t, buf.String(), "[dry run]")
		assert.Contains(t, buf.String(), "1 step(s) would be deployed")
	})

	t.Run("stopped after heal", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.DeployContractsResult{
			Network: "localhost",
			Healed:  []usecase.HealResult{{Nonce: 4, Settled: true}},
			Stopped: true,
		}

		require.NoError(t, NewDeployRenderer(&buf).Render(result))
		assert.Contains(t, buf.String(), "nonce 4 settled")
		assert.Contains(t, buf.String(), "stopping as requested")
	})

	t.Run("failed run leaves the summary to the caller", func(t *testing.T) {
		var buf bytes.Buffer
		result := &usecase.DeployContractsResult{
			Network: "localhost",
			Steps:   []usecase.StepResult{{Name: "WETH9", Strategy: domain.StrategyCreate, State: domain.StepFailed}},
		}

		require.NoError(t, NewDeployRenderer(&buf).Render(result))
		assert.NotContains(t, buf.String(), "Deployment complete")
	})
}

func TestNetworksRenderer(t *testing.T) {
	var buf bytes.Buffer
	result := &usecase.ListNetworksResult{
		Selected: "sepolia",
		Networks: []usecase.NetworkStatus{
			{Name: "localhost", ChainID: 31337, RPCURL: "http://127.0.0.1:8545", Local: true},
			{Name: "sepolia", ChainID: 11155111, RPCURL: "https://rpc.sepolia.org", Verification: true},
			{Name: "broken", Error: errors.New("rpc_url is empty")},
		},
	}

	require.NoError(t, NewNetworksRenderer(&buf).RenderNetworksList(result))
	out := buf.String()
	assert.Contains(t, out, "localhost (local)")
	assert.Contains(t, out, "11155111")
	assert.Contains(t, out, "error: rpc_url is empty")
}

func TestNonceRenderer(t *testing.T) {
	var buf bytes.Buffer
	result := &usecase.InspectNonceResult{Network: "sepolia", State: domain.NonceState{Latest: 4, Pending: 7}}

	require.NoError(t, NewNonceRenderer(&buf).Render(result))
	assert.Contains(t, buf.String(), "3 transaction(s) stalled")
}
