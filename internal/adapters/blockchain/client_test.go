package blockchain

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

const (
	anvilMnemonic = "test test test test test test test test test test test junk"
	anvilKey0     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

var (
	anvilAccount0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	anvilAccount1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

type fakeBackend struct {
	mu       sync.Mutex
	latest   uint64
	pending  uint64
	estimate uint64
	sent     []*types.Transaction
	// misses is how many receipt queries return NotFound
	misses   int
	receipts int
}

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(31337), nil }

func (b *fakeBackend) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	return b.latest, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.pending, nil
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return b.estimate, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receipts++
	if b.misses < 0 || b.receipts <= b.misses {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7), GasUsed: 21000}, nil
}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	t.Helper()
	key, err := crypto.HexToECDSA(anvilKey0[2:])
	require.NoError(t, err)
	return NewClientWithBackend(backend, key, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_NonceState(t *testing.T) {
	tests := []struct {
		name            string
		latest, pending uint64
		want            domain.NonceState
	}{
		{name: "clean", latest: 3, pending: 3, want: domain.NonceState{Latest: 3, Pending: 3}},
		{name: "gap", latest: 3, pending: 5, want: domain.NonceState{Latest: 3, Pending: 5}},
		{name: "lagging pending pool", latest: 4, pending: 2, want: domain.NonceState{Latest: 4, Pending: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeBackend{latest: tt.latest, pending: tt.pending})
			state, err := c.NonceState(context.Background(), anvilAccount0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestClient_Send(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{estimate: 100_000}
	c := newTestClient(t, backend)

	account, err := c.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, anvilAccount0, account)

	to := common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c")

	t.Run("estimates gas with a margin", func(t *testing.T) {
		hash, err := c.Send(ctx, domain.TxRequest{To: &to, Nonce: 4, Data: []byte{0x01}, GasPrice: big.NewInt(2_000_000_000)})
		require.NoError(t, err)

		tx := backend.sent[len(backend.sent)-1]
		assert.Equal(t, hash, tx.Hash())
		assert.Equal(t, uint64(120_000), tx.Gas())
		assert.Equal(t, uint64(4), tx.Nonce())
		assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
		assert.Zero(t, tx.Value().Sign())

		from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), tx)
		require.NoError(t, err)
		assert.Equal(t, anvilAccount0, from)
		assert.Equal(t, big.NewInt(31337), tx.ChainId())
	})

	t.Run("explicit gas limit", func(t *testing.T) {
		_, err := c.Send(ctx, domain.TxRequest{Nonce: 5, Data: []byte{0x60}, GasPrice: big.NewInt(1), GasLimit: 3_000_000})
		require.NoError(t, err)

		tx := backend.sent[len(backend.sent)-1]
		assert.Equal(t, uint64(3_000_000), tx.Gas())
		assert.Nil(t, tx.To())
	})
}

func TestClient_WaitForReceipt(t *testing.T) {
	t.Run("polls until mined", func(t *testing.T) {
		backend := &fakeBackend{misses: 2}
		c := newTestClient(t, backend)

		receipt, err := c.WaitForReceipt(context.Background(), common.HexToHash("0x01"))
		require.NoError(t, err)
		assert.True(t, receipt.Succeeded())
		assert.Equal(t, uint64(7), receipt.BlockNumber)
		assert.Equal(t, 3, backend.receipts)
	})

	t.Run("deadline ends the wait", func(t *testing.T) {
		c := newTestClient(t, &fakeBackend{misses: -1})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := c.WaitForReceipt(ctx, common.HexToHash("0x01"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_RequiresNetwork(t *testing.T) {
	c := NewClient(&config.RuntimeConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.ChainID(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnknownNetwork)
	_, err = c.Account(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnknownNetwork)
}

func TestLoadKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SignerConfig
		want    common.Address
		wantErr bool
	}{
		{name: "private key", cfg: config.SignerConfig{PrivateKey: anvilKey0}, want: anvilAccount0},
		{name: "private key without prefix", cfg: config.SignerConfig{PrivateKey: anvilKey0[2:]}, want: anvilAccount0},
		{name: "mnemonic default path", cfg: config.SignerConfig{Mnemonic: anvilMnemonic}, want: anvilAccount0},
		{name: "mnemonic custom path", cfg: config.SignerConfig{Mnemonic: anvilMnemonic, DerivationPath: "m/44'/60'/0'/0/1"}, want: anvilAccount1},
		{
			name: "private key wins over mnemonic",
			cfg:  config.SignerConfig{PrivateKey: anvilKey0, Mnemonic: anvilMnemonic, DerivationPath: "m/44'/60'/0'/0/1"},
			want: anvilAccount0,
		},
		{name: "bad mnemonic", cfg: config.SignerConfig{Mnemonic: "not a real mnemonic"}, wantErr: true},
		{name: "bad path", cfg: config.SignerConfig{Mnemonic: anvilMnemonic, DerivationPath: "m/x"}, wantErr: true},
		{name: "nothing configured", cfg: config.SignerConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := LoadKey(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, crypto.PubkeyToAddress(key.PublicKey))
		})
	}
}
