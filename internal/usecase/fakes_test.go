package usecase_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/usecase"
)

var (
	signer  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	factory = common.HexToAddress("0x4e59b44847b379578588920ca78fbf26c0b4956c")
)

// fakeChain mines every transaction as soon as its receipt is awaited
type fakeChain struct {
	mu sync.Mutex

	chainID uint64
	latest  uint64
	pending uint64
	code    map[common.Address][]byte

	sent     []domain.TxRequest
	events   []string
	receipts map[common.Hash]*domain.Receipt
	txs      map[common.Hash]domain.TxRequest

	// hang makes receipt waits for these nonces block until the context ends
	hang map[uint64]bool
	// revert lists nonces whose execution fails
	revert map[uint64]bool
	// sendErr fails every Send
	sendErr error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		chainID:  31337,
		code:     map[common.Address][]byte{factory: {0x60, 0x00}},
		receipts: make(map[common.Hash]*domain.Receipt),
		txs:      make(map[common.Hash]domain.TxRequest),
		revert:   make(map[uint64]bool),
		hang:     make(map[uint64]bool),
	}
}

func (c *fakeChain) Account(ctx context.Context) (common.Address, error) {
	return signer, nil
}

func (c *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(c.chainID), nil
}

func (c *fakeChain) NonceState(ctx context.Context, account common.Address) (domain.NonceState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.NonceState{Latest: c.latest, Pending: c.pending}, nil
}

func (c *fakeChain) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code[address], nil
}

func (c *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (c *fakeChain) Send(ctx context.Context, req domain.TxRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return common.Hash{}, c.sendErr
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], req.Nonce)
	hash := crypto.Keccak256Hash(buf[:], req.Data, []byte(fmt.Sprint(len(c.sent))))

	c.sent = append(c.sent, req)
	c.txs[hash] = req
	c.events = append(c.events, fmt.Sprintf("send:%d", req.Nonce))
	if req.Nonce+1 > c.pending {
		c.pending = req.Nonce + 1
	}
	return hash, nil
}

func (c *fakeChain) WaitForReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	c.mu.Lock()
	req, ok := c.txs[hash]
	hang := c.hang[req.Nonce]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", hash.Hex())
	}
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.receipts[hash]; ok {
		return r, nil
	}

	receipt := &domain.Receipt{TxHash: hash, Status: 1, BlockNumber: uint64(len(c.receipts) + 1)}
	if c.revert[req.Nonce] {
		receipt.Status = 0
	} else {
		switch {
		case req.To == nil:
			receipt.ContractAddress = crypto.CreateAddress(signer, req.Nonce)
			c.code[receipt.ContractAddress] = []byte{0x01}
		case *req.To == factory:
			salt := common.BytesToHash(req.Data[:32])
			addr := crypto.CreateAddress2(factory, salt, crypto.Keccak256(req.Data[32:]))
			c.code[addr] = []byte{0x01}
		}
	}

	if req.Nonce == c.latest {
		c.latest++
	}
	if c.pending < c.latest {
		c.pending = c.latest
	}
	c.receipts[hash] = receipt
	c.events = append(c.events, fmt.Sprintf("mined:%d", req.Nonce))
	return receipt, nil
}

func (c *fakeChain) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

// fakeArtifacts serves artifacts from a map
type fakeArtifacts map[string]*domain.Artifact

func (a fakeArtifacts) GetArtifact(ctx context.Context, name string) (*domain.Artifact, error) {
	artifact, ok := a[name]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
	}
	return artifact, nil
}

func (a fakeArtifacts) Names(ctx context.Context) []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MockConfirmer is a mock implementation of Confirmer
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

// recordingMetrics counts observations
type recordingMetrics struct {
	usecase.NopMetrics
	mu    sync.Mutex
	sent  map[string]int
	steps map[domain.StepState]int
	heals int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{sent: map[string]int{}, steps: map[domain.StepState]int{}}
}

func (m *recordingMetrics) TransactionSent(network, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[kind]++
}

func (m *recordingMetrics) StepFinished(network string, state domain.StepState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[state]++
}

func (m *recordingMetrics) NonceHealed(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heals++
}

// MockProgressSink collects progress events
type MockProgressSink struct {
	events []usecase.ProgressEvent
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.events = append(m.events, event)
}
func (m *MockProgressSink) Info(string)  {}
func (m *MockProgressSink) Error(string) {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
