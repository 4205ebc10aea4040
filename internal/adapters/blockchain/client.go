package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
	"golang.org/x/time/rate"
)

// DefaultPollInterval is the spacing of receipt queries
const DefaultPollInterval = 2 * time.Second

// gasMarginPercent is added on top of estimated gas
const gasMarginPercent = 20

// Backend is the subset of ethclient.Client the adapter uses
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client implements usecase.ChainClient for the selected network. The RPC
// connection and the signer key are set up on first use, so commands that
// never touch the chain work without either.
type Client struct {
	cfg          *config.RuntimeConfig
	log          *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	backend Backend
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

// NewClient creates a client for the selected network of cfg
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{
		cfg:          cfg,
		log:          log.With("component", "chain"),
		pollInterval: DefaultPollInterval,
	}
}

// NewClientWithBackend creates a client over an existing backend and key
func NewClientWithBackend(backend Backend, key *ecdsa.PrivateKey, pollInterval time.Duration, log *slog.Logger) *Client {
	return &Client{
		log:          log.With("component", "chain"),
		pollInterval: pollInterval,
		backend:      backend,
		key:          key,
	}
}

func (c *Client) connect(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}

	network := c.cfg.Network
	if network == nil {
		return nil, fmt.Errorf("%w: no network selected (use --network)", domain.ErrUnknownNetwork)
	}
	if network.RPCURL == "" {
		return nil, fmt.Errorf("network %s has no rpc_url", network.Name)
	}

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	c.log.Debug("connected", "network", network.Name, "rpc", network.RPCURL)
	c.backend = client
	return client, nil
}

func (c *Client) signerKey() (*ecdsa.PrivateKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		return c.key, nil
	}
	if c.cfg == nil || c.cfg.Network == nil {
		return nil, fmt.Errorf("%w: no network selected (use --network)", domain.ErrUnknownNetwork)
	}

	key, err := LoadKey(c.cfg.Network.Signer)
	if err != nil {
		return nil, fmt.Errorf("failed to load signer for %s: %w", c.cfg.Network.Name, err)
	}
	c.key = key
	return key, nil
}

// Account returns the signer address
func (c *Client) Account(ctx context.Context) (common.Address, error) {
	key, err := c.signerKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// ChainID returns the chain id reported by the node
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return new(big.Int).Set(id), nil
}

// NonceState returns the mined and pending nonce of account
func (c *Client) NonceState(ctx context.Context, account common.Address) (domain.NonceState, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return domain.NonceState{}, err
	}

	latest, err := backend.NonceAt(ctx, account, nil)
	if err != nil {
		return domain.NonceState{}, fmt.Errorf("latest nonce: %w", err)
	}
	pending, err := backend.PendingNonceAt(ctx, account)
	if err != nil {
		return domain.NonceState{}, fmt.Errorf("pending nonce: %w", err)
	}
	// Some nodes lag on the pending pool right after a block
	if pending < latest {
		pending = latest
	}
	return domain.NonceState{Latest: latest, Pending: pending}, nil
}

// CodeAt returns the code at address in the latest block
func (c *Client) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return backend.CodeAt(ctx, address, nil)
}

// SuggestGasPrice returns the node's legacy gas price suggestion
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return backend.SuggestGasPrice(ctx)
}

// Send signs req as a legacy transaction and broadcasts it
func (c *Client) Send(ctx context.Context, req domain.TxRequest) (common.Hash, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	key, err := c.signerKey()
	if err != nil {
		return common.Hash{}, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get chain ID: %w", err)
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	gasPrice := req.GasPrice
	if gasPrice == nil {
		if gasPrice, err = backend.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimate, err := backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     crypto.PubkeyToAddress(key.PublicKey),
			To:       req.To,
			GasPrice: gasPrice,
			Value:    value,
			Data:     req.Data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
		}
		gasLimit = estimate + estimate*gasMarginPercent/100
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    req.Nonce,
		To:       req.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	c.log.Debug("broadcast", "tx", signed.Hash().Hex(), "nonce", req.Nonce, "gas", gasLimit)
	return signed.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or ctx ends
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*domain.Receipt, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			// The limiter gives up early when the next poll would miss the deadline
			<-ctx.Done()
			return nil, ctx.Err()
		}

		receipt, err := backend.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		result := &domain.Receipt{
			TxHash:          receipt.TxHash,
			ContractAddress: receipt.ContractAddress,
			GasUsed:         receipt.GasUsed,
			Status:          receipt.Status,
		}
		if receipt.BlockNumber != nil {
			result.BlockNumber = receipt.BlockNumber.Uint64()
		}
		return result, nil
	}
}

var _ usecase.ChainClient = (*Client)(nil)
