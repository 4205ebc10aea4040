package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// DefaultHealGasBump is the percentage added to the gas price of heal transactions
const DefaultHealGasBump = 25

// HealResult is one replacement transaction sent for a stalled nonce
type HealResult struct {
	Nonce    uint64
	TxHash   common.Hash
	GasPrice *big.Int
	// Settled is set when the stalled transaction was mined before the heal landed
	Settled bool
}

// NonceGuard clears stalled transactions of the signer before a run submits
// anything new. Every stalled nonce is replaced by a zero-value transaction
// to the signer itself, lowest first, each confirmed before the next.
type NonceGuard struct {
	cfg      *config.RuntimeConfig
	chain    ChainClient
	metrics  MetricsRecorder
	progress ProgressSink
	log      *slog.Logger
}

// NewNonceGuard creates a new NonceGuard
func NewNonceGuard(cfg *config.RuntimeConfig, chain ChainClient, metrics MetricsRecorder, progress ProgressSink, log *slog.Logger) *NonceGuard {
	return &NonceGuard{
		cfg:      cfg,
		chain:    chain,
		metrics:  metrics,
		progress: progress,
		log:      log.With("component", "nonce-guard"),
	}
}

// Heal replaces every nonce in state's gap through lease, then checks that the
// signer has nothing pending. The lease must start at state.Latest.
func (g *NonceGuard) Heal(ctx context.Context, lease *SignerLease, state domain.NonceState) ([]HealResult, error) {
	if !state.HasGap() {
		return nil, nil
	}

	network := g.networkName()
	account := lease.Account()
	g.log.Warn("pending transactions detected", "account", account.Hex(), "latest", state.Latest, "pending", state.Pending)

	price, err := g.healGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	var healed []HealResult
	for lease.Next() < state.Pending {
		if err := ctx.Err(); err != nil {
			return healed, err
		}
		nonce, err := lease.Reserve()
		if err != nil {
			return healed, err
		}

		g.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "heal",
			Current: int(nonce - state.Latest + 1),
			Total:   int(state.Pending - state.Latest),
			Message: fmt.Sprintf("Replacing stalled transaction at nonce %d", nonce),
			Spinner: true,
		})

		hash, err := g.chain.Send(ctx, domain.TxRequest{
			To:       &account,
			Nonce:    nonce,
			Value:    new(big.Int),
			GasPrice: price,
			GasLimit: params.TxGas,
		})
		if err != nil {
			// The stalled transaction may have been mined in the meantime
			if now, qerr := g.chain.NonceState(ctx, account); qerr == nil && now.Latest > nonce {
				g.log.Info("stalled transaction mined before replacement", "nonce", nonce)
				if err := lease.Commit(nonce); err != nil {
					return healed, err
				}
				healed = append(healed, HealResult{Nonce: nonce, Settled: true})
				continue
			}
			lease.Abort(nonce)
			return healed, &domain.NonceGapError{Latest: state.Latest, Pending: state.Pending, Err: err}
		}
		g.metrics.TransactionSent(network, "heal")
		g.log.Info("sent heal transaction", "nonce", nonce, "tx", hash.Hex(), "gas_price", price)

		started := time.Now()
		receipt, err := waitConfirmed(ctx, g.chain, hash, g.confirmationTimeout())
		if err != nil {
			return healed, &domain.NonceGapError{Latest: state.Latest, Pending: state.Pending, Err: err}
		}
		g.metrics.ConfirmationObserved(network, time.Since(started))
		if !receipt.Succeeded() {
			g.log.Warn("heal transaction failed", "nonce", nonce, "tx", hash.Hex())
		}

		if err := lease.Commit(nonce); err != nil {
			return healed, err
		}
		g.metrics.NonceHealed(network)
		healed = append(healed, HealResult{Nonce: nonce, TxHash: hash, GasPrice: price})
	}

	now, err := g.chain.NonceState(ctx, account)
	if err != nil {
		return healed, fmt.Errorf("failed to query nonce state: %w", err)
	}
	if now.HasGap() || now.Latest != lease.Next() {
		return healed, &domain.NonceGapError{Latest: now.Latest, Pending: now.Pending}
	}

	return healed, nil
}

func (g *NonceGuard) healGasPrice(ctx context.Context) (*big.Int, error) {
	base, err := gasPrice(ctx, g.chain, g.cfg.Network)
	if err != nil {
		return nil, err
	}

	bump := g.cfg.Deploy.HealGasBump
	if bump == 0 {
		bump = DefaultHealGasBump
	}
	price := new(big.Int).Mul(base, new(big.Int).SetUint64(100+bump))
	return price.Div(price, big.NewInt(100)), nil
}

func (g *NonceGuard) confirmationTimeout() time.Duration {
	if g.cfg.Network != nil && g.cfg.Network.ConfirmationTimeout > 0 {
		return g.cfg.Network.ConfirmationTimeout
	}
	return DefaultConfirmationTimeout
}

func (g *NonceGuard) networkName() string {
	if g.cfg.Network == nil {
		return ""
	}
	return g.cfg.Network.Name
}

// DefaultConfirmationTimeout bounds receipt waits when the network sets none
const DefaultConfirmationTimeout = 2 * time.Minute

// gasPrice returns the configured override or the node's suggestion
func gasPrice(ctx context.Context, chain ChainClient, network *config.Network) (*big.Int, error) {
	if network != nil && network.GasPrice != nil {
		return new(big.Int).Set(network.GasPrice), nil
	}
	price, err := chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

// waitConfirmed waits for a receipt for at most timeout. Cancelling ctx does
// not abandon a broadcast transaction; only the timeout ends the wait.
func waitConfirmed(ctx context.Context, chain ChainClient, hash common.Hash, timeout time.Duration) (*domain.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	receipt, err := chain.WaitForReceipt(waitCtx, hash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrConfirmationTimeout) {
			return nil, fmt.Errorf("%w: %s not mined after %s", domain.ErrConfirmationTimeout, hash.Hex(), timeout)
		}
		return nil, err
	}
	return receipt, nil
}
