package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/pkg/create2"
)

// ErrDeploymentCancelled is returned when the operator declines to broadcast
var ErrDeploymentCancelled = errors.New("deployment cancelled")

// DeployContractsParams contains parameters for a deployment run
type DeployContractsParams struct {
	Specs         []domain.DeploymentSpec
	DryRun        bool
	ExitAfterHeal bool
	SkipConfirm   bool
}

// StepResult is the outcome of one step
type StepResult struct {
	Name     string
	Strategy domain.Strategy
	State    domain.StepState
	Address  common.Address
	TxHash   common.Hash
	Nonce    uint64
	Sent     bool
	// OnChain is set when a deterministic address already held code
	OnChain bool
}

// DeployContractsResult contains the result of a deployment run
type DeployContractsResult struct {
	RunID      string
	Network    string
	ChainID    uint64
	Account    common.Address
	DryRun     bool
	NonceState domain.NonceState
	Healed     []HealResult
	Steps      []StepResult
	// Stopped is set when the run exited after healing
	Stopped bool
}

// Transactions counts the transactions sent by the run
func (r *DeployContractsResult) Transactions() int {
	n := 0
	for _, h := range r.Healed {
		if !h.Settled {
			n++
		}
	}
	for _, s := range r.Steps {
		if s.Sent {
			n++
		}
	}
	return n
}

// DeployContracts runs a deployment plan against the selected network
type DeployContracts struct {
	cfg       *config.RuntimeConfig
	store     AddressBookStore
	chain     ChainClient
	preparer  *stepPreparer
	leases    *SignerLeases
	guard     *NonceGuard
	confirmer Confirmer
	metrics   MetricsRecorder
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployContracts creates a new DeployContracts use case
func NewDeployContracts(
	cfg *config.RuntimeConfig,
	store AddressBookStore,
	chain ChainClient,
	artifacts ArtifactRepository,
	deriver *create2.Deriver,
	leases *SignerLeases,
	guard *NonceGuard,
	confirmer Confirmer,
	metrics MetricsRecorder,
	progress ProgressSink,
	log *slog.Logger,
) *DeployContracts {
	return &DeployContracts{
		cfg:       cfg,
		store:     store,
		chain:     chain,
		preparer:  &stepPreparer{artifacts: artifacts, deriver: deriver},
		leases:    leases,
		guard:     guard,
		confirmer: confirmer,
		metrics:   metrics,
		progress:  progress,
		log:       log.With("component", "deploy"),
	}
}

// deployRun is the state of a single Run call
type deployRun struct {
	params   DeployContractsParams
	network  *config.Network
	book     AddressBook
	names    *runNames
	lease    *SignerLease
	log      *slog.Logger
	approved bool
	// factoryChecked caches the factory code lookup
	factoryChecked bool
}

// Run executes the plan. Steps run strictly in declaration order; the first
// failure stops the run and is returned as a *domain.StepError along with the
// partial result. Confirmed steps are already persisted at that point.
func (uc *DeployContracts) Run(ctx context.Context, params DeployContractsParams) (*DeployContractsResult, error) {
	network := uc.cfg.Network
	if network == nil {
		return nil, fmt.Errorf("%w: no network selected (use --network)", domain.ErrUnknownNetwork)
	}

	log := uc.log.With("network", network.Name)
	result := &DeployContractsResult{
		RunID:   uc.cfg.RunID,
		Network: network.Name,
		DryRun:  params.DryRun,
	}

	book, err := uc.store.Open(ctx, network.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to open address book: %w", err)
	}

	account, err := uc.chain.Account(ctx)
	if err != nil {
		return nil, err
	}
	result.Account = account

	chainID, err := uc.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		return nil, fmt.Errorf("network %s expects chain ID %d but the node reports %d", network.Name, network.ChainID, chainID.Uint64())
	}
	result.ChainID = chainID.Uint64()

	state, err := uc.chain.NonceState(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query nonce state: %w", err)
	}
	result.NonceState = state
	log.Debug("nonce state", "account", account.Hex(), "latest", state.Latest, "pending", state.Pending)

	// A dry run leaves the gap alone, so its first nonce comes after the pending ones
	start := state.Latest
	if params.DryRun {
		start = state.Pending
	}
	lease, err := uc.leases.Acquire(account, start)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	if !params.DryRun {
		healed, err := uc.guard.Heal(ctx, lease, state)
		result.Healed = healed
		if err != nil {
			return result, err
		}
		if len(healed) > 0 && params.ExitAfterHeal {
			log.Info("stopping after nonce heal", "healed", len(healed))
			result.Stopped = true
			return result, nil
		}
	} else if state.HasGap() {
		log.Warn("signer has pending transactions, dry run does not heal", "latest", state.Latest, "pending", state.Pending)
	}

	run := &deployRun{
		params:  params,
		network: network,
		book:    book,
		names:   newRunNames(book),
		lease:   lease,
		log:     log,
	}

	for i, spec := range params.Specs {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", "completed", len(result.Steps), "remaining", len(params.Specs)-i)
			return result, err
		}
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "step",
			Current: i + 1,
			Total:   len(params.Specs),
			Message: fmt.Sprintf("Deploying %s", spec.Name),
			Spinner: true,
		})

		step, err := uc.runStep(ctx, run, spec)
		result.Steps = append(result.Steps, step)
		uc.metrics.StepFinished(network.Name, step.State)
		if err != nil {
			log.Error("step failed", "step", spec.Name, "state", step.State, "error", err)
			uc.progress.OnProgress(ctx, ProgressEvent{Stage: "failed", Message: spec.Name})
			return result, &domain.StepError{Step: spec.Name, Err: err}
		}
		log.Info("step finished", "step", spec.Name, "state", step.State, "address", step.Address.Hex())
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "complete", Total: len(params.Specs)})
	return result, nil
}

func (uc *DeployContracts) runStep(ctx context.Context, run *deployRun, spec domain.DeploymentSpec) (StepResult, error) {
	step := StepResult{Name: spec.Name, Strategy: spec.Strategy, State: domain.StepUnresolved}

	if !spec.AppliesTo(run.network.Name) {
		step.State = domain.StepSkipped
		return step, nil
	}

	if addr, ok := run.names.Lookup(spec.Name); ok {
		step.State = domain.StepAddressKnown
		step.Address = addr
		return step, nil
	}

	factory := uc.cfg.Deploy.Factory
	prepared, err := uc.preparer.prepare(ctx, spec, run.names, factory)
	if err != nil {
		step.State = domain.StepFailed
		return step, err
	}

	if spec.Strategy.Deterministic() {
		if err := uc.checkFactory(ctx, run, factory); err != nil {
			step.State = domain.StepFailed
			return step, err
		}

		code, err := uc.chain.CodeAt(ctx, prepared.Address)
		if err != nil {
			step.State = domain.StepFailed
			return step, fmt.Errorf("failed to check code at %s: %w", prepared.Address.Hex(), err)
		}
		if len(code) > 0 {
			step.Address = prepared.Address
			step.OnChain = true
			step.State = domain.StepAddressKnown
			if run.params.DryRun {
				run.names.predicted[spec.Name] = prepared.Address
				return step, nil
			}
			run.log.Info("contract already deployed, recording", "step", spec.Name, "address", prepared.Address.Hex())
			if err := run.book.Record(ctx, spec.Name, prepared.Address); err != nil {
				step.State = domain.StepFailed
				return step, err
			}
			return step, nil
		}
	}

	if run.params.DryRun {
		return uc.predict(run, spec, prepared, step)
	}

	if err := uc.approve(ctx, run); err != nil {
		step.State = domain.StepFailed
		return step, err
	}

	return uc.submit(ctx, run, spec, prepared, step)
}

// predict reserves the nonce the step would use and records the expected address
func (uc *DeployContracts) predict(run *deployRun, spec domain.DeploymentSpec, prepared *preparedStep, step StepResult) (StepResult, error) {
	nonce, err := run.lease.Reserve()
	if err != nil {
		step.State = domain.StepFailed
		return step, err
	}
	if err := run.lease.Commit(nonce); err != nil {
		step.State = domain.StepFailed
		return step, err
	}

	step.Nonce = nonce
	step.Address = prepared.Address
	if spec.Strategy == domain.StrategyCreate {
		step.Address = crypto.CreateAddress(run.lease.Account(), nonce)
	}
	step.State = domain.StepPredicted
	run.names.predicted[spec.Name] = step.Address
	return step, nil
}

func (uc *DeployContracts) submit(ctx context.Context, run *deployRun, spec domain.DeploymentSpec, prepared *preparedStep, step StepResult) (StepResult, error) {
	price, err := gasPrice(ctx, uc.chain, run.network)
	if err != nil {
		step.State = domain.StepFailed
		return step, err
	}

	req := domain.TxRequest{
		Data:     prepared.InitCode,
		GasPrice: price,
		GasLimit: run.network.GasLimit,
	}
	if spec.Strategy.Deterministic() {
		factory := uc.cfg.Deploy.Factory
		req.To = &factory
		req.Data = append(prepared.Salt.Bytes(), prepared.InitCode...)
	}

	nonce, err := run.lease.Reserve()
	if err != nil {
		step.State = domain.StepFailed
		return step, err
	}
	req.Nonce = nonce
	step.Nonce = nonce

	hash, err := uc.chain.Send(ctx, req)
	if err != nil {
		run.lease.Abort(nonce)
		step.State = domain.StepFailed
		return step, fmt.Errorf("failed to send transaction: %w", err)
	}
	step.Sent = true
	step.TxHash = hash
	step.State = domain.StepSubmitting
	uc.metrics.TransactionSent(run.network.Name, "deploy")
	run.log.Info("transaction sent", "step", spec.Name, "tx", hash.Hex(), "nonce", nonce)

	// A broadcast step runs to Confirmed or Failed even if the run is cancelled
	ctx = context.WithoutCancel(ctx)

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "submitting",
		Message: fmt.Sprintf("Waiting for %s (%s)", spec.Name, hash.Hex()),
		Spinner: true,
	})

	started := time.Now()
	receipt, err := waitConfirmed(ctx, uc.chain, hash, uc.confirmationTimeout(run.network))
	if err != nil {
		step.State = domain.StepFailed
		return step, err
	}
	uc.metrics.ConfirmationObserved(run.network.Name, time.Since(started))

	// The nonce is spent whatever the receipt status
	if err := run.lease.Commit(nonce); err != nil {
		step.State = domain.StepFailed
		return step, err
	}

	if !receipt.Succeeded() {
		step.State = domain.StepFailed
		return step, fmt.Errorf("%w: %s in block %d", domain.ErrTransactionReverted, hash.Hex(), receipt.BlockNumber)
	}

	address := prepared.Address
	if spec.Strategy == domain.StrategyCreate {
		address = receipt.ContractAddress
		if address == (common.Address{}) {
			address = crypto.CreateAddress(run.lease.Account(), nonce)
		}
	} else {
		code, err := uc.chain.CodeAt(ctx, address)
		if err != nil {
			step.State = domain.StepFailed
			return step, fmt.Errorf("failed to check code at %s: %w", address.Hex(), err)
		}
		if len(code) == 0 {
			step.State = domain.StepFailed
			return step, fmt.Errorf("factory %s did not deploy %s to %s", uc.cfg.Deploy.Factory.Hex(), spec.Name, address.Hex())
		}
	}

	if err := run.book.Record(ctx, spec.Name, address); err != nil {
		step.State = domain.StepFailed
		return step, err
	}

	step.Address = address
	step.State = domain.StepConfirmed
	return step, nil
}

// approve asks the operator once per run before the first broadcast
func (uc *DeployContracts) approve(ctx context.Context, run *deployRun) error {
	if run.approved || run.params.SkipConfirm {
		return nil
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "confirm"})
	ok, err := uc.confirmer.Confirm(ctx, fmt.Sprintf("Broadcast deployments to %s from %s?", run.network.Name, run.lease.Account().Hex()))
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeploymentCancelled
	}
	run.approved = true
	return nil
}

func (uc *DeployContracts) checkFactory(ctx context.Context, run *deployRun, factory common.Address) error {
	if run.factoryChecked {
		return nil
	}

	code, err := uc.chain.CodeAt(ctx, factory)
	if err != nil {
		return fmt.Errorf("failed to check CREATE2 factory: %w", err)
	}
	if len(code) == 0 {
		if !run.params.DryRun {
			return fmt.Errorf("CREATE2 factory %s is not deployed on %s: %w", factory.Hex(), run.network.Name, domain.ErrNotFound)
		}
		run.log.Warn("CREATE2 factory is not deployed", "factory", factory.Hex())
	}
	run.factoryChecked = true
	return nil
}

func (uc *DeployContracts) confirmationTimeout(network *config.Network) time.Duration {
	if network.ConfirmationTimeout > 0 {
		return network.ConfirmationTimeout
	}
	return DefaultConfirmationTimeout
}
