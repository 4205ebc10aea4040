package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/pkg/create2"
)

// preparedStep is everything needed to submit or predict a step
type preparedStep struct {
	InitCode     []byte
	InitCodeHash common.Hash
	Salt         common.Hash
	// Address is only set for deterministic strategies
	Address common.Address
}

// stepPreparer builds init code and deterministic addresses for plan steps
type stepPreparer struct {
	artifacts ArtifactRepository
	deriver   *create2.Deriver
}

func (p *stepPreparer) prepare(ctx context.Context, spec domain.DeploymentSpec, names nameLookup, factory common.Address) (*preparedStep, error) {
	types, values, err := ResolveArguments(spec.Name, spec.Args, names)
	if err != nil {
		return nil, err
	}

	prepared := &preparedStep{}
	var impl create2.Implementation

	switch spec.Strategy {
	case domain.StrategyClone:
		target, err := resolveName(spec.Name, spec.Implementation, names)
		if err != nil {
			return nil, err
		}
		prepared.InitCode = create2.MinimalProxyInitCode(target)
		impl = create2.ProxyOf(target)

	case domain.StrategyCreate, domain.StrategyCreate2:
		bytecode, err := p.linkedBytecode(ctx, spec, names)
		if err != nil {
			return nil, err
		}
		encoded, err := p.deriver.Encode(types, values)
		if err != nil {
			return nil, err
		}
		prepared.InitCode = append(bytecode, encoded...)
		impl = create2.CodeHash(crypto.Keccak256Hash(prepared.InitCode))

	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidPlan, spec.Strategy)
	}

	if prepared.InitCodeHash, err = p.deriver.InitCodeHash(impl); err != nil {
		return nil, err
	}

	if !spec.Strategy.Deterministic() {
		return prepared, nil
	}

	if prepared.Salt, err = p.salt(spec, types, values); err != nil {
		return nil, err
	}
	prepared.Address = p.deriver.Address(factory, prepared.Salt, prepared.InitCodeHash)
	return prepared, nil
}

// salt picks the explicit salt, the string salt or the hash of the encoded arguments
func (p *stepPreparer) salt(spec domain.DeploymentSpec, types []string, values []any) (common.Hash, error) {
	switch {
	case spec.Salt != "":
		raw, err := hexutil.Decode(spec.Salt)
		if err != nil || len(raw) != common.HashLength {
			return common.Hash{}, fmt.Errorf("%w: salt of %s must be 32 bytes of hex", domain.ErrInvalidPlan, spec.Name)
		}
		return common.BytesToHash(raw), nil
	case spec.SaltString != "":
		return create2.StringSalt(spec.SaltString), nil
	default:
		return p.deriver.Salt(create2.Schema{Types: types, Pair: spec.Pair}, values)
	}
}

func (p *stepPreparer) linkedBytecode(ctx context.Context, spec domain.DeploymentSpec, names nameLookup) ([]byte, error) {
	artifact, err := p.artifacts.GetArtifact(ctx, spec.Artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", spec.Artifact, err)
	}

	libs := make(map[string]common.Address, len(spec.Libraries))
	var missing []string
	for lib, target := range spec.Libraries {
		if common.IsHexAddress(target) {
			libs[lib] = common.HexToAddress(target)
			continue
		}
		if addr, ok := names.Lookup(target); ok {
			libs[lib] = addr
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s not deployed)", lib, target))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.UnresolvedLibraryError{Step: spec.Name, Libraries: missing}
	}

	linked, err := LinkBytecode(artifact.Bytecode, artifact.LinkReferences, libs)
	if err != nil {
		var libErr *domain.UnresolvedLibraryError
		if errors.As(err, &libErr) {
			libErr.Step = spec.Name
		}
		return nil, err
	}

	code, err := hexutil.Decode(linked)
	if err != nil {
		return nil, fmt.Errorf("artifact %s has invalid bytecode: %w", spec.Artifact, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("artifact %s has no creation bytecode (abstract contract or interface?)", spec.Artifact)
	}
	return code, nil
}

// resolveName accepts an address literal or a logical name
func resolveName(step, ref string, names nameLookup) (common.Address, error) {
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	if addr, ok := names.Lookup(ref); ok {
		return addr, nil
	}
	return common.Address{}, missingDependency(step, ref, names.Names())
}

// runNames resolves names against the address book, then against addresses
// predicted earlier in a dry run
type runNames struct {
	book      AddressBook
	predicted map[string]common.Address
}

func newRunNames(book AddressBook) *runNames {
	return &runNames{book: book, predicted: make(map[string]common.Address)}
}

func (n *runNames) Lookup(name string) (common.Address, bool) {
	if addr, ok := n.predicted[name]; ok {
		return addr, true
	}
	if n.book == nil {
		return common.Address{}, false
	}
	return n.book.Lookup(name)
}

func (n *runNames) Names() []string {
	names := lo.Keys(n.predicted)
	if n.book != nil {
		names = append(names, lo.Keys(n.book.All())...)
	}
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}
