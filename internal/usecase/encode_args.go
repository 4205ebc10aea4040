package usecase

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
)

// nameLookup resolves a logical name to an address
type nameLookup interface {
	Lookup(name string) (common.Address, bool)
	Names() []string
}

// ResolveArguments turns plan arguments into the types and values the
// encoder takes. References are resolved through names.
func ResolveArguments(step string, args []domain.Argument, names nameLookup) ([]string, []any, error) {
	types := make([]string, len(args))
	values := make([]any, len(args))

	for i, arg := range args {
		typ, err := abi.NewType(arg.Type, "", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: argument %d has unsupported type %q", domain.ErrInvalidInputKind, i, arg.Type)
		}
		types[i] = arg.Type

		if arg.Ref != "" {
			if typ.T != abi.AddressTy {
				return nil, nil, fmt.Errorf("%w: argument %d references %q but is %s, not address",
					domain.ErrInvalidInputKind, i, arg.Ref, arg.Type)
			}
			addr, ok := names.Lookup(arg.Ref)
			if !ok {
				return nil, nil, missingDependency(step, arg.Ref, names.Names())
			}
			values[i] = addr
			continue
		}

		v, err := parseArgument(typ, arg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: argument %d (%s): %v", domain.ErrInvalidInputKind, i, arg.Type, err)
		}
		values[i] = v
	}

	return types, values, nil
}

func missingDependency(step, dependency string, known []string) error {
	matches := fuzzy.Find(dependency, known)
	suggestions := lo.Map(lo.Slice(matches, 0, 3), func(m fuzzy.Match, _ int) string {
		return m.Str
	})
	return &domain.MissingDependencyError{Step: step, Dependency: dependency, Suggestions: suggestions}
}

// parseArgument converts a literal into the Go value abi packs for typ.
// Integers stay *big.Int; create2.Schema narrows them.
func parseArgument(typ abi.Type, arg domain.Argument) (any, error) {
	raw := arg.Value

	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil

	case abi.BoolTy:
		return strconv.ParseBool(raw)

	case abi.StringTy:
		return raw, nil

	case abi.IntTy, abi.UintTy:
		n, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil

	case abi.BytesTy:
		if arg.Encoding == domain.EncodingASCII {
			return []byte(raw), nil
		}
		return hexutil.Decode(raw)

	case abi.FixedBytesTy:
		data := []byte(raw)
		if arg.Encoding != domain.EncodingASCII {
			var err error
			if data, err = hexutil.Decode(raw); err != nil {
				return nil, err
			}
		}
		if len(data) > typ.Size {
			return nil, fmt.Errorf("%d bytes do not fit bytes%d", len(data), typ.Size)
		}
		arr := reflect.New(typ.GetType()).Elem()
		for i, b := range data {
			arr.Index(i).SetUint(uint64(b))
		}
		return arr.Interface(), nil
	}

	return nil, fmt.Errorf("type %s is not supported in plans", typ.String())
}
