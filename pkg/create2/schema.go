package create2

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidInputKind is returned when derivation arguments do not match the
// encoding schema of the target implementation
var ErrInvalidInputKind = errors.New("invalid input kind")

// InputKindError describes the offending argument
type InputKindError struct {
	Index int
	Want  string
	Got   string
}

func (e *InputKindError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid input kind: expected %s arguments, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("invalid input kind: argument %d must be %s, got %s", e.Index, e.Want, e.Got)
}

func (e *InputKindError) Unwrap() error { return ErrInvalidInputKind }

// Schema is the expected argument layout for a salt. Pair, when set, names
// two address arguments that are sorted before encoding because the on-chain
// key they form is order independent.
type Schema struct {
	Types []string
	Pair  *[2]int
}

// PoolSchema is the (token0, token1, fee) layout used to salt pool proxies
var PoolSchema = Schema{
	Types: []string{"address", "address", "uint24"},
	Pair:  &[2]int{0, 1},
}

// Canonicalize checks args against the schema, converts integers to the Go
// types the encoder expects and orders the pair. The input slice is not modified.
func (s Schema) Canonicalize(args []any) ([]any, error) {
	if len(args) != len(s.Types) {
		return nil, &InputKindError{Index: -1, Want: fmt.Sprint(len(s.Types)), Got: fmt.Sprint(len(args))}
	}

	out := make([]any, len(args))
	for i, typ := range s.Types {
		t, err := abi.NewType(typ, "", nil)
		if err != nil {
			return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidInputKind, typ)
		}
		v, err := coerce(t, args[i])
		if err != nil {
			return nil, &InputKindError{Index: i, Want: typ, Got: fmt.Sprintf("%T", args[i])}
		}
		out[i] = v
	}

	if s.Pair != nil {
		i, j := s.Pair[0], s.Pair[1]
		if i < 0 || j < 0 || i >= len(out) || j >= len(out) || s.Types[i] != "address" || s.Types[j] != "address" {
			return nil, fmt.Errorf("%w: pair (%d,%d) must reference two address arguments", ErrInvalidInputKind, i, j)
		}
		a, b := SortAddresses(out[i].(common.Address), out[j].(common.Address))
		out[i], out[j] = a, b
	}

	return out, nil
}

// coerce converts v to the Go type abi.Arguments.Pack accepts for t
func coerce(t abi.Type, v any) (any, error) {
	want := t.GetType()

	switch t.T {
	case abi.IntTy, abi.UintTy:
		n, ok := toBig(v)
		if !ok {
			return nil, fmt.Errorf("not an integer")
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value for unsigned type")
		}
		if t.T == abi.UintTy && n.BitLen() > t.Size {
			return nil, fmt.Errorf("value overflows %d bits", t.Size)
		}
		if t.T == abi.IntTy {
			limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
			if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
				return nil, fmt.Errorf("value overflows int%d", t.Size)
			}
		}
		if want == reflect.TypeOf(n) {
			return n, nil
		}
		rv := reflect.New(want).Elem()
		if t.T == abi.UintTy {
			rv.SetUint(n.Uint64())
		} else {
			rv.SetInt(n.Int64())
		}
		return rv.Interface(), nil
	}

	if v == nil || reflect.TypeOf(v) != want {
		return nil, fmt.Errorf("type mismatch")
	}
	return v, nil
}

func toBig(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	default:
		return nil, false
	}
}
