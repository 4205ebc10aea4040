// Package create2 derives the addresses contracts receive from CREATE2 deployments
// without touching the network.
package create2

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// create2Prefix is the leading byte of the CREATE2 preimage (EIP-1014)
const create2Prefix byte = 0xff

// Hasher computes the fixed-output hash used for salts, init code hashes and
// the final address preimage
type Hasher func(data ...[]byte) common.Hash

// Keccak256 is the default Hasher
func Keccak256(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

// Encoder turns an ordered list of typed values into bytes
type Encoder interface {
	Encode(types []string, values []any) ([]byte, error)
}

// Implementation identifies what the derived contract runs. Exactly one of
// Address (minimal proxy scheme) or InitCodeHash (content scheme) is set.
type Implementation struct {
	Address      *common.Address
	InitCodeHash *common.Hash
}

// ProxyOf returns an Implementation for a minimal proxy delegating to impl
func ProxyOf(impl common.Address) Implementation {
	return Implementation{Address: &impl}
}

// CodeHash returns an Implementation for contracts deployed from init code with the given hash
func CodeHash(hash common.Hash) Implementation {
	return Implementation{InitCodeHash: &hash}
}

// Deriver reproduces CREATE2 addresses. The zero value uses the ABI encoder
// and keccak256.
type Deriver struct {
	Encoder Encoder
	Hasher  Hasher
}

// NewDeriver creates a Deriver with the default collaborators
func NewDeriver() *Deriver {
	return &Deriver{Encoder: ABIEncoder{}, Hasher: Keccak256}
}

func (d *Deriver) encoder() Encoder {
	if d == nil || d.Encoder == nil {
		return ABIEncoder{}
	}
	return d.Encoder
}

func (d *Deriver) hash(data ...[]byte) common.Hash {
	if d == nil || d.Hasher == nil {
		return Keccak256(data...)
	}
	return d.Hasher(data...)
}

// Address returns the low 20 bytes of hash(0xff ‖ deployer ‖ salt ‖ initCodeHash)
func (d *Deriver) Address(deployer common.Address, salt, initCodeHash common.Hash) common.Address {
	h := d.hash([]byte{create2Prefix}, deployer.Bytes(), salt.Bytes(), initCodeHash.Bytes())
	return common.BytesToAddress(h[12:])
}

// InitCodeHash returns the hash an Implementation contributes to the preimage
func (d *Deriver) InitCodeHash(impl Implementation) (common.Hash, error) {
	switch {
	case impl.Address != nil && impl.InitCodeHash != nil:
		return common.Hash{}, fmt.Errorf("%w: implementation must be either an address or an init code hash", ErrInvalidInputKind)
	case impl.Address != nil:
		return d.hash(MinimalProxyInitCode(*impl.Address)), nil
	case impl.InitCodeHash != nil:
		return *impl.InitCodeHash, nil
	default:
		return common.Hash{}, fmt.Errorf("%w: implementation reference is empty", ErrInvalidInputKind)
	}
}

// Encode checks values against types and encodes them with the Deriver's encoder
func (d *Deriver) Encode(types []string, values []any) ([]byte, error) {
	canonical, err := Schema{Types: types}.Canonicalize(values)
	if err != nil {
		return nil, err
	}
	encoded, err := d.encoder().Encode(types, canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInputKind, err)
	}
	return encoded, nil
}

// Salt validates args against the schema, canonicalizes the schema's pair and
// returns hash(encode(args))
func (d *Deriver) Salt(schema Schema, args []any) (common.Hash, error) {
	canonical, err := schema.Canonicalize(args)
	if err != nil {
		return common.Hash{}, err
	}

	encoded, err := d.encoder().Encode(schema.Types, canonical)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrInvalidInputKind, err)
	}

	return d.hash(encoded), nil
}

// Derive computes the address a deployment from deployer will occupy when its
// salt is the hash of the encoded args
func (d *Deriver) Derive(deployer common.Address, impl Implementation, schema Schema, args []any) (common.Address, error) {
	salt, err := d.Salt(schema, args)
	if err != nil {
		return common.Address{}, err
	}

	initCodeHash, err := d.InitCodeHash(impl)
	if err != nil {
		return common.Address{}, err
	}

	return d.Address(deployer, salt, initCodeHash), nil
}

// PoolAddress derives the address of the pool proxy for a token pair and fee
// tier. The pair order does not matter.
func (d *Deriver) PoolAddress(factory, implementation, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	return d.Derive(factory, ProxyOf(implementation), PoolSchema, []any{tokenA, tokenB, fee})
}

// SortAddresses returns the pair with the lexicographically smaller address first
func SortAddresses(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		return b, a
	}
	return a, b
}

// StringSalt returns hash(packed string), the salt convention for named
// deterministic deployments
func StringSalt(s string) common.Hash {
	return Keccak256([]byte(s))
}
