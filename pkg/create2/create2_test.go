package create2

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer       = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	implementation = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	token0         = common.HexToAddress("0x1111111111111111111111111111111111111111")
	token1         = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestAddress_EIP1014Vectors(t *testing.T) {
	tests := []struct {
		name     string
		deployer string
		salt     string
		initCode string
		expected string
	}{
		{
			name:     "zero deployer and salt",
			deployer: "0x0000000000000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0x00",
			expected: "0x4D1A2e2bB4F88F0250f26Ffff098B0b30B26BF38",
		},
		{
			name:     "deployer set",
			deployer: "0xdeadbeef00000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0x00",
			expected: "0xB928f69Bb1D91Cd65274e3c79d8986362984fDA3",
		},
		{
			name:     "empty init code",
			deployer: "0x0000000000000000000000000000000000000000",
			salt:     "0x0000000000000000000000000000000000000000000000000000000000000000",
			initCode: "0x",
			expected: "0xE33C0C7F7df4809055C3ebA6c09CFe4BaF1BD9e0",
		},
	}

	d := NewDeriver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initCode := hexutil.MustDecode(tt.initCode)
			got := d.Address(common.HexToAddress(tt.deployer), common.HexToHash(tt.salt), crypto.Keccak256Hash(initCode))
			assert.Equal(t, common.HexToAddress(tt.expected), got)
		})
	}
}

func TestAddress_MatchesGethReference(t *testing.T) {
	d := NewDeriver()
	salt := StringSalt("SALT_V1")
	initCode := []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	hash := crypto.Keccak256(initCode)

	expected := crypto.CreateAddress2(deployer, salt, hash)
	assert.Equal(t, expected, d.Address(deployer, salt, common.BytesToHash(hash)))
}

func TestMinimalProxyInitCode(t *testing.T) {
	code := MinimalProxyInitCode(implementation)

	require.Len(t, code, MinimalProxyInitCodeSize)
	assert.Equal(t,
		"0x3d602d80600a3d3981f3363d3d373d3d3d363d73bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb5af43d82803e903d91602b57fd5bf3",
		hexutil.Encode(code))
	assert.Equal(t, implementation.Bytes(), code[ImplementationOffset:ImplementationOffset+common.AddressLength])

	// the template itself stays untouched
	other := MinimalProxyInitCode(common.Address{})
	assert.NotEqual(t, code, other)
	assert.Equal(t, implementation.Bytes(), code[ImplementationOffset:ImplementationOffset+common.AddressLength])
}

func TestPoolAddress(t *testing.T) {
	d := NewDeriver()

	t.Run("deterministic", func(t *testing.T) {
		a, err := d.PoolAddress(deployer, implementation, token0, token1, 3000)
		require.NoError(t, err)
		b, err := d.PoolAddress(deployer, implementation, token0, token1, 3000)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("matches hand assembled preimage", func(t *testing.T) {
		got, err := d.PoolAddress(deployer, implementation, token0, token1, 3000)
		require.NoError(t, err)

		// abi.encode(address,address,uint24) is three left padded words
		encoded := append(common.LeftPadBytes(token0.Bytes(), 32), common.LeftPadBytes(token1.Bytes(), 32)...)
		encoded = append(encoded, common.LeftPadBytes(big.NewInt(3000).Bytes(), 32)...)
		salt := crypto.Keccak256Hash(encoded)
		initHash := crypto.Keccak256(MinimalProxyInitCode(implementation))

		assert.Equal(t, crypto.CreateAddress2(deployer, salt, initHash), got)
	})

	t.Run("pair order does not matter", func(t *testing.T) {
		pairs := [][2]common.Address{
			{token0, token1},
			{common.HexToAddress("0x00000000000000000000000000000000000000ff"), common.HexToAddress("0xff00000000000000000000000000000000000000")},
			{common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")},
		}
		for _, p := range pairs {
			ab, err := d.PoolAddress(deployer, implementation, p[0], p[1], 500)
			require.NoError(t, err)
			ba, err := d.PoolAddress(deployer, implementation, p[1], p[0], 500)
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "pair %s/%s", p[0], p[1])
		}
	})

	t.Run("inputs change the address", func(t *testing.T) {
		base, err := d.PoolAddress(deployer, implementation, token0, token1, 3000)
		require.NoError(t, err)

		otherFee, err := d.PoolAddress(deployer, implementation, token0, token1, 500)
		require.NoError(t, err)
		assert.NotEqual(t, base, otherFee)

		otherDeployer, err := d.PoolAddress(common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAB"), implementation, token0, token1, 3000)
		require.NoError(t, err)
		assert.NotEqual(t, base, otherDeployer)
	})
}

func TestDerive_ImplementationSensitivity(t *testing.T) {
	d := NewDeriver()
	base, err := d.Derive(deployer, ProxyOf(implementation), PoolSchema, []any{token0, token1, uint32(3000)})
	require.NoError(t, err)

	// flipping any single byte of the implementation moves the address
	for i := 0; i < common.AddressLength; i++ {
		impl := implementation
		impl[i] ^= 0x01
		got, err := d.Derive(deployer, ProxyOf(impl), PoolSchema, []any{token0, token1, uint32(3000)})
		require.NoError(t, err)
		assert.NotEqual(t, base, got, "byte %d", i)
	}

	// same for the content scheme
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	contentBase, err := d.Derive(deployer, CodeHash(crypto.Keccak256Hash(code)), PoolSchema, []any{token0, token1, 3000})
	require.NoError(t, err)
	for i := range code {
		changed := append([]byte(nil), code...)
		changed[i] ^= 0xff
		got, err := d.Derive(deployer, CodeHash(crypto.Keccak256Hash(changed)), PoolSchema, []any{token0, token1, 3000})
		require.NoError(t, err)
		assert.NotEqual(t, contentBase, got, "byte %d", i)
	}
}

func TestDerive_InvalidInputKind(t *testing.T) {
	d := NewDeriver()

	tests := []struct {
		name  string
		impl  Implementation
		args  []any
		index int
	}{
		{
			name:  "too few arguments",
			impl:  ProxyOf(implementation),
			args:  []any{token0, token1},
			index: -1,
		},
		{
			name:  "token given as string",
			impl:  ProxyOf(implementation),
			args:  []any{"0x1111111111111111111111111111111111111111", token1, 3000},
			index: 0,
		},
		{
			name:  "fee given as string",
			impl:  ProxyOf(implementation),
			args:  []any{token0, token1, "3000"},
			index: 2,
		},
		{
			name:  "fee overflows uint24",
			impl:  ProxyOf(implementation),
			args:  []any{token0, token1, 1 << 24},
			index: 2,
		},
		{
			name:  "negative fee",
			impl:  ProxyOf(implementation),
			args:  []any{token0, token1, -1},
			index: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Derive(deployer, tt.impl, PoolSchema, tt.args)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInputKind))

			var kindErr *InputKindError
			require.True(t, errors.As(err, &kindErr))
			assert.Equal(t, tt.index, kindErr.Index)
		})
	}

	t.Run("empty implementation", func(t *testing.T) {
		_, err := d.Derive(deployer, Implementation{}, PoolSchema, []any{token0, token1, 3000})
		assert.ErrorIs(t, err, ErrInvalidInputKind)
	})

	t.Run("both implementation kinds", func(t *testing.T) {
		hash := common.Hash{1}
		_, err := d.Derive(deployer, Implementation{Address: &implementation, InitCodeHash: &hash}, PoolSchema, []any{token0, token1, 3000})
		assert.ErrorIs(t, err, ErrInvalidInputKind)
	})

	t.Run("signed out of range", func(t *testing.T) {
		maxInt256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
		minInt256 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))

		cases := []struct {
			typ string
			arg any
		}{
			{"int8", 200},
			{"int8", 128},
			{"int8", -129},
			{"int256", new(big.Int).Add(maxInt256, big.NewInt(1))},
			{"int256", new(big.Int).Sub(minInt256, big.NewInt(1))},
		}
		for _, c := range cases {
			_, err := d.Salt(Schema{Types: []string{c.typ}}, []any{c.arg})
			assert.ErrorIs(t, err, ErrInvalidInputKind, "%s %v", c.typ, c.arg)
		}
	})

	t.Run("signed bounds accepted", func(t *testing.T) {
		out, err := Schema{Types: []string{"int8", "int8"}}.Canonicalize([]any{127, -128})
		require.NoError(t, err)
		assert.Equal(t, []any{int8(127), int8(-128)}, out)

		maxInt256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
		_, err = d.Salt(Schema{Types: []string{"int256"}}, []any{maxInt256})
		require.NoError(t, err)
	})

	t.Run("pair must name addresses", func(t *testing.T) {
		schema := Schema{Types: []string{"uint256", "address"}, Pair: &[2]int{0, 1}}
		_, err := d.Salt(schema, []any{1, token0})
		assert.ErrorIs(t, err, ErrInvalidInputKind)
	})
}

func TestSchema_Canonicalize(t *testing.T) {
	out, err := PoolSchema.Canonicalize([]any{token1, token0, 3000})
	require.NoError(t, err)

	assert.Equal(t, token0, out[0])
	assert.Equal(t, token1, out[1])
	// uint24 packs from *big.Int
	assert.Equal(t, big.NewInt(3000), out[2])

	schema := Schema{Types: []string{"uint32", "bool", "bytes32", "string"}}
	out, err = schema.Canonicalize([]any{big.NewInt(7), true, [32]byte{1}, "x"})
	require.NoError(t, err)
	assert.Equal(t, uint32(7), out[0])
	assert.Equal(t, true, out[1])
}

type recordingHasher struct {
	calls int
}

func (r *recordingHasher) hash(data ...[]byte) common.Hash {
	r.calls++
	return Keccak256(data...)
}

func TestDeriver_UsesCollaborators(t *testing.T) {
	h := &recordingHasher{}
	d := &Deriver{Hasher: h.hash}

	withCollab, err := d.PoolAddress(deployer, implementation, token0, token1, 3000)
	require.NoError(t, err)
	// salt, init code hash and the final preimage
	assert.Equal(t, 3, h.calls)

	var zero Deriver
	plain, err := zero.PoolAddress(deployer, implementation, token0, token1, 3000)
	require.NoError(t, err)
	assert.Equal(t, plain, withCollab)
}
