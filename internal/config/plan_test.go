package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain"
)

const testPlan = `
steps:
  - name: WETH9
    networks: [localhost, hardhat]
  - name: Factory
    strategy: create2
    salt-string: SALT_V1
    args:
      - {type: address, ref: WETH9}
  - name: NFTDescriptor
  - name: PositionDescriptor
    libraries:
      NFTDescriptor: NFTDescriptor
    args:
      - {type: address, ref: WETH9}
      - {type: bytes32, value: ETH, encoding: ascii}
  - name: Pool
    strategy: clone
    implementation: Factory
    pair: [0, 1]
    args:
      - {type: address, value: "0x2222222222222222222222222222222222222222"}
      - {type: address, value: "0x1111111111111111111111111111111111111111"}
      - {type: uint24, value: "3000"}
`

func TestParsePlan(t *testing.T) {
	specs, err := ParsePlan([]byte(testPlan))
	require.NoError(t, err)
	require.Len(t, specs, 5)

	assert.Equal(t, domain.StrategyCreate, specs[0].Strategy)
	assert.Equal(t, "WETH9", specs[0].Artifact)
	assert.Equal(t, []string{"localhost", "hardhat"}, specs[0].Networks)

	assert.Equal(t, domain.StrategyCreate2, specs[1].Strategy)
	assert.Equal(t, "SALT_V1", specs[1].SaltString)
	assert.Equal(t, "WETH9", specs[1].Args[0].Ref)

	assert.Equal(t, map[string]string{"NFTDescriptor": "NFTDescriptor"}, specs[3].Libraries)
	assert.Equal(t, domain.EncodingASCII, specs[3].Args[1].Encoding)

	assert.Equal(t, domain.StrategyClone, specs[4].Strategy)
	assert.Equal(t, "Factory", specs[4].Implementation)
	require.NotNil(t, specs[4].Pair)
	assert.Equal(t, [2]int{0, 1}, *specs[4].Pair)
}

func TestParsePlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		plan string
	}{
		{name: "not yaml", plan: "steps: ["},
		{name: "no steps", plan: "steps: []"},
		{name: "missing name", plan: "steps:\n  - artifact: X"},
		{name: "duplicate name", plan: "steps:\n  - name: A\n  - name: A"},
		{name: "unknown strategy", plan: "steps:\n  - name: A\n    strategy: create3"},
		{name: "clone without implementation", plan: "steps:\n  - name: A\n    strategy: clone"},
		{name: "clone with libraries", plan: "steps:\n  - name: A\n    strategy: clone\n    implementation: B\n    libraries: {L: B}"},
		{name: "salt on create", plan: "steps:\n  - name: A\n    salt-string: X"},
		{name: "both salts", plan: "steps:\n  - name: A\n    strategy: create2\n    salt: \"0x01\"\n    salt-string: X"},
		{name: "argument without type", plan: "steps:\n  - name: A\n    args: [{value: \"1\"}]"},
		{name: "argument with value and ref", plan: "steps:\n  - name: A\n    args: [{type: address, value: \"0x01\", ref: B}]"},
		{name: "pair out of range", plan: "steps:\n  - name: A\n    strategy: create2\n    pair: [0, 3]\n    args: [{type: address, ref: B}]"},
		{name: "pair on non-address", plan: "steps:\n  - name: A\n    strategy: create2\n    pair: [0, 1]\n    args: [{type: address, ref: B}, {type: uint24, value: \"1\"}]"},
		{name: "zero implementation", plan: "steps:\n  - name: A\n    strategy: clone\n    implementation: \"0x0000000000000000000000000000000000000000\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.plan))
			assert.ErrorIs(t, err, domain.ErrInvalidPlan)
		})
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPlan), 0644))

	specs, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Len(t, specs, 5)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
