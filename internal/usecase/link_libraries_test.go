package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain"
)

const descriptorFQN = "contracts/libraries/NFTDescriptor.sol:NFTDescriptor"

func TestLibraryPlaceholder(t *testing.T) {
	p := LibraryPlaceholder(descriptorFQN)
	assert.Len(t, p, 40)
	assert.True(t, strings.HasPrefix(p, "__$"))
	assert.True(t, strings.HasSuffix(p, "$__"))
}

func TestLinkBytecode(t *testing.T) {
	lib := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	libHex := strings.ToLower(lib.Hex()[2:])
	placeholder := LibraryPlaceholder(descriptorFQN)
	unlinked := "0x6080" + placeholder + "5050" + placeholder + "00"

	refs := domain.LinkReferences{
		"contracts/libraries/NFTDescriptor.sol": {
			"NFTDescriptor": {{Start: 2, Length: 20}, {Start: 24, Length: 20}},
		},
	}

	tests := []struct {
		name       string
		refs       domain.LinkReferences
		libs       map[string]common.Address
		expected   string
		unresolved []string
	}{
		{
			name:     "by offsets with bare name",
			refs:     refs,
			libs:     map[string]common.Address{"NFTDescriptor": lib},
			expected: "0x6080" + libHex + "5050" + libHex + "00",
		},
		{
			name:     "by placeholder with fully qualified name",
			libs:     map[string]common.Address{descriptorFQN: lib},
			expected: "0x6080" + libHex + "5050" + libHex + "00",
		},
		{
			name:       "missing library from references",
			refs:       refs,
			libs:       map[string]common.Address{"Other": lib},
			unresolved: []string{descriptorFQN},
		},
		{
			name:       "placeholder without references",
			libs:       map[string]common.Address{"NFTDescriptor": lib},
			unresolved: []string{placeholder},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LinkBytecode(unlinked, tt.refs, tt.libs)
			if tt.unresolved != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrUnresolvedLibraryReference))

				var libErr *domain.UnresolvedLibraryError
				require.True(t, errors.As(err, &libErr))
				assert.Equal(t, tt.unresolved, libErr.Libraries)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("nothing to link", func(t *testing.T) {
		got, err := LinkBytecode("6080604052", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "0x6080604052", got)
	})

	t.Run("offset out of range", func(t *testing.T) {
		_, err := LinkBytecode("0x6080", refs, map[string]common.Address{"NFTDescriptor": lib})
		assert.Error(t, err)
	})
}
