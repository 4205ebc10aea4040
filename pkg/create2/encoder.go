package create2

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABIEncoder encodes values with the standard contract ABI (abi.encode)
type ABIEncoder struct{}

// Encode packs values according to types
func (ABIEncoder) Encode(types []string, values []any) ([]byte, error) {
	args, err := Arguments(types)
	if err != nil {
		return nil, err
	}
	return args.Pack(values...)
}

// Arguments builds abi.Arguments from solidity type names
func Arguments(types []string) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, typ := range types {
		t, err := abi.NewType(typ, "", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse abi type %q: %w", typ, err)
		}
		args = append(args, abi.Argument{Type: t})
	}
	return args, nil
}
