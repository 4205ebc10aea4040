package create2

import "github.com/ethereum/go-ethereum/common"

// EIP-1167 minimal proxy creation code:
//
//	3d602d80600a3d3981f3              constructor prologue, returns the runtime below
//	363d3d373d3d3d363d73 <impl>       runtime head, pushes the implementation address
//	5af43d82803e903d91602b57fd5bf3    delegatecall and bubble up return/revert
var minimalProxyTemplate = [MinimalProxyInitCodeSize]byte{
	0x3d, 0x60, 0x2d, 0x80, 0x60, 0x0a, 0x3d, 0x39, 0x81, 0xf3,
	0x36, 0x3d, 0x3d, 0x37, 0x3d, 0x3d, 0x3d, 0x36, 0x3d, 0x73,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x5a, 0xf4, 0x3d, 0x82, 0x80, 0x3e, 0x90, 0x3d, 0x91, 0x60,
	0x2b, 0x57, 0xfd, 0x5b, 0xf3,
}

const (
	// MinimalProxyInitCodeSize is the length of the proxy creation code
	MinimalProxyInitCodeSize = 55

	// ImplementationOffset is where the implementation address starts in the template
	ImplementationOffset = 20
)

// MinimalProxyInitCode returns the creation code of a minimal proxy delegating to impl
func MinimalProxyInitCode(impl common.Address) []byte {
	code := minimalProxyTemplate
	copy(code[ImplementationOffset:ImplementationOffset+common.AddressLength], impl.Bytes())
	return code[:]
}

// MinimalProxyInitCodeHash returns keccak256 of the proxy creation code
func MinimalProxyInitCodeHash(impl common.Address) common.Hash {
	return Keccak256(MinimalProxyInitCode(impl))
}
