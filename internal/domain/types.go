package domain

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// Strategy selects how a contract reaches the chain
type Strategy string

const (
	// StrategyCreate deploys from the signer with a plain contract creation
	StrategyCreate Strategy = "create"
	// StrategyCreate2 deploys the artifact through the CREATE2 factory
	StrategyCreate2 Strategy = "create2"
	// StrategyClone deploys a minimal proxy of an implementation through the CREATE2 factory
	StrategyClone Strategy = "clone"
)

// Deterministic reports whether the address is known before broadcasting
func (s Strategy) Deterministic() bool {
	return s == StrategyCreate2 || s == StrategyClone
}

// Argument is one typed constructor (or salt) argument. Exactly one of Value
// and Ref is set; Ref names a previously deployed contract.
type Argument struct {
	Type     string `yaml:"type"`
	Value    string `yaml:"value,omitempty"`
	Ref      string `yaml:"ref,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
}

// EncodingASCII packs a string into a fixed bytes type instead of parsing hex
const EncodingASCII = "ascii"

// DeploymentSpec is one step of a deployment plan
type DeploymentSpec struct {
	Name           string
	Artifact       string
	Strategy       Strategy
	Implementation string
	Args           []Argument
	Libraries      map[string]string
	Salt           string
	SaltString     string
	Pair           *[2]int
	Networks       []string
}

// AppliesTo reports whether the step runs on network
func (s DeploymentSpec) AppliesTo(network string) bool {
	return len(s.Networks) == 0 || slices.Contains(s.Networks, network)
}

// References returns every logical name the step reads
func (s DeploymentSpec) References() []string {
	var refs []string
	if s.Strategy == StrategyClone && s.Implementation != "" && !common.IsHexAddress(s.Implementation) {
		refs = append(refs, s.Implementation)
	}
	for _, arg := range s.Args {
		if arg.Ref != "" {
			refs = append(refs, arg.Ref)
		}
	}
	for _, lib := range s.Libraries {
		if !common.IsHexAddress(lib) {
			refs = append(refs, lib)
		}
	}
	return refs
}

// NonceState is the confirmed and pending transaction count of a signer
type NonceState struct {
	Latest  uint64
	Pending uint64
}

// HasGap reports whether a submitted transaction is still unmined
func (n NonceState) HasGap() bool {
	return n.Pending > n.Latest
}

// Gap returns the stalled nonces, lowest first
func (n NonceState) Gap() []uint64 {
	if !n.HasGap() {
		return nil
	}
	gap := make([]uint64, 0, n.Pending-n.Latest)
	for nonce := n.Latest; nonce < n.Pending; nonce++ {
		gap = append(gap, nonce)
	}
	return gap
}

// TxRequest is an unsigned transaction. A nil To creates a contract.
type TxRequest struct {
	To       *common.Address
	Nonce    uint64
	Value    *big.Int
	Data     []byte
	GasPrice *big.Int
	GasLimit uint64
}

// Receipt is the part of a transaction receipt the orchestrator inspects
type Receipt struct {
	TxHash          common.Hash
	ContractAddress common.Address
	BlockNumber     uint64
	GasUsed         uint64
	Status          uint64
}

// Succeeded reports a successful execution status
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// LinkOffset locates a library address inside bytecode, in bytes
type LinkOffset struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// LinkReferences maps source file -> library name -> offsets
type LinkReferences map[string]map[string][]LinkOffset

// Artifact is compiled contract output
type Artifact struct {
	Name           string
	SourceName     string
	Path           string
	ABI            []byte
	Bytecode       string
	LinkReferences LinkReferences
}

// FullyQualifiedName returns "source:Name", or the bare name when the source is unknown
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.Name
	}
	return a.SourceName + ":" + a.Name
}

// StepState is where a deployment step ended up
type StepState string

const (
	StepUnresolved   StepState = "unresolved"
	StepAddressKnown StepState = "address-known"
	StepSubmitting   StepState = "submitting"
	StepConfirmed    StepState = "confirmed"
	StepPredicted    StepState = "predicted"
	StepSkipped      StepState = "skipped"
	StepFailed       StepState = "failed"
)
