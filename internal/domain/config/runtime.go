package config

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string
	RunID       string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Deploy command settings
	DryRun        bool
	ExitAfterHeal bool
	Yes           bool
	PlanFile      string
	MetricsFile   string

	// Resolved configurations
	Sling       *SlingConfig
	AddressBook AddressBookConfig
	Deploy      Deploy
}

// Network is a resolved network entry from sling.toml
type Network struct {
	Name                string
	RPCURL              string
	ChainID             uint64
	Local               bool
	GasPrice            *big.Int // nil means ask the node
	GasLimit            uint64   // 0 means estimate
	ConfirmationTimeout time.Duration
	Signer              SignerConfig
	Verification        *VerificationConfig
}

// Deploy holds resolved deployment settings
type Deploy struct {
	PlanFile     string
	ArtifactsDir string
	Factory      common.Address
	HealGasBump  uint64 // percent added to the gas price of heal transactions
}
