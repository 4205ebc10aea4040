package config

// SlingConfig is the raw sling.toml structure
type SlingConfig struct {
	Networks     map[string]NetworkConfig      `toml:"networks"`
	Signer       SignerConfig                  `toml:"signer"`
	Verification map[string]VerificationConfig `toml:"verification"`
	AddressBook  AddressBookConfig             `toml:"addressbook"`
	Deploy       DeployConfig                  `toml:"deploy"`
}

// NetworkConfig is a [networks.<name>] table
type NetworkConfig struct {
	RPCURL              string        `toml:"rpc_url"`
	ChainID             uint64        `toml:"chain_id"`
	Local               bool          `toml:"local"`
	GasPrice            string        `toml:"gas_price"`
	GasLimit            uint64        `toml:"gas_limit"`
	ConfirmationTimeout string        `toml:"confirmation_timeout"`
	Signer              *SignerConfig `toml:"signer"`
}

// SignerConfig holds signer credentials. PrivateKey wins over Mnemonic.
type SignerConfig struct {
	PrivateKey     string `toml:"private_key"`
	Mnemonic       string `toml:"mnemonic"`
	DerivationPath string `toml:"derivation_path"`
}

// IsZero reports whether no credential is configured
func (s SignerConfig) IsZero() bool {
	return s.PrivateKey == "" && s.Mnemonic == ""
}

// VerificationConfig holds block explorer API credentials for a network
type VerificationConfig struct {
	APIKey     string `toml:"api_key"`
	APIURL     string `toml:"api_url"`
	BrowserURL string `toml:"browser_url"`
}

// AddressBookConfig selects the address book backend
type AddressBookConfig struct {
	Backend string `toml:"backend"` // "file" or "sqlite"
	Dir     string `toml:"dir"`
	Path    string `toml:"path"`
}

// DeployConfig is the [deploy] table
type DeployConfig struct {
	Plan                string `toml:"plan"`
	Artifacts           string `toml:"artifacts"`
	Factory             string `toml:"factory"`
	ConfirmationTimeout string `toml:"confirmation_timeout"`
	HealGasBump         uint64 `toml:"heal_gas_bump"`
}
