package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

// SlingFileName is the project configuration file
const SlingFileName = "sling.toml"

// LoadSlingConfig loads .env files from the project root, then parses the
// config file at path and expands ${VAR} references in every value.
// A missing file yields an empty config.
func LoadSlingConfig(projectRoot, path string) (*config.SlingConfig, error) {
	loadEnvFiles(projectRoot)

	if path == "" {
		path = filepath.Join(projectRoot, SlingFileName)
	}

	cfg := &config.SlingConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	expandSlingConfig(cfg)
	return cfg, nil
}

// loadEnvFiles loads .env then .env.local. Variables already set in the
// environment are kept.
func loadEnvFiles(projectRoot string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}
}

func expandSlingConfig(cfg *config.SlingConfig) {
	for name, network := range cfg.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.GasPrice = os.ExpandEnv(network.GasPrice)
		network.ConfirmationTimeout = os.ExpandEnv(network.ConfirmationTimeout)
		if network.Signer != nil {
			signer := expandSigner(*network.Signer)
			network.Signer = &signer
		}
		cfg.Networks[name] = network
	}

	cfg.Signer = expandSigner(cfg.Signer)

	for name, v := range cfg.Verification {
		v.APIKey = os.ExpandEnv(v.APIKey)
		v.APIURL = os.ExpandEnv(v.APIURL)
		v.BrowserURL = os.ExpandEnv(v.BrowserURL)
		cfg.Verification[name] = v
	}

	cfg.AddressBook.Dir = os.ExpandEnv(cfg.AddressBook.Dir)
	cfg.AddressBook.Path = os.ExpandEnv(cfg.AddressBook.Path)

	cfg.Deploy.Plan = os.ExpandEnv(cfg.Deploy.Plan)
	cfg.Deploy.Artifacts = os.ExpandEnv(cfg.Deploy.Artifacts)
	cfg.Deploy.Factory = os.ExpandEnv(cfg.Deploy.Factory)
	cfg.Deploy.ConfirmationTimeout = os.ExpandEnv(cfg.Deploy.ConfirmationTimeout)
}

func expandSigner(s config.SignerConfig) config.SignerConfig {
	return config.SignerConfig{
		PrivateKey:     os.ExpandEnv(s.PrivateKey),
		Mnemonic:       os.ExpandEnv(s.Mnemonic),
		DerivationPath: os.ExpandEnv(s.DerivationPath),
	}
}
