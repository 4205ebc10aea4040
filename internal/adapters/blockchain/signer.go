package blockchain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/tyler-smith/go-bip39"
)

// ErrNoSigner is returned when neither a private key nor a mnemonic is configured
var ErrNoSigner = errors.New("no signer configured (set private_key or mnemonic)")

// LoadKey returns the signing key of cfg. A private key wins over a mnemonic.
func LoadKey(cfg config.SignerConfig) (*ecdsa.PrivateKey, error) {
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return key, nil
	}
	if cfg.Mnemonic != "" {
		return keyFromMnemonic(cfg.Mnemonic, cfg.DerivationPath)
	}
	return nil, ErrNoSigner
}

func keyFromMnemonic(mnemonic, path string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(strings.TrimSpace(mnemonic), "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	derivation := accounts.DefaultBaseDerivationPath
	if path != "" {
		if derivation, err = accounts.ParseDerivationPath(path); err != nil {
			return nil, fmt.Errorf("invalid derivation path %q: %w", path, err)
		}
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, index := range derivation {
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("deriving %s: %w", derivation, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}
