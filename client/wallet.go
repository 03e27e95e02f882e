package client

import (
	"crypto/ecdsa"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"os"
	"strings"
)

// LoadKey returns the sender key from a raw hex private key or, when that is
// empty, from an encrypted keystore file.
func LoadKey(privateKeyHex, walletFile, password string) (*ecdsa.PrivateKey, error) {
	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
		if err != nil {
			return nil, errors.Wrap(err, "Failed to parse private key")
		}
		return key, nil
	}

	if walletFile == "" {
		return nil, errors.New("No private key or wallet file")
	}

	keyJSON, err := os.ReadFile(walletFile)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read wallet file")
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to decrypt wallet file")
	}

	return key.PrivateKey, nil
}
