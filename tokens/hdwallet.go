package tokens

import (
	"crypto/ecdsa"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	bip39 "github.com/tyler-smith/go-bip39"
)

// BIP44 coin types of the secp256k1 chain families
const (
	CoinTypeEVM  uint32 = 60
	CoinTypeTRON uint32 = 195
)

// DeriveECDSAKey derives the secp256k1 private key at
// m/44'/coinType'/0'/0/0 from a BIP39 seed phrase. Derivation is pure:
// the same phrase always yields the same key.
func DeriveECDSAKey(mnemonic string, coinType uint32) (*ecdsa.PrivateKey, error) {
	phrase := strings.Join(strings.Fields(strings.TrimSpace(mnemonic)), " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrDeriveWallet
	}
	seed := bip39.NewSeed(phrase, "")
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart,
		0,
		0,
	}
	for _, child := range path {
		key, err = key.Derive(child)
		if err != nil {
			return nil, err
		}
	}
	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return privKey.ToECDSA(), nil
}
