package tron

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

// DeriveWallet derives the m/44'/195'/0'/0/0 account of the seed
// phrase. TRON reuses the secp256k1/keccak scheme of EVM with a 0x41
// version byte and base58check encoding.
func (b *Adapter) DeriveWallet(mnemonic string) (*tokens.Wallet, error) {
	key, err := tokens.DeriveECDSAKey(mnemonic, tokens.CoinTypeTRON)
	if err != nil {
		return nil, err
	}
	encrypted, err := tools.Encrypt(mnemonic)
	if err != nil {
		return nil, err
	}
	return &tokens.Wallet{
		Address:           addressOfKey(key),
		EncryptedMnemonic: encrypted,
		Family:            tokens.FamilyTRON,
	}, nil
}

func addressOfKey(key *ecdsa.PrivateKey) string {
	ethAddr := crypto.PubkeyToAddress(key.PublicKey)
	return base58.CheckEncode(ethAddr.Bytes(), addressPrefix)
}

func (b *Adapter) privateKey(wallet *tokens.Wallet) (*ecdsa.PrivateKey, error) {
	mnemonic, err := tools.Decrypt(wallet.EncryptedMnemonic)
	if err != nil {
		return nil, err
	}
	return tokens.DeriveECDSAKey(mnemonic, tokens.CoinTypeTRON)
}
