package eth

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

// DeriveWallet derives the m/44'/60'/0'/0/0 account of the seed phrase.
// The stored mnemonic is encrypted, the address is checksummed hex.
func (b *Adapter) DeriveWallet(mnemonic string) (*tokens.Wallet, error) {
	key, err := tokens.DeriveECDSAKey(mnemonic, tokens.CoinTypeEVM)
	if err != nil {
		return nil, err
	}
	encrypted, err := tools.Encrypt(mnemonic)
	if err != nil {
		return nil, err
	}
	return &tokens.Wallet{
		Address:           crypto.PubkeyToAddress(key.PublicKey).Hex(),
		EncryptedMnemonic: encrypted,
		Family:            tokens.FamilyEVM,
	}, nil
}

// privateKey recovers the signing key from a wallet's encrypted seed
// phrase. The plaintext phrase never leaves this call.
func (b *Adapter) privateKey(wallet *tokens.Wallet) (*ecdsa.PrivateKey, error) {
	mnemonic, err := tools.Decrypt(wallet.EncryptedMnemonic)
	if err != nil {
		return nil, err
	}
	return tokens.DeriveECDSAKey(mnemonic, tokens.CoinTypeEVM)
}
