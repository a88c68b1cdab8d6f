package tron

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcutil/base58"

	"github.com/Jayke770/stablebot-worker/tokens"
)

// addressPrefix is the TRON mainnet address version byte ("T..." in base58)
const addressPrefix = byte(0x41)

// HexToBase58 converts a 41-prefixed hex address to base58check form.
func HexToBase58(hexAddr string) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(hexAddr), "0x")
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != 21 || decoded[0] != addressPrefix {
		return "", tokens.ErrInvalidAddress
	}
	return base58.CheckEncode(decoded[1:], addressPrefix), nil
}

// Base58ToHex converts a base58check address to 41-prefixed hex form.
func Base58ToHex(addr string) (string, error) {
	payload, version, err := base58.CheckDecode(strings.TrimSpace(addr))
	if err != nil || version != addressPrefix || len(payload) != 20 {
		return "", tokens.ErrInvalidAddress
	}
	return hex.EncodeToString(append([]byte{addressPrefix}, payload...)), nil
}

// IsValidAddress reports whether addr is a well formed base58check
// TRON address.
func IsValidAddress(addr string) bool {
	_, err := Base58ToHex(addr)
	return err == nil
}
