package ton

import (
	"bytes"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"golang.org/x/crypto/pbkdf2"

	"github.com/Jayke770/stablebot-worker/tokens"
	"github.com/Jayke770/stablebot-worker/tools"
)

// wallet v4r2 contract code
const walletV4R2CodeBOC = "te6ccgECFAEAAtQAART/APSkE/S88sgLAQIBIAIDAgFIBAUE+PKDCNcYINMf0x/THwL4I7vyZO1E0NMf0x/T//QE0VFDuvKhUVG68qIF+QFUEGT5EPKj+AAkpMjLH1JAyx9SMMv/UhD0AMntVPgPAdMHIcAAn2xRkyDXSpbTB9QC+wDoMOAhwAHjACHAAuMAAcADkTDjDQOkyMsfEssfy/8QERITAubQAdDTAyFxsJJfBOAi10nBIJJfBOAC0x8hghBwbHVnvSKCEGRzdHK9sJJfBeAD+kAwIPpEAcjKB8v/ydDtRNCBAUDXIfQEMFyBAQj0Cm+hMbOSXwfgBdM/yCWCEHBsdWe6kjgw4w0DghBkc3RyupJfBuMNBgcCASAICQB4AfoA9AQw+CdvIjBQCqEhvvLgUIIQcGx1Z4MesXCAGFAEywUmzxZY+gIZ9ADLaRfLH1Jgyz8gyYBA+wAGAIpQBIEBCPRZMO1E0IEBQNcgyAHPFvQAye1UAXKwjiOCEGRzdHKDHrFwgBhQBcsFUAPPFiP6AhPLassfyz/JgED7AJJfA+ICASAKCwBZvSQrb2omhAgKBrkPoCGEcNQICEekk30pkQzmkD6f+YN4EoAbeBAUiYcVnzGEAgFYDA0AEbjJftRNDXCx+AA9sp37UTQgQFA1yH0BDACyMoHy//J0AGBAQj0Cm+hMYAIBIA4PABmtznaiaEAga5Drhf/AABmvHfaiaEAQa5DrhY/AAG7SB/oA1NQi+QAFyMoHFcv/ydB3dIAYyMsFywIizxZQBfoCFMtrEszMyXP7AMhAFIEBCPRR8qcCAHCBAQjXGPoA0z/IVCBHgQEI9FHyp4IQbm90ZXB0gBjIywXLAlAGzxZQBPoCFMtqEssfyz/Jc/sAAgBsgQEI1xj6ANM/MFIkgQEI9Fnyp4IQZHN0cnB0gBjIywXLAlAFzxZQA/oCE8tqyx8Syz/Jc/sAAAr0AMntVA=="

var walletV4R2Code = mustCodeCell(walletV4R2CodeBOC)

func mustCodeCell(encoded string) *cell.Cell {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		panic(err)
	}
	c, err := cell.FromBOC(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// DeriveWallet derives the v4r2 wallet for the given mnemonic and
// returns its address with the encrypted mnemonic.
func (b *Adapter) DeriveWallet(mnemonic string) (*tokens.Wallet, error) {
	key, err := keyFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	addr := walletAddress(key.Public().(ed25519.PublicKey))
	encrypted, err := tools.Encrypt(mnemonic)
	if err != nil {
		return nil, err
	}
	return &tokens.Wallet{
		Address:           addr.String(),
		EncryptedMnemonic: encrypted,
		Family:            tokens.FamilyTON,
	}, nil
}

func (b *Adapter) privateKey(wallet *tokens.Wallet) (ed25519.PrivateKey, error) {
	mnemonic, err := tools.Decrypt(wallet.EncryptedMnemonic)
	if err != nil {
		return nil, err
	}
	return keyFromMnemonic(mnemonic)
}

// keyFromMnemonic derives the ed25519 key the TON way: the phrase is
// stretched with hmac-sha512 and then pbkdf2 under the fixed
// "TON default seed" salt, not through a bip32 path.
func keyFromMnemonic(mnemonic string) (ed25519.PrivateKey, error) {
	phrase := strings.TrimSpace(mnemonic)
	if len(strings.Fields(phrase)) != 24 {
		return nil, fmt.Errorf("%w: ton mnemonic must have 24 words", tokens.ErrDeriveWallet)
	}
	mac := hmac.New(sha512.New, []byte(phrase))
	mac.Write([]byte(""))
	entropy := mac.Sum(nil)
	seed := pbkdf2.Key(entropy, []byte("TON default seed"), 100000, 32, sha512.New)
	return ed25519.NewKeyFromSeed(seed), nil
}

func walletDataCell(pubKey ed25519.PublicKey) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(0, 32). // seqno
		MustStoreUInt(walletID, 32).
		MustStoreSlice(pubKey, 256).
		MustStoreUInt(0, 1). // empty plugins dict
		EndCell()
}

func walletStateInit(pubKey ed25519.PublicKey) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(0b00110, 5). // no split depth, no special, code and data present, no libraries
		MustStoreRef(walletV4R2Code).
		MustStoreRef(walletDataCell(pubKey)).
		EndCell()
}

func walletAddress(pubKey ed25519.PublicKey) *address.Address {
	return address.NewAddress(0, 0, walletStateInit(pubKey).Hash())
}

// parseAddress accepts both the user friendly and the raw form.
func parseAddress(s string) (*address.Address, error) {
	if addr, err := address.ParseAddr(s); err == nil {
		return addr, nil
	}
	addr, err := address.ParseRawAddr(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tokens.ErrInvalidAddress, s)
	}
	return addr, nil
}

// normalizeAddress rewrites any address form into the friendly form so
// addresses coming from different API surfaces compare equal.
func normalizeAddress(s string) string {
	addr, err := parseAddress(s)
	if err != nil {
		return s
	}
	return address.NewAddress(0, byte(addr.Workchain()), addr.Data()).String()
}

// IsValidAddress reports whether s parses as a TON address.
func IsValidAddress(s string) bool {
	_, err := parseAddress(s)
	return err == nil
}

func sameAddress(a, b string) bool {
	pa, err := parseAddress(a)
	if err != nil {
		return false
	}
	pb, err := parseAddress(b)
	if err != nil {
		return false
	}
	return pa.Workchain() == pb.Workchain() && bytes.Equal(pa.Data(), pb.Data())
}
