package ton

import (
	"crypto/ed25519"
	"encoding/base64"
	"math/big"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/Jayke770/stablebot-worker/log"
	"github.com/Jayke770/stablebot-worker/tokens"
)

const (
	// pay transfer fees separately and ignore action errors
	sendMode = 3

	messageTTL = 300 * time.Second
)

// Transfer signs and submits a native or jetton transfer as an external
// message to the operator's wallet contract. It fails fast on an
// invalid amount and never retries internally.
func (b *Adapter) Transfer(args *tokens.TransferArgs) *tokens.BroadcastResult {
	if err := tokens.CheckTransferAmount(args.AmountInUnit); err != nil {
		return &tokens.BroadcastResult{Status: false, Message: err.Error()}
	}

	key, err := b.privateKey(args.Wallet)
	if err != nil {
		log.Error("ton recover signing key failed", "chainID", b.Desc.ChainID, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "recover signing key failed"}
	}
	pubKey := key.Public().(ed25519.PublicKey)
	walletAddr := walletAddress(pubKey)

	receiver, err := parseAddress(args.ReceiverAddress)
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "invalid receiver address"}
	}

	info, err := b.getWalletInformation(walletAddr.String())
	if err != nil {
		return &tokens.BroadcastResult{Status: false, Message: "get wallet state failed"}
	}
	seqno := info.Result.Seqno
	deployed := info.Result.AccountState == "active"

	var internal *cell.Cell
	if args.Token.IsNative {
		amount := tokens.ToBaseUnits(args.AmountInUnit, b.Desc.NativeDecimals)
		internal = internalMessage(receiver, amount, nil, false)
	} else {
		jettonWallet, err := b.jettonWalletAddress(args.Token.Address, walletAddr.String())
		if err != nil {
			log.Error("ton resolve jetton wallet failed",
				"chainID", b.Desc.ChainID, "jetton", args.Token.Address, "err", err)
			return &tokens.BroadcastResult{Status: false, Message: "resolve jetton wallet failed"}
		}
		amount := tokens.ToBaseUnits(args.AmountInUnit, args.Token.Decimals)
		body := jettonTransferBody(amount, receiver, walletAddr)
		internal = internalMessage(jettonWallet, big.NewInt(jettonTransferAttachAmount), body, true)
	}

	external := externalMessage(key, pubKey, walletAddr, seqno, deployed, internal)
	encoded := base64.StdEncoding.EncodeToString(external.ToBOC())

	fee, err := b.estimateFee(walletAddr.String(), encoded)
	if err != nil {
		fee = 0
	}

	txHash, err := b.sendBoc(encoded)
	if err != nil {
		log.Error("ton broadcast failed", "chainID", b.Desc.ChainID, "err", err)
		return &tokens.BroadcastResult{Status: false, Message: "broadcast failed"}
	}

	log.Info("ton transfer broadcast",
		"chainID", b.Desc.ChainID, "token", args.Token.Symbol,
		"amount", args.AmountInUnit, "receiver", args.ReceiverAddress, "txHash", txHash)
	return &tokens.BroadcastResult{
		Status: true,
		TxHash: txHash,
		Fee:    tokens.FromBaseUnits(big.NewInt(fee), b.Desc.NativeDecimals),
	}
}

// internalMessage builds an int_msg_info message carrying amount
// nanotons to dest, with an optional body in a reference.
func internalMessage(dest *address.Address, amount *big.Int, body *cell.Cell, bounce bool) *cell.Cell {
	head := uint64(0x10) // ihr disabled, not bounced, src addr_none
	if bounce {
		head = 0x18
	}
	builder := cell.BeginCell().
		MustStoreUInt(head, 6).
		MustStoreAddr(dest).
		MustStoreBigCoins(amount).
		MustStoreUInt(0, 1+4+4+64+32). // no extra currencies, zero fees, lt and time set by validators
		MustStoreUInt(0, 1)            // no state init
	if body != nil {
		builder.MustStoreUInt(1, 1).MustStoreRef(body)
	} else {
		builder.MustStoreUInt(0, 1)
	}
	return builder.EndCell()
}

// jettonTransferBody builds the TEP-74 transfer body. Excess gas is
// returned to the wallet and one nanoton is forwarded so the receiver
// gets a transfer_notification.
func jettonTransferBody(amount *big.Int, dest, response *address.Address) *cell.Cell {
	return cell.BeginCell().
		MustStoreUInt(opJettonTransfer, 32).
		MustStoreUInt(0, 64). // query id
		MustStoreBigCoins(amount).
		MustStoreAddr(dest).
		MustStoreAddr(response).
		MustStoreUInt(0, 1). // no custom payload
		MustStoreCoins(1).   // forward ton amount
		MustStoreUInt(0, 1). // no forward payload
		EndCell()
}

// externalMessage wraps the internal message into a signed wallet v4
// external-in message. The state init ref is attached on the first
// transfer from a not yet deployed wallet.
func externalMessage(key ed25519.PrivateKey, pubKey ed25519.PublicKey, walletAddr *address.Address, seqno uint64, deployed bool, internal *cell.Cell) *cell.Cell {
	validUntil := uint64(time.Now().Add(messageTTL).Unix())
	toSign := cell.BeginCell().
		MustStoreUInt(walletID, 32).
		MustStoreUInt(validUntil, 32).
		MustStoreUInt(seqno, 32).
		MustStoreUInt(0, 8). // op: plain send
		MustStoreUInt(sendMode, 8).
		MustStoreRef(internal).
		EndCell()
	signature := ed25519.Sign(key, toSign.Hash())
	body := cell.BeginCell().
		MustStoreSlice(signature, 512).
		MustStoreBuilder(toSign.ToBuilder()).
		EndCell()

	builder := cell.BeginCell().
		MustStoreUInt(0b10, 2). // ext_in_msg_info
		MustStoreUInt(0, 2).    // src addr_none
		MustStoreAddr(walletAddr).
		MustStoreCoins(0) // import fee
	if deployed {
		builder.MustStoreUInt(0, 1)
	} else {
		builder.MustStoreUInt(0b11, 2).MustStoreRef(walletStateInit(pubKey))
	}
	return builder.
		MustStoreUInt(1, 1). // body in reference
		MustStoreRef(body).
		EndCell()
}
