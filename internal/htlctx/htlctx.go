// Package htlctx assembles the funding, redeem, and refund transactions
// for an HTLC: input/output layout, fee estimation, amount parsing, and
// address decoding.
package htlctx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
	"github.com/klingon-htlc/zcash-htlc/pkg/helpers"
)

const (
	// DustThreshold is the minimum output value, in zatoshis, this
	// builder will create.
	DustThreshold uint64 = 546
	// DefaultFeeRate is expressed in zatoshis per 1000 virtual bytes.
	DefaultFeeRate uint64 = 1000
	// TxVersion is used for every transaction this package builds.
	TxVersion = 4
	// RefundSequence is set on the refund transaction's sole input so
	// that nSequence < 0xFFFFFFFF, which CHECKLOCKTIMEVERIFY requires
	// in order to actually enforce the locktime (BIP65).
	RefundSequence uint32 = 0xFFFFFFFE
)

// UTXO is a spendable output this builder can consume as a funding input.
type UTXO struct {
	TxID         string
	Vout         uint32
	Amount       string // canonical decimal ZEC string
	ScriptPubKey []byte
}

// EstimateSize returns the estimated transaction size in bytes for the
// given input/output counts.
func EstimateSize(numInputs, numOutputs int) int {
	return 10 + 180*numInputs + 34*numOutputs
}

// EstimateFee returns the fee, in zatoshis, for a transaction of the given
// estimated size at DefaultFeeRate.
func EstimateFee(estimatedSize int) uint64 {
	return uint64(estimatedSize) * DefaultFeeRate / 1000
}

// ParseAmount converts a decimal ZEC string (up to 8 fractional digits)
// into an integer zatoshi count using round-half-away-from-zero.
func ParseAmount(amount string) (uint64, error) {
	return helpers.ParseAmountZEC(amount)
}

// FormatAmount converts an integer zatoshi count into a canonical decimal
// ZEC string.
func FormatAmount(zatoshis uint64) string {
	return helpers.FormatAmountZEC(zatoshis)
}

// AddressToScriptPubKey decodes a base58check transparent address into its
// scriptPubKey, dispatching on the network's P2PKH/P2SH prefix.
func AddressToScriptPubKey(address string) ([]byte, error) {
	hash, _, kind, err := zecnet.DecodeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("htlctx: InvalidAddress: %w", err)
	}

	b := txscript.NewScriptBuilder()
	switch kind {
	case zecnet.KindP2PKH:
		b.AddOp(txscript.OP_DUP)
		b.AddOp(txscript.OP_HASH160)
		b.AddData(hash)
		b.AddOp(txscript.OP_EQUALVERIFY)
		b.AddOp(txscript.OP_CHECKSIG)
	case zecnet.KindP2SH:
		b.AddOp(txscript.OP_HASH160)
		b.AddData(hash)
		b.AddOp(txscript.OP_EQUAL)
	default:
		return nil, fmt.Errorf("htlctx: UnsupportedAddressType")
	}
	return b.Script()
}

// InsufficientFundsError reports a funding shortfall.
type InsufficientFundsError struct {
	Required, Available uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("htlctx: InsufficientFunds: required %d, available %d", e.Required, e.Available)
}

func outpointFromTxID(txid string, vout uint32) (*wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("htlctx: InvalidTxid: %w", err)
	}
	return wire.NewOutPoint(hash, vout), nil
}

// BuildFundingResult bundles the unsigned funding transaction with the
// redeem script and scriptPubKeys callers need in order to sign it.
type BuildFundingResult struct {
	Tx                  *wire.MsgTx
	RedeemScript        []byte
	InputScriptPubKeys  [][]byte
	HTLCOutputScriptHex string
}

// BuildFunding constructs the HTLC funding transaction: the HTLC P2SH
// output is always vout 0, with an optional change output at vout 1.
func BuildFunding(params htlcscript.Params, amountZEC string, utxos []UTXO, changeAddress string) (*BuildFundingResult, error) {
	amountSat, err := ParseAmount(amountZEC)
	if err != nil {
		return nil, fmt.Errorf("htlctx: InvalidAmount: %w", err)
	}
	if amountSat < DustThreshold {
		return nil, fmt.Errorf("htlctx: AmountTooSmall")
	}

	redeemScript, err := htlcscript.Build(params)
	if err != nil {
		return nil, fmt.Errorf("htlctx: script build failed: %w", err)
	}
	htlcScriptPubKey, err := htlcscript.P2SHScriptPubKey(redeemScript)
	if err != nil {
		return nil, fmt.Errorf("htlctx: script build failed: %w", err)
	}

	tx := wire.NewMsgTx(TxVersion)
	tx.LockTime = 0

	inputScriptPubKeys := make([][]byte, 0, len(utxos))
	var totalInput uint64
	for _, u := range utxos {
		outpoint, err := outpointFromTxID(u.TxID, u.Vout)
		if err != nil {
			return nil, err
		}
		txIn := wire.NewTxIn(outpoint, nil, nil)
		txIn.Sequence = wire.MaxTxInSequenceNum
		tx.AddTxIn(txIn)
		inputScriptPubKeys = append(inputScriptPubKeys, u.ScriptPubKey)

		amt, err := ParseAmount(u.Amount)
		if err != nil {
			return nil, fmt.Errorf("htlctx: InvalidAmount: %w", err)
		}
		totalInput += amt
	}

	numOutputs := 2 // assume change until proven otherwise, for fee estimation
	fee := EstimateFee(EstimateSize(len(tx.TxIn), numOutputs))

	if totalInput < amountSat+fee {
		return nil, &InsufficientFundsError{Required: amountSat + fee, Available: totalInput}
	}

	tx.AddTxOut(wire.NewTxOut(int64(amountSat), htlcScriptPubKey))

	change := totalInput - amountSat - fee
	if change > DustThreshold {
		changeScript, err := AddressToScriptPubKey(changeAddress)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}

	return &BuildFundingResult{
		Tx:                  tx,
		RedeemScript:        redeemScript,
		InputScriptPubKeys:  inputScriptPubKeys,
		HTLCOutputScriptHex: hex.EncodeToString(htlcScriptPubKey),
	}, nil
}

// BuildRedeem constructs the single-input, single-output redeem
// transaction spending the HTLC's funding outpoint.
func BuildRedeem(htlcTxID string, htlcVout uint32, amountZEC, recipientAddress string) (*wire.MsgTx, error) {
	amountSat, err := ParseAmount(amountZEC)
	if err != nil {
		return nil, fmt.Errorf("htlctx: InvalidAmount: %w", err)
	}
	fee := EstimateFee(EstimateSize(1, 1))
	if amountSat <= fee {
		return nil, fmt.Errorf("htlctx: AmountTooSmall")
	}

	outpoint, err := outpointFromTxID(htlcTxID, htlcVout)
	if err != nil {
		return nil, err
	}
	txIn := wire.NewTxIn(outpoint, nil, nil)
	txIn.Sequence = wire.MaxTxInSequenceNum

	outputScript, err := AddressToScriptPubKey(recipientAddress)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(TxVersion)
	tx.LockTime = 0
	tx.AddTxIn(txIn)
	tx.AddTxOut(wire.NewTxOut(int64(amountSat-fee), outputScript))
	return tx, nil
}

// BuildRefund constructs the single-input, single-output refund
// transaction, with lock_time set to the HTLC's timelock and the input's
// sequence set below 0xFFFFFFFF so CHECKLOCKTIMEVERIFY is enforced.
func BuildRefund(htlcTxID string, htlcVout uint32, amountZEC string, timelock uint64, refundAddress string) (*wire.MsgTx, error) {
	amountSat, err := ParseAmount(amountZEC)
	if err != nil {
		return nil, fmt.Errorf("htlctx: InvalidAmount: %w", err)
	}
	fee := EstimateFee(EstimateSize(1, 1))
	if amountSat <= fee {
		return nil, fmt.Errorf("htlctx: AmountTooSmall")
	}

	outpoint, err := outpointFromTxID(htlcTxID, htlcVout)
	if err != nil {
		return nil, err
	}
	txIn := wire.NewTxIn(outpoint, nil, nil)
	txIn.Sequence = RefundSequence

	outputScript, err := AddressToScriptPubKey(refundAddress)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(TxVersion)
	tx.LockTime = uint32(timelock)
	tx.AddTxIn(txIn)
	tx.AddTxOut(wire.NewTxOut(int64(amountSat-fee), outputScript))
	return tx, nil
}

// Serialize encodes a transaction to consensus-encoded hex.
func Serialize(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("htlctx: serialize: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// Deserialize decodes a consensus-encoded hex transaction.
func Deserialize(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("htlctx: InvalidHex: %w", err)
	}
	tx := wire.NewMsgTx(TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("htlctx: deserialization failed: %w", err)
	}
	return tx, nil
}
</content>
</invoke>
