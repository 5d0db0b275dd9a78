// Package htlcsign handles key generation/derivation and transaction
// signing for HTLC funding, redeem, and refund spends.
//
// Signatures are computed over the legacy (pre-SegWit) Bitcoin sighash
// preimage, not Zcash's post-Overwinter ZIP-243 preimage. A transaction
// built this way will be rejected by a live Zcash node; this mirrors the
// behavior of the system this was modeled on and is a known, documented
// gap rather than an oversight.
package htlcsign

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
)

// SighashAll is the only sighash type this system uses.
const SighashAll = txscript.SigHashAll

// GeneratePrivateKey returns a fresh secp256k1 private key as 32 raw bytes,
// drawn from a cryptographically secure RNG.
func GeneratePrivateKey() ([]byte, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("htlcsign: generate private key: %w", err)
	}
	return key.Serialize(), nil
}

// ParsePrivateKey decodes a 32-byte hex-encoded private key.
func ParsePrivateKey(privKeyHex string) (*btcec.PrivateKey, error) {
	raw, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("htlcsign: InvalidPrivateKey: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("htlcsign: InvalidPrivateKey: must be 32 bytes, got %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return key, nil
}

// DerivePublicKey returns the 33-byte compressed SEC1 public key for a
// private key.
func DerivePublicKey(key *btcec.PrivateKey) []byte {
	return key.PubKey().SerializeCompressed()
}

// signInput computes the legacy sighash for input index i against
// scriptCode and signs it, returning a DER signature with the SIGHASH_ALL
// byte appended.
func signInput(tx *wire.MsgTx, index int, scriptCode []byte, key *btcec.PrivateKey) ([]byte, error) {
	sighash, err := txscript.CalcSignatureHash(scriptCode, SighashAll, tx, index)
	if err != nil {
		return nil, fmt.Errorf("htlcsign: compute sighash: %w", err)
	}
	sig := btcecdsa.Sign(key, sighash)
	return append(sig.Serialize(), byte(SighashAll)), nil
}

// VerifySignature reports whether sig (DER, without the trailing sighash
// type byte) is a valid signature over sighash by pubKey.
func VerifySignature(sig, sighash, pubKeyBytes []byte) bool {
	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false
	}
	parsed, err := btcecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(sighash, pubKey)
}

// SignFunding signs every input of a funding transaction as a standard
// P2PKH spend: script_code is the input's own scriptPubKey, and the
// resulting script_sig is push(sig) push(pubkey). All three slices must
// have equal length, one entry per input.
func SignFunding(tx *wire.MsgTx, inputScriptPubKeys [][]byte, privKeys []*btcec.PrivateKey) error {
	if len(tx.TxIn) != len(inputScriptPubKeys) || len(tx.TxIn) != len(privKeys) {
		return fmt.Errorf("htlcsign: MismatchedInputs: %d inputs, %d scriptPubKeys, %d keys",
			len(tx.TxIn), len(inputScriptPubKeys), len(privKeys))
	}

	for i := range tx.TxIn {
		sig, err := signInput(tx, i, inputScriptPubKeys[i], privKeys[i])
		if err != nil {
			return err
		}
		pubKey := DerivePublicKey(privKeys[i])

		b := txscript.NewScriptBuilder()
		b.AddData(sig)
		b.AddData(pubKey)
		scriptSig, err := b.Script()
		if err != nil {
			return fmt.Errorf("htlcsign: build script_sig: %w", err)
		}
		tx.TxIn[i].SignatureScript = scriptSig
	}
	return nil
}

// SignRedeem signs the OP_IF (redeem) branch of an HTLC input. script_code
// is the full redeem script; the resulting script_sig is
// push(sig) push(secret) OP_TRUE push(redeem_script), matching the P2SH
// convention of pushing the whole redeem script as a single trailing data
// element.
func SignRedeem(tx *wire.MsgTx, index int, redeemScript, secret []byte, key *btcec.PrivateKey) error {
	if !htlcscript.VerifySecret(secret, mustHashLock(redeemScript)) {
		return fmt.Errorf("htlcsign: InvalidSecret")
	}

	sig, err := signInput(tx, index, redeemScript, key)
	if err != nil {
		return err
	}

	b := txscript.NewScriptBuilder()
	b.AddData(sig)
	b.AddData(secret)
	b.AddOp(txscript.OP_TRUE)
	b.AddData(redeemScript)
	scriptSig, err := b.Script()
	if err != nil {
		return fmt.Errorf("htlcsign: build script_sig: %w", err)
	}
	tx.TxIn[index].SignatureScript = scriptSig
	return nil
}

// SignRefund signs the OP_ELSE (refund) branch of an HTLC input. script_sig
// is push(sig) OP_FALSE push(redeem_script).
func SignRefund(tx *wire.MsgTx, index int, redeemScript []byte, key *btcec.PrivateKey) error {
	sig, err := signInput(tx, index, redeemScript, key)
	if err != nil {
		return err
	}

	b := txscript.NewScriptBuilder()
	b.AddData(sig)
	b.AddOp(txscript.OP_FALSE)
	b.AddData(redeemScript)
	scriptSig, err := b.Script()
	if err != nil {
		return fmt.Errorf("htlcsign: build script_sig: %w", err)
	}
	tx.TxIn[index].SignatureScript = scriptSig
	return nil
}

// mustHashLock extracts the hash lock from a redeem script for use as a
// precondition check before signing a redeem spend. Returns nil (which
// never verifies) if the script cannot be parsed.
func mustHashLock(redeemScript []byte) []byte {
	parsed, err := htlcscript.Parse(redeemScript)
	if err != nil {
		return nil
	}
	return parsed.HashLock
}
</content>
</invoke>
