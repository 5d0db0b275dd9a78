// Package htlcscript builds the HTLC redeem script used by this system,
// its P2SH encapsulation, and the address/secret helpers that sit on top
// of it.
package htlcscript

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"golang.org/x/crypto/ripemd160"

	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
	"github.com/klingon-htlc/zcash-htlc/pkg/helpers"
)

// Params are the inputs needed to build an HTLC redeem script.
type Params struct {
	// HashLock is the 32-byte SHA-256 commitment to the redeem secret.
	HashLock []byte
	// RecipientPubKey is the 33-byte compressed SEC1 key that can claim
	// the HTLC by revealing the preimage.
	RecipientPubKey []byte
	// RefundPubKey is the 33-byte compressed SEC1 key that can reclaim
	// the HTLC after Timelock has passed.
	RefundPubKey []byte
	// Timelock is the absolute block height after which the refund
	// branch becomes spendable (OP_CHECKLOCKTIMEVERIFY).
	Timelock uint64
}

// Build constructs the canonical HTLC redeem script:
//
//	OP_IF
//	    OP_SHA256 <hash_lock> OP_EQUALVERIFY
//	    <recipient_pubkey> OP_CHECKSIG
//	OP_ELSE
//	    <timelock> OP_CHECKLOCKTIMEVERIFY OP_DROP
//	    <refund_pubkey> OP_CHECKSIG
//	OP_ENDIF
func Build(p Params) ([]byte, error) {
	if len(p.HashLock) != 32 {
		return nil, fmt.Errorf("htlcscript: InvalidHashLock: must be 32 bytes, got %d", len(p.HashLock))
	}
	if len(p.RecipientPubKey) != 33 {
		return nil, fmt.Errorf("htlcscript: InvalidPublicKey: recipient pubkey must be 33 bytes, got %d", len(p.RecipientPubKey))
	}
	if len(p.RefundPubKey) != 33 {
		return nil, fmt.Errorf("htlcscript: InvalidPublicKey: refund pubkey must be 33 bytes, got %d", len(p.RefundPubKey))
	}

	b := txscript.NewScriptBuilder()

	b.AddOp(txscript.OP_IF)
	b.AddOp(txscript.OP_SHA256)
	b.AddData(p.HashLock)
	b.AddOp(txscript.OP_EQUALVERIFY)
	b.AddData(p.RecipientPubKey)
	b.AddOp(txscript.OP_CHECKSIG)

	b.AddOp(txscript.OP_ELSE)
	b.AddInt64(int64(p.Timelock))
	b.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	b.AddOp(txscript.OP_DROP)
	b.AddData(p.RefundPubKey)
	b.AddOp(txscript.OP_CHECKSIG)

	b.AddOp(txscript.OP_ENDIF)

	return b.Script()
}

// Hash160 computes RIPEMD160(SHA-256(script)), the 20-byte hash a P2SH
// address and scriptPubKey both commit to.
func Hash160(script []byte) []byte {
	sha := sha256.Sum256(script)
	ripe := ripemd160.New()
	ripe.Write(sha[:])
	return ripe.Sum(nil)
}

// P2SHAddress derives the base58check P2SH address for a redeem script on
// the given network.
func P2SHAddress(script []byte, network zecnet.Network) (string, error) {
	return zecnet.EncodeAddress(Hash160(script), network, zecnet.KindP2SH)
}

// P2SHScriptPubKey builds OP_HASH160 <20-byte hash> OP_EQUAL for the given
// redeem script.
func P2SHScriptPubKey(script []byte) ([]byte, error) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_HASH160)
	b.AddData(Hash160(script))
	b.AddOp(txscript.OP_EQUAL)
	return b.Script()
}

// VerifySecret reports whether SHA-256(secret) equals hashLock. Both
// inputs are raw bytes, already hex-decoded by the caller.
func VerifySecret(secret, hashLock []byte) bool {
	if len(hashLock) != 32 {
		return false
	}
	sum := sha256.Sum256(secret)
	return helpers.ConstantTimeCompare(sum[:], hashLock)
}

// GenerateSecret returns a fresh cryptographically secure 32-byte secret
// and its SHA-256 hash lock.
func GenerateSecret() (secret, hashLock []byte, err error) {
	secret, err = helpers.GenerateSecureRandom(32)
	if err != nil {
		return nil, nil, fmt.Errorf("htlcscript: generate secret: %w", err)
	}
	sum := sha256.Sum256(secret)
	return secret, sum[:], nil
}

// Parsed holds the components recovered by Parse.
type Parsed struct {
	HashLock        []byte
	RecipientPubKey []byte
	RefundPubKey    []byte
	Timelock        uint64
}

// Parse tokenizes a redeem script back into its components, the inverse of
// Build. Used to validate that a stored script_hex still matches the
// expected shape before trusting it.
func Parse(script []byte) (*Parsed, error) {
	t := txscript.MakeScriptTokenizer(0, script)

	expectOp := func(op byte, name string) error {
		if !t.Next() || t.Opcode() != op {
			return fmt.Errorf("htlcscript: expected %s", name)
		}
		return nil
	}

	if err := expectOp(txscript.OP_IF, "OP_IF"); err != nil {
		return nil, err
	}
	if err := expectOp(txscript.OP_SHA256, "OP_SHA256"); err != nil {
		return nil, err
	}
	if !t.Next() {
		return nil, fmt.Errorf("htlcscript: expected hash lock")
	}
	hashLock := t.Data()
	if len(hashLock) != 32 {
		return nil, fmt.Errorf("htlcscript: hash lock must be 32 bytes")
	}
	if err := expectOp(txscript.OP_EQUALVERIFY, "OP_EQUALVERIFY"); err != nil {
		return nil, err
	}
	if !t.Next() {
		return nil, fmt.Errorf("htlcscript: expected recipient pubkey")
	}
	recipient := t.Data()
	if len(recipient) != 33 {
		return nil, fmt.Errorf("htlcscript: recipient pubkey must be 33 bytes")
	}
	if err := expectOp(txscript.OP_CHECKSIG, "OP_CHECKSIG"); err != nil {
		return nil, err
	}
	if err := expectOp(txscript.OP_ELSE, "OP_ELSE"); err != nil {
		return nil, err
	}

	if !t.Next() {
		return nil, fmt.Errorf("htlcscript: expected timelock")
	}
	var timelock uint64
	if op := t.Opcode(); txscript.IsSmallInt(op) {
		timelock = uint64(txscript.AsSmallInt(op))
	} else {
		data := t.Data()
		if len(data) == 0 {
			return nil, fmt.Errorf("htlcscript: invalid timelock push")
		}
		for i := 0; i < len(data); i++ {
			timelock |= uint64(data[i]) << (8 * i)
		}
	}

	if err := expectOp(txscript.OP_CHECKLOCKTIMEVERIFY, "OP_CHECKLOCKTIMEVERIFY"); err != nil {
		return nil, err
	}
	if err := expectOp(txscript.OP_DROP, "OP_DROP"); err != nil {
		return nil, err
	}
	if !t.Next() {
		return nil, fmt.Errorf("htlcscript: expected refund pubkey")
	}
	refund := t.Data()
	if len(refund) != 33 {
		return nil, fmt.Errorf("htlcscript: refund pubkey must be 33 bytes")
	}
	if err := expectOp(txscript.OP_CHECKSIG, "OP_CHECKSIG"); err != nil {
		return nil, err
	}
	if err := expectOp(txscript.OP_ENDIF, "OP_ENDIF"); err != nil {
		return nil, err
	}

	return &Parsed{
		HashLock:        hashLock,
		RecipientPubKey: recipient,
		RefundPubKey:    refund,
		Timelock:        timelock,
	}, nil
}

// RedeemBranchInput returns the input-script data items that select the
// OP_IF (redeem) branch: push(sig) push(secret) OP_TRUE.
func RedeemBranchInput(sig, secret []byte) [][]byte {
	return [][]byte{sig, secret, {0x01}}
}

// RefundBranchInput returns the input-script data items that select the
// OP_ELSE (refund) branch: push(sig) OP_FALSE.
func RefundBranchInput(sig []byte) [][]byte {
	return [][]byte{sig, {}}
}
</content>
</invoke>
