package htlctx

import (
	"strings"
	"testing"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
)

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func testScriptParams() htlcscript.Params {
	return htlcscript.Params{
		HashLock:        repeat(0xaa, 32),
		RecipientPubKey: append([]byte{0x02}, repeat(0xcc, 32)...),
		RefundPubKey:    append([]byte{0x03}, repeat(0xdd, 32)...),
		Timelock:        200,
	}
}

func TestEstimateSize(t *testing.T) {
	if got := EstimateSize(1, 2); got != 258 {
		t.Errorf("EstimateSize(1,2) = %d, want 258", got)
	}
}

func TestBuildFundingHappyPath(t *testing.T) {
	// S3: 1 UTXO of 0.01 ZEC, HTLC amount 0.001 ZEC.
	changeAddr, err := zecnet.EncodeAddress(make([]byte, 20), zecnet.Testnet, zecnet.KindP2PKH)
	if err != nil {
		t.Fatalf("EncodeAddress: %v", err)
	}

	utxo := UTXO{
		TxID:         strings.Repeat("11", 32),
		Vout:         0,
		Amount:       "0.01",
		ScriptPubKey: []byte{0x76, 0xa9},
	}

	result, err := BuildFunding(testScriptParams(), "0.001", []UTXO{utxo}, changeAddr)
	if err != nil {
		t.Fatalf("BuildFunding: %v", err)
	}

	if len(result.Tx.TxOut) != 2 {
		t.Fatalf("expected 2 outputs (HTLC + change), got %d", len(result.Tx.TxOut))
	}
	if result.Tx.TxOut[0].Value != 100000 {
		t.Errorf("HTLC output = %d, want 100000", result.Tx.TxOut[0].Value)
	}
	wantFee := int64(EstimateFee(EstimateSize(1, 2)))
	wantChange := 1000000 - 100000 - wantFee
	if result.Tx.TxOut[1].Value != wantChange {
		t.Errorf("change output = %d, want %d", result.Tx.TxOut[1].Value, wantChange)
	}
}

func TestBuildFundingInsufficientFunds(t *testing.T) {
	utxo := UTXO{
		TxID:         strings.Repeat("11", 32),
		Vout:         0,
		Amount:       "0.001",
		ScriptPubKey: []byte{0x76, 0xa9},
	}
	_, err := BuildFunding(testScriptParams(), "0.001", []UTXO{utxo}, "")
	var insufficient *InsufficientFundsError
	if err == nil {
		t.Fatal("expected InsufficientFunds error")
	}
	if !asInsufficientFunds(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
}

func asInsufficientFunds(err error, target **InsufficientFundsError) bool {
	if e, ok := err.(*InsufficientFundsError); ok {
		*target = e
		return true
	}
	return false
}

func TestBuildFundingAmountTooSmall(t *testing.T) {
	utxo := UTXO{TxID: strings.Repeat("11", 32), Vout: 0, Amount: "1", ScriptPubKey: []byte{0x76}}
	_, err := BuildFunding(testScriptParams(), "0.00000545", []UTXO{utxo}, "")
	if err == nil {
		t.Fatal("expected AmountTooSmall error")
	}
}

func TestBuildRedeemAmountTooSmall(t *testing.T) {
	fee := EstimateFee(EstimateSize(1, 1))
	tooSmall := FormatAmount(fee)
	_, err := BuildRedeem(strings.Repeat("22", 32), 0, tooSmall, "")
	if err == nil {
		t.Fatal("expected AmountTooSmall error")
	}
}

func TestBuildRefundSetsLockTimeAndSequence(t *testing.T) {
	addr, _ := zecnet.EncodeAddress(make([]byte, 20), zecnet.Testnet, zecnet.KindP2PKH)
	tx, err := BuildRefund(strings.Repeat("33", 32), 0, "0.01", 500, addr)
	if err != nil {
		t.Fatalf("BuildRefund: %v", err)
	}
	if tx.LockTime != 500 {
		t.Errorf("LockTime = %d, want 500", tx.LockTime)
	}
	if tx.TxIn[0].Sequence != RefundSequence {
		t.Errorf("Sequence = %x, want %x", tx.TxIn[0].Sequence, RefundSequence)
	}
	if tx.TxIn[0].Sequence == 0xFFFFFFFF {
		t.Error("refund sequence must not be 0xFFFFFFFF for CLTV enforcement")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	addr, _ := zecnet.EncodeAddress(make([]byte, 20), zecnet.Testnet, zecnet.KindP2PKH)
	tx, err := BuildRefund(strings.Repeat("44", 32), 1, "0.01", 700, addr)
	if err != nil {
		t.Fatalf("BuildRefund: %v", err)
	}
	hexStr, err := Serialize(tx)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(hexStr)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.LockTime != tx.LockTime || len(got.TxIn) != len(tx.TxIn) {
		t.Error("round-tripped transaction does not match original")
	}
}

func TestAddressToScriptPubKeyDispatch(t *testing.T) {
	p2pkh, _ := zecnet.EncodeAddress(make([]byte, 20), zecnet.Testnet, zecnet.KindP2PKH)
	script, err := AddressToScriptPubKey(p2pkh)
	if err != nil {
		t.Fatalf("AddressToScriptPubKey: %v", err)
	}
	if script[0] != 0x76 { // OP_DUP
		t.Errorf("expected P2PKH script to start with OP_DUP, got %x", script[0])
	}

	p2sh, _ := zecnet.EncodeAddress(make([]byte, 20), zecnet.Testnet, zecnet.KindP2SH)
	script, err = AddressToScriptPubKey(p2sh)
	if err != nil {
		t.Fatalf("AddressToScriptPubKey: %v", err)
	}
	if script[0] != 0xa9 { // OP_HASH160
		t.Errorf("expected P2SH script to start with OP_HASH160, got %x", script[0])
	}
}
</content>
</invoke>
