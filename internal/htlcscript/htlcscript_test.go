package htlcscript

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
)

func repeatHex(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func testParams() Params {
	recipient := append([]byte{0x02}, repeatHex(0xaa, 32)...)
	refund := append([]byte{0x03}, repeatHex(0xbb, 32)...)
	return Params{
		HashLock:        repeatHex(0xaa, 32),
		RecipientPubKey: recipient,
		RefundPubKey:    refund,
		Timelock:        100,
	}
}

func TestBuildScriptShape(t *testing.T) {
	script, err := Build(testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if script[0] != 0x63 || script[1] != 0xa8 {
		t.Errorf("script does not begin with OP_IF OP_SHA256: %x", script[:2])
	}
	if script[len(script)-1] != 0x68 {
		t.Errorf("script does not end with OP_ENDIF: %x", script[len(script)-1])
	}
	if !bytes.Contains(script, repeatHex(0xaa, 32)) {
		t.Error("script does not embed the hash lock")
	}
}

func TestBuildDeterministic(t *testing.T) {
	p := testParams()
	a, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Build is not deterministic for identical params")
	}

	addrA, err := P2SHAddress(a, zecnet.Testnet)
	if err != nil {
		t.Fatalf("P2SHAddress: %v", err)
	}
	addrB, err := P2SHAddress(b, zecnet.Testnet)
	if err != nil {
		t.Fatalf("P2SHAddress: %v", err)
	}
	if addrA != addrB {
		t.Errorf("P2SH address differs across identical builds: %q vs %q", addrA, addrB)
	}
}

func TestBuildInvalidHashLock(t *testing.T) {
	p := testParams()
	p.HashLock = repeatHex(0xaa, 31)
	if _, err := Build(p); err == nil {
		t.Fatal("expected InvalidHashLock error")
	}
}

func TestBuildInvalidPublicKey(t *testing.T) {
	p := testParams()
	p.RecipientPubKey = p.RecipientPubKey[:32]
	if _, err := Build(p); err == nil {
		t.Fatal("expected InvalidPublicKey error")
	}
}

func TestP2SHAddressTestnetPrefix(t *testing.T) {
	script, err := Build(testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	addr, err := P2SHAddress(script, zecnet.Testnet)
	if err != nil {
		t.Fatalf("P2SHAddress: %v", err)
	}
	if !strings.HasPrefix(addr, "t2") {
		t.Errorf("testnet P2SH address = %q, want t2 prefix", addr)
	}
}

func TestP2SHAddressRoundTrip(t *testing.T) {
	script, err := Build(testParams())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	addr, err := P2SHAddress(script, zecnet.Mainnet)
	if err != nil {
		t.Fatalf("P2SHAddress: %v", err)
	}
	hash, network, kind, err := zecnet.DecodeAddress(addr)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if network != zecnet.Mainnet || kind != zecnet.KindP2SH {
		t.Errorf("got network=%v kind=%v", network, kind)
	}
	if !bytes.Equal(hash, Hash160(script)) {
		t.Error("decoded hash does not match Hash160(script)")
	}
}

func TestVerifySecret(t *testing.T) {
	secret, _ := hex.DecodeString("deadbeef")
	want, _ := hex.DecodeString("5f78c33274e43fa9de5659265c1d917e25c03722dcb0b8d27db8d5feaa81395")
	if !VerifySecret(secret, want) {
		t.Error("expected secret to verify against its own hash")
	}
	wrong, _ := hex.DecodeString("deadbeee")
	if VerifySecret(wrong, want) {
		t.Error("expected wrong secret to fail verification")
	}
}

func TestGenerateSecretRoundTrip(t *testing.T) {
	secret, hashLock, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret: %v", err)
	}
	sum := sha256.Sum256(secret)
	if !bytes.Equal(sum[:], hashLock) {
		t.Error("hash lock does not match SHA-256(secret)")
	}
	if !VerifySecret(secret, hashLock) {
		t.Error("VerifySecret should accept the generated secret")
	}
}

func TestParseRoundTrip(t *testing.T) {
	p := testParams()
	script, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	parsed, err := Parse(script)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(parsed.HashLock, p.HashLock) {
		t.Error("parsed hash lock mismatch")
	}
	if !bytes.Equal(parsed.RecipientPubKey, p.RecipientPubKey) {
		t.Error("parsed recipient pubkey mismatch")
	}
	if !bytes.Equal(parsed.RefundPubKey, p.RefundPubKey) {
		t.Error("parsed refund pubkey mismatch")
	}
	if parsed.Timelock != p.Timelock {
		t.Errorf("parsed timelock = %d, want %d", parsed.Timelock, p.Timelock)
	}
}

func TestBranchInputs(t *testing.T) {
	sig := []byte{0x01, 0x02}
	secret := []byte{0x03, 0x04}

	redeem := RedeemBranchInput(sig, secret)
	if len(redeem) != 3 || redeem[2][0] != 0x01 {
		t.Errorf("RedeemBranchInput shape wrong: %v", redeem)
	}

	refund := RefundBranchInput(sig)
	if len(refund) != 2 || len(refund[1]) != 0 {
		t.Errorf("RefundBranchInput shape wrong: %v", refund)
	}
}
</content>
</invoke>
