package htlc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcsign"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/htlctx"
	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
	"github.com/klingon-htlc/zcash-htlc/internal/zecrpc"
)

type rpcStub struct {
	blockCount uint64
	sendResult string
	sendErr    bool
}

func newRPCStub(t *testing.T, stub *rpcStub) *zecrpc.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     string `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "sendrawtransaction":
			if stub.sendErr {
				resp["error"] = map[string]interface{}{"code": -1, "message": "broadcast rejected"}
			} else {
				resp["result"] = stub.sendResult
			}
		case "getblockcount":
			resp["result"] = stub.blockCount
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return zecrpc.NewClient(server.URL, "", "")
}

func newTestStore(t *testing.T) *htlcstore.Store {
	t.Helper()
	s, err := htlcstore.New(&htlcstore.Config{DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatalf("htlcstore.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func genKeyPair(t *testing.T) (privHex, pubHex string) {
	t.Helper()
	priv, err := htlcsign.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	privHex = hex.EncodeToString(priv)
	key, err := htlcsign.ParsePrivateKey(privHex)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pubHex = hex.EncodeToString(htlcsign.DerivePublicKey(key))
	return privHex, pubHex
}

// fundingUTXO builds a spendable P2PKH UTXO for fundingPrivHex owning
// amountZEC, for use as a Create() funding input.
func fundingUTXO(t *testing.T, fundingPrivHex, txid string, vout uint32, amountZEC string) htlctx.UTXO {
	t.Helper()
	key, err := htlcsign.ParsePrivateKey(fundingPrivHex)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub := htlcsign.DerivePublicKey(key)
	hash160 := htlcscript.Hash160(pub) // RIPEMD160(SHA256(x)); reused here for a pubkey hash
	address, err := zecnet.EncodeAddress(hash160, zecnet.Testnet, zecnet.KindP2PKH)
	if err != nil {
		t.Fatalf("EncodeAddress: %v", err)
	}
	scriptPubKey, err := htlctx.AddressToScriptPubKey(address)
	if err != nil {
		t.Fatalf("AddressToScriptPubKey: %v", err)
	}
	return htlctx.UTXO{
		TxID:         txid,
		Vout:         vout,
		Amount:       amountZEC,
		ScriptPubKey: scriptPubKey,
	}
}

func TestCreateHappyPath(t *testing.T) {
	store := newTestStore(t)
	rpc := newRPCStub(t, &rpcStub{sendResult: "feedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedface"})
	coord := New(store, rpc, zecnet.Testnet)

	fundingPriv, _ := genKeyPair(t)
	_, recipientPub := genKeyPair(t)
	_, refundPub := genKeyPair(t)

	hashLock := sha256.Sum256([]byte("deadbeef"))

	utxo := fundingUTXO(t, fundingPriv, "a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1", 0, "0.01")

	params := CreateParams{
		RecipientPubKeyHex: hex.EncodeToString(recipientPub),
		RefundPubKeyHex:    hex.EncodeToString(refundPub),
		HashLockHex:        hex.EncodeToString(hashLock[:]),
		Timelock:           500000,
		AmountZEC:          "0.001",
	}

	result, err := coord.Create(context.Background(), params, []htlctx.UTXO{utxo}, "t2changeaddressplaceholder", []string{fundingPriv})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.TxID == "" {
		t.Error("expected non-empty txid")
	}

	record, err := store.GetHTLCByID(result.HTLCID)
	if err != nil {
		t.Fatalf("GetHTLCByID: %v", err)
	}
	if record.State != htlcstore.StateLocked {
		t.Errorf("State = %v, want Locked", record.State)
	}
	if record.Vout == nil || *record.Vout != 0 {
		t.Errorf("Vout = %v, want 0", record.Vout)
	}
}

func TestCreateInsufficientFunds(t *testing.T) {
	store := newTestStore(t)
	rpc := newRPCStub(t, &rpcStub{})
	coord := New(store, rpc, zecnet.Testnet)

	fundingPriv, _ := genKeyPair(t)
	_, recipientPub := genKeyPair(t)
	_, refundPub := genKeyPair(t)
	hashLock := sha256.Sum256([]byte("deadbeef"))

	utxo := fundingUTXO(t, fundingPriv, "b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1b1", 0, "0.001")

	params := CreateParams{
		RecipientPubKeyHex: hex.EncodeToString(recipientPub),
		RefundPubKeyHex:    hex.EncodeToString(refundPub),
		HashLockHex:        hex.EncodeToString(hashLock[:]),
		Timelock:           500000,
		AmountZEC:          "0.001",
	}

	_, err := coord.Create(context.Background(), params, []htlctx.UTXO{utxo}, "t2changeaddressplaceholder", []string{fundingPriv})
	if _, ok := err.(*htlctx.InsufficientFundsError); !ok {
		t.Fatalf("err = %v, want *htlctx.InsufficientFundsError", err)
	}

	rows, err := store.GetPendingHTLCsForCreation(10)
	if err != nil {
		t.Fatalf("GetPendingHTLCsForCreation: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no HTLC row to have been created, got %d", len(rows))
	}
}

func lockedTestHTLC(t *testing.T, store *htlcstore.Store, recipientPrivHex, refundPrivHex string, timelock uint64, secret string) *htlcstore.HTLC {
	t.Helper()
	recipientKey, _ := htlcsign.ParsePrivateKey(recipientPrivHex)
	refundKey, _ := htlcsign.ParsePrivateKey(refundPrivHex)
	hashLock := sha256.Sum256([]byte(secret))

	scriptParams := htlcscript.Params{
		HashLock:        hashLock[:],
		RecipientPubKey: htlcsign.DerivePublicKey(recipientKey),
		RefundPubKey:    htlcsign.DerivePublicKey(refundKey),
		Timelock:        timelock,
	}
	script, err := htlcscript.Build(scriptParams)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	address, err := htlcscript.P2SHAddress(script, zecnet.Testnet)
	if err != nil {
		t.Fatalf("P2SHAddress: %v", err)
	}

	vout := uint32(0)
	record := &htlcstore.HTLC{
		ID:              "htlc-" + secret,
		P2SHAddress:     address,
		HashLock:        hex.EncodeToString(hashLock[:]),
		RecipientPubKey: hex.EncodeToString(scriptParams.RecipientPubKey),
		RefundPubKey:    hex.EncodeToString(scriptParams.RefundPubKey),
		Timelock:        timelock,
		Amount:          "0.001",
		RedeemScriptHex: hex.EncodeToString(script),
		Network:         string(zecnet.Testnet),
		State:           htlcstore.StatePending,
	}
	if err := store.CreateHTLC(record); err != nil {
		t.Fatalf("CreateHTLC: %v", err)
	}
	if err := store.UpdateHTLCTxID(record.ID, "c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1", 0); err != nil {
		t.Fatalf("UpdateHTLCTxID: %v", err)
	}
	record.TxID = "c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1c1"
	record.Vout = &vout
	record.State = htlcstore.StateLocked
	return record
}

func TestRedeemWrongSecret(t *testing.T) {
	store := newTestStore(t)
	rpc := newRPCStub(t, &rpcStub{})
	coord := New(store, rpc, zecnet.Testnet)

	recipientPriv, _ := genKeyPair(t)
	refundPriv, _ := genKeyPair(t)
	htlc := lockedTestHTLC(t, store, recipientPriv, refundPriv, 500000, "aa")

	_, err := coord.Redeem(context.Background(), htlc.ID, hex.EncodeToString([]byte("bb")), "t2recipientaddr", recipientPriv)
	if err != ErrInvalidSecret {
		t.Fatalf("err = %v, want ErrInvalidSecret", err)
	}

	ops, err := store.GetOperationsByHTLC(htlc.ID)
	if err != nil {
		t.Fatalf("GetOperationsByHTLC: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected no operation row to be created, got %d", len(ops))
	}

	got, err := store.GetHTLCByID(htlc.ID)
	if err != nil {
		t.Fatalf("GetHTLCByID: %v", err)
	}
	if got.State != htlcstore.StateLocked {
		t.Errorf("State = %v, want unchanged Locked", got.State)
	}
}

func TestRefundBeforeAndAtExpiry(t *testing.T) {
	store := newTestStore(t)
	recipientPriv, _ := genKeyPair(t)
	refundPriv, _ := genKeyPair(t)

	t.Run("before expiry", func(t *testing.T) {
		rpc := newRPCStub(t, &rpcStub{blockCount: 199})
		coord := New(store, rpc, zecnet.Testnet)
		htlc := lockedTestHTLC(t, store, recipientPriv, refundPriv, 200, "before")

		_, err := coord.Refund(context.Background(), htlc.ID, "t2refundaddr", refundPriv)
		tnErr, ok := err.(*TimelockNotExpiredError)
		if !ok {
			t.Fatalf("err = %v, want *TimelockNotExpiredError", err)
		}
		if tnErr.Current != 199 || tnErr.Required != 200 {
			t.Errorf("got {%d,%d}, want {199,200}", tnErr.Current, tnErr.Required)
		}
	})

	t.Run("at expiry", func(t *testing.T) {
		rpc := newRPCStub(t, &rpcStub{blockCount: 200, sendResult: "d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1d1"})
		coord := New(store, rpc, zecnet.Testnet)
		htlc := lockedTestHTLC(t, store, recipientPriv, refundPriv, 200, "atexpiry")

		result, err := coord.Refund(context.Background(), htlc.ID, "t2refundaddr", refundPriv)
		if err != nil {
			t.Fatalf("Refund: %v", err)
		}
		if result.TxID == "" {
			t.Error("expected non-empty txid")
		}

		got, err := store.GetHTLCByID(htlc.ID)
		if err != nil {
			t.Fatalf("GetHTLCByID: %v", err)
		}
		if got.State != htlcstore.StateRefunded {
			t.Errorf("State = %v, want Refunded", got.State)
		}
	})
}
