package htlc

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcsign"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/htlctx"
)

// CreateParams are the caller-supplied HTLC parameters, all hex-encoded
// except Timelock and AmountZEC (a canonical decimal ZEC string).
type CreateParams struct {
	RecipientPubKeyHex string
	RefundPubKeyHex    string
	HashLockHex        string
	Timelock           uint64
	AmountZEC          string
}

// CreateResult is returned once the funding transaction has broadcast
// successfully.
type CreateResult struct {
	HTLCID       string
	TxID         string
	P2SHAddress  string
	RedeemScript string
}

// Create builds, signs, persists, and broadcasts an HTLC funding
// transaction. fundingPrivKeyHexes must have the same length as utxos —
// one private key per input, in order (see htlcsign.SignFunding).
//
// On broadcast failure the HTLC row is marked Failed; on success it is
// marked Locked with vout fixed at 0, per the builder's deterministic
// output ordering.
func (c *Coordinator) Create(ctx context.Context, params CreateParams, utxos []htlctx.UTXO, changeAddress string, fundingPrivKeyHexes []string) (*CreateResult, error) {
	c.log.Infof("creating HTLC for %s ZEC", params.AmountZEC)

	built, signedTxHex, err := c.buildAndSignFunding(params, utxos, changeAddress, fundingPrivKeyHexes)
	if err != nil {
		return nil, err
	}

	p2shAddress, err := htlcscript.P2SHAddress(built.RedeemScript, c.network)
	if err != nil {
		return nil, fmt.Errorf("htlc: derive p2sh address: %w", err)
	}

	htlcID := uuid.NewString()
	record := &htlcstore.HTLC{
		ID:              htlcID,
		P2SHAddress:     p2shAddress,
		HashLock:        params.HashLockHex,
		RecipientPubKey: params.RecipientPubKeyHex,
		RefundPubKey:    params.RefundPubKeyHex,
		Timelock:        params.Timelock,
		Amount:          params.AmountZEC,
		RedeemScriptHex: hex.EncodeToString(built.RedeemScript),
		Network:         string(c.network),
		State:           htlcstore.StatePending,
	}
	if err := c.store.CreateHTLC(record); err != nil {
		return nil, err
	}

	operationID := newOperationID()
	op := &htlcstore.Operation{
		ID:          operationID,
		HTLCID:      htlcID,
		Type:        htlcstore.OperationCreate,
		RawTxHex:    signedTxHex,
		SignedTxHex: signedTxHex,
	}
	if err := c.store.CreateOperation(op); err != nil {
		return nil, err
	}

	txid, err := c.rpc.SendRawTransaction(ctx, signedTxHex)
	if err != nil {
		_ = c.store.UpdateOperationFailed(operationID, err.Error())
		_ = c.store.UpdateHTLCState(htlcID, htlcstore.StateFailed)
		return nil, fmt.Errorf("htlc: broadcast funding tx: %w", err)
	}

	if err := c.store.UpdateHTLCTxID(htlcID, txid, 0); err != nil {
		return nil, err
	}
	if err := c.store.UpdateOperationBroadcast(operationID, txid); err != nil {
		return nil, err
	}

	c.log.Infof("HTLC %s created with txid %s", htlcID, txid)

	return &CreateResult{
		HTLCID:       htlcID,
		TxID:         txid,
		P2SHAddress:  p2shAddress,
		RedeemScript: hex.EncodeToString(built.RedeemScript),
	}, nil
}

// buildAndSignFunding builds and signs the funding transaction shared by
// Create and FundPending.
func (c *Coordinator) buildAndSignFunding(params CreateParams, utxos []htlctx.UTXO, changeAddress string, fundingPrivKeyHexes []string) (*htlctx.BuildFundingResult, string, error) {
	hashLock, err := decodeHex("HashLock", params.HashLockHex)
	if err != nil {
		return nil, "", err
	}
	recipientPubKey, err := decodeHex("PublicKey", params.RecipientPubKeyHex)
	if err != nil {
		return nil, "", err
	}
	refundPubKey, err := decodeHex("PublicKey", params.RefundPubKeyHex)
	if err != nil {
		return nil, "", err
	}

	scriptParams := htlcscript.Params{
		HashLock:        hashLock,
		RecipientPubKey: recipientPubKey,
		RefundPubKey:    refundPubKey,
		Timelock:        params.Timelock,
	}

	built, err := htlctx.BuildFunding(scriptParams, params.AmountZEC, utxos, changeAddress)
	if err != nil {
		return nil, "", err
	}

	privKeys, err := decodePrivKeys(fundingPrivKeyHexes)
	if err != nil {
		return nil, "", err
	}
	if err := htlcsign.SignFunding(built.Tx, built.InputScriptPubKeys, privKeys); err != nil {
		return nil, "", err
	}

	signedTxHex, err := htlctx.Serialize(built.Tx)
	if err != nil {
		return nil, "", err
	}

	return built, signedTxHex, nil
}

// FundPending builds, signs, and broadcasts the funding transaction for
// an HTLC row that already exists in Pending state (its script and
// address having been computed and stored at creation time, before any
// funding source was known) — the relayer's path for an HTLC it didn't
// originate. Unlike Create, no new HTLC row is inserted: htlcID must
// already be Pending with no txid.
//
// fundingPrivKeyHexes must have the same length as utxos, one key per
// input in order.
func (c *Coordinator) FundPending(ctx context.Context, htlcID string, utxos []htlctx.UTXO, changeAddress string, fundingPrivKeyHexes []string) (*CreateResult, error) {
	record, err := c.store.GetHTLCByID(htlcID)
	if err != nil {
		return nil, err
	}
	if record.State != htlcstore.StatePending || record.TxID != "" {
		return nil, fmt.Errorf("htlc: htlc %s is not a pending, unfunded creation", htlcID)
	}

	params := CreateParams{
		RecipientPubKeyHex: record.RecipientPubKey,
		RefundPubKeyHex:    record.RefundPubKey,
		HashLockHex:        record.HashLock,
		Timelock:           record.Timelock,
		AmountZEC:          record.Amount,
	}

	c.log.Infof("funding pending HTLC %s for %s ZEC", htlcID, params.AmountZEC)

	built, signedTxHex, err := c.buildAndSignFunding(params, utxos, changeAddress, fundingPrivKeyHexes)
	if err != nil {
		return nil, err
	}

	operationID := newOperationID()
	op := &htlcstore.Operation{
		ID:          operationID,
		HTLCID:      htlcID,
		Type:        htlcstore.OperationCreate,
		RawTxHex:    signedTxHex,
		SignedTxHex: signedTxHex,
	}
	if err := c.store.CreateOperation(op); err != nil {
		return nil, err
	}

	txid, err := c.rpc.SendRawTransaction(ctx, signedTxHex)
	if err != nil {
		_ = c.store.UpdateOperationFailed(operationID, err.Error())
		_ = c.store.UpdateHTLCState(htlcID, htlcstore.StateFailed)
		return nil, fmt.Errorf("htlc: broadcast funding tx: %w", err)
	}

	if err := c.store.UpdateHTLCTxID(htlcID, txid, 0); err != nil {
		return nil, err
	}
	if err := c.store.UpdateOperationBroadcast(operationID, txid); err != nil {
		return nil, err
	}

	c.log.Infof("HTLC %s funded with txid %s", htlcID, txid)

	return &CreateResult{
		HTLCID:       htlcID,
		TxID:         txid,
		P2SHAddress:  record.P2SHAddress,
		RedeemScript: hex.EncodeToString(built.RedeemScript),
	}, nil
}
