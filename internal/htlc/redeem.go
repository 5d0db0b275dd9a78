package htlc

import (
	"context"
	"fmt"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcsign"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
)

// RedeemResult is returned once the redeem spend has broadcast
// successfully.
type RedeemResult struct {
	TxID string
}

// Redeem reveals the preimage for a Locked HTLC and spends it to
// recipientAddress. The secret is only persisted after a successful
// broadcast, so a failed or never-attempted redeem never discloses it.
//
// Presenting a secret that doesn't hash to the HTLC's hash lock returns
// ErrInvalidSecret without building a transaction, touching the store, or
// creating an operation row.
func (c *Coordinator) Redeem(ctx context.Context, htlcID, secretHex, recipientAddress, recipientPrivKeyHex string) (*RedeemResult, error) {
	_, signedTxHex, err := c.signRedeem(htlcID, secretHex, recipientAddress, recipientPrivKeyHex)
	if err != nil {
		return nil, err
	}

	c.log.Infof("redeeming HTLC %s", htlcID)

	operationID := newOperationID()
	op := &htlcstore.Operation{
		ID:          operationID,
		HTLCID:      htlcID,
		Type:        htlcstore.OperationRedeem,
		RawTxHex:    signedTxHex,
		SignedTxHex: signedTxHex,
	}
	if err := c.store.CreateOperation(op); err != nil {
		return nil, err
	}

	txid, err := c.rpc.SendRawTransaction(ctx, signedTxHex)
	if err != nil {
		_ = c.store.UpdateOperationFailed(operationID, err.Error())
		return nil, fmt.Errorf("htlc: broadcast redeem tx: %w", err)
	}

	if err := c.store.UpdateHTLCState(htlcID, htlcstore.StateRedeemed); err != nil {
		return nil, err
	}
	if err := c.store.UpdateHTLCSecret(htlcID, secretHex); err != nil {
		return nil, err
	}
	if err := c.store.UpdateHTLCRecipient(htlcID, recipientAddress); err != nil {
		return nil, err
	}
	if err := c.store.UpdateOperationBroadcast(operationID, txid); err != nil {
		return nil, err
	}

	c.log.Infof("HTLC %s redeemed with txid %s", htlcID, txid)

	return &RedeemResult{TxID: txid}, nil
}

// PrepareRedeem builds and signs a redeem spend but does not broadcast
// it: it stores the signed hex on the HTLC row for the relayer to pick
// up and broadcast on its next tick (§4.6 "pre-signed redemptions"). Like
// Redeem, it persists nothing and returns ErrInvalidSecret if the secret
// doesn't match the hash lock.
func (c *Coordinator) PrepareRedeem(htlcID, secretHex, recipientAddress, recipientPrivKeyHex string) (signedTxHex string, err error) {
	_, signedTxHex, err = c.signRedeem(htlcID, secretHex, recipientAddress, recipientPrivKeyHex)
	if err != nil {
		return "", err
	}
	if err := c.store.StoreSignedRedeemTx(htlcID, signedTxHex); err != nil {
		return "", err
	}
	c.log.Infof("HTLC %s redeem pre-signed, awaiting relayer broadcast", htlcID)
	return signedTxHex, nil
}

// signRedeem validates and builds the signed redeem transaction shared by
// Redeem and PrepareRedeem.
func (c *Coordinator) signRedeem(htlcID, secretHex, recipientAddress, recipientPrivKeyHex string) (*htlcstore.HTLC, string, error) {
	record, err := c.store.GetHTLCByID(htlcID)
	if err != nil {
		return nil, "", err
	}
	if record.State != htlcstore.StateLocked || record.TxID == "" || record.Vout == nil {
		return nil, "", ErrHTLCNotLocked
	}

	secret, err := decodeHex("Secret", secretHex)
	if err != nil {
		return nil, "", err
	}
	hashLock, err := decodeHex("HashLock", record.HashLock)
	if err != nil {
		return nil, "", err
	}
	if !htlcscript.VerifySecret(secret, hashLock) {
		return nil, "", ErrInvalidSecret
	}

	redeemScript, err := decodeHex("RedeemScript", record.RedeemScriptHex)
	if err != nil {
		return nil, "", err
	}
	privKey, err := htlcsign.ParsePrivateKey(recipientPrivKeyHex)
	if err != nil {
		return nil, "", err
	}

	tx, err := buildRedeemTx(record, recipientAddress)
	if err != nil {
		return nil, "", err
	}
	if err := htlcsign.SignRedeem(tx, 0, redeemScript, secret, privKey); err != nil {
		return nil, "", err
	}

	signedTxHex, err := serializeTx(tx)
	if err != nil {
		return nil, "", err
	}
	return record, signedTxHex, nil
}
