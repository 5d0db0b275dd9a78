package htlc

import (
	"context"
	"fmt"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcsign"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
)

// RefundResult is returned once the refund spend has broadcast
// successfully.
type RefundResult struct {
	TxID string
}

// Refund reclaims a Locked HTLC whose timelock has already passed,
// spending it to refundAddress. Returns *TimelockNotExpiredError if the
// node's current height hasn't reached the HTLC's timelock yet.
func (c *Coordinator) Refund(ctx context.Context, htlcID, refundAddress, refundPrivKeyHex string) (*RefundResult, error) {
	record, err := c.store.GetHTLCByID(htlcID)
	if err != nil {
		return nil, err
	}
	if record.State != htlcstore.StateLocked || record.TxID == "" || record.Vout == nil {
		return nil, ErrHTLCNotLocked
	}

	currentBlock, err := c.rpc.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("htlc: get current block height: %w", err)
	}
	if currentBlock < record.Timelock {
		return nil, &TimelockNotExpiredError{Current: currentBlock, Required: record.Timelock}
	}

	redeemScript, err := decodeHex("RedeemScript", record.RedeemScriptHex)
	if err != nil {
		return nil, err
	}
	privKey, err := htlcsign.ParsePrivateKey(refundPrivKeyHex)
	if err != nil {
		return nil, err
	}

	c.log.Infof("refunding HTLC %s", htlcID)

	tx, err := buildRefundTx(record, refundAddress)
	if err != nil {
		return nil, err
	}
	if err := htlcsign.SignRefund(tx, 0, redeemScript, privKey); err != nil {
		return nil, err
	}

	signedTxHex, err := serializeTx(tx)
	if err != nil {
		return nil, err
	}

	operationID := newOperationID()
	op := &htlcstore.Operation{
		ID:          operationID,
		HTLCID:      htlcID,
		Type:        htlcstore.OperationRefund,
		RawTxHex:    signedTxHex,
		SignedTxHex: signedTxHex,
	}
	if err := c.store.CreateOperation(op); err != nil {
		return nil, err
	}

	txid, err := c.rpc.SendRawTransaction(ctx, signedTxHex)
	if err != nil {
		_ = c.store.UpdateOperationFailed(operationID, err.Error())
		return nil, fmt.Errorf("htlc: broadcast refund tx: %w", err)
	}

	if err := c.store.UpdateHTLCState(htlcID, htlcstore.StateRefunded); err != nil {
		return nil, err
	}
	if err := c.store.UpdateOperationBroadcast(operationID, txid); err != nil {
		return nil, err
	}

	c.log.Infof("HTLC %s refunded with txid %s", htlcID, txid)

	return &RefundResult{TxID: txid}, nil
}
