package htlc

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/htlctx"
)

// buildRedeemTx and buildRefundTx share the same prerequisite: a Locked
// HTLC record with a non-nil vout, checked by the caller before either is
// invoked.

func buildRedeemTx(record *htlcstore.HTLC, recipientAddress string) (*wire.MsgTx, error) {
	return htlctx.BuildRedeem(record.TxID, *record.Vout, record.Amount, recipientAddress)
}

func buildRefundTx(record *htlcstore.HTLC, refundAddress string) (*wire.MsgTx, error) {
	return htlctx.BuildRefund(record.TxID, *record.Vout, record.Amount, record.Timelock, refundAddress)
}

func serializeTx(tx *wire.MsgTx) (string, error) {
	return htlctx.Serialize(tx)
}
