package htlc

import (
	"context"
	"fmt"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
)

// BroadcastPresignedRedeem broadcasts an HTLC's already-signed redeem
// transaction (stored earlier via PrepareRedeem) and, on success, marks
// the HTLC Redeemed. This is the relayer's batch path for redemptions it
// didn't build itself: unlike Redeem, it creates no operation row,
// matching the simpler relayer flow it's grounded on — the row already
// audits the creation, and the stored hex is itself the record of what
// was broadcast.
func (c *Coordinator) BroadcastPresignedRedeem(ctx context.Context, record *htlcstore.HTLC) (string, error) {
	if record.SignedRedeemTx == "" {
		return "", fmt.Errorf("htlc: htlc %s has no pre-signed redeem tx", record.ID)
	}

	txid, err := c.rpc.SendRawTransaction(ctx, record.SignedRedeemTx)
	if err != nil {
		return "", fmt.Errorf("htlc: broadcast pre-signed redeem tx: %w", err)
	}

	if err := c.store.UpdateHTLCState(record.ID, htlcstore.StateRedeemed); err != nil {
		return "", err
	}
	return txid, nil
}
