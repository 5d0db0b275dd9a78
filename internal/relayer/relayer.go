// Package relayer drives the hot-wallet automation loop: funding pending
// HTLC creations, broadcasting pre-signed redemptions, and refunding HTLCs
// whose timelock has passed. It is the only package that runs its own
// background ticker rather than being called directly.
package relayer

import (
	"context"
	"fmt"
	"time"

	"github.com/klingon-htlc/zcash-htlc/internal/htlc"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/htlctx"
	"github.com/klingon-htlc/zcash-htlc/internal/zecconfig"
	"github.com/klingon-htlc/zcash-htlc/pkg/logging"
)

// Relayer funds, redeems, and refunds HTLCs on behalf of a hot wallet, on
// a fixed poll interval. It holds no lock of its own: every tick runs to
// completion before the next one starts, so there is never more than one
// batch in flight.
type Relayer struct {
	coord  *htlc.Coordinator
	config *zecconfig.RelayerConfig
	log    *logging.Logger
}

// New constructs a Relayer. cfg must be non-nil; Validate it (via
// zecconfig.Config.Validate) before passing it in.
func New(coord *htlc.Coordinator, cfg *zecconfig.RelayerConfig) *Relayer {
	return &Relayer{
		coord:  coord,
		config: cfg,
		log:    logging.GetDefault().Component("relayer"),
	}
}

// Run blocks until ctx is cancelled, running one batch per poll interval.
// A slow or erroring batch never overlaps with the next tick: the ticker
// fires on a fixed schedule, but a new tick is only acted on once the
// previous batch has returned.
func (r *Relayer) Run(ctx context.Context) {
	interval := time.Duration(r.config.PollIntervalSecs) * time.Second
	r.log.Infof("automated relayer started, hot wallet %s, poll interval %s", r.config.HotWalletAddress, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Infof("relayer stopping")
			return
		case <-ticker.C:
			r.runBatch(ctx)
		}
	}
}

// runBatch executes one pass of the four relayer steps, in the order the
// hot wallet's state depends on: a stale balance log never blocks
// anything downstream, but creations must claim UTXOs before redemptions
// and refunds run, since those don't touch the UTXO set.
func (r *Relayer) runBatch(ctx context.Context) {
	r.log.Infof("processing batch")

	if err := r.syncUTXOs(); err != nil {
		r.log.Errorf("sync relayer UTXOs: %v", err)
	}
	if err := r.processPendingCreations(ctx); err != nil {
		r.log.Errorf("process pending HTLC creations: %v", err)
	}
	if err := r.processPresignedRedemptions(ctx); err != nil {
		r.log.Errorf("process pre-signed redemptions: %v", err)
	}
	if err := r.processExpiredRefunds(ctx); err != nil {
		r.log.Errorf("process expired refunds: %v", err)
	}

	r.log.Infof("batch complete")
}

// syncUTXOs logs the hot wallet's current confirmed balance. It does not
// reconcile against the node: UTXOs enter relayer_utxos through whatever
// indexing process feeds this deployment, not through this loop.
func (r *Relayer) syncUTXOs() error {
	balance, err := r.coord.Store().GetTotalRelayerBalance(r.config.HotWalletAddress)
	if err != nil {
		return err
	}
	r.log.Infof("relayer balance: %s", htlctx.FormatAmount(balance))
	return nil
}

// processPendingCreations funds every HTLC still awaiting its funding
// transaction, up to MaxTxPerBatch per tick. A funding failure for one
// HTLC (insufficient UTXOs, broadcast rejection) marks that HTLC Failed
// and moves on; it never aborts the batch.
func (r *Relayer) processPendingCreations(ctx context.Context) error {
	pending, err := r.coord.Store().GetPendingHTLCsForCreation(r.config.MaxTxPerBatch)
	if err != nil {
		return err
	}

	for _, record := range pending {
		r.log.Infof("processing HTLC creation: %s", record.ID)

		utxos, err := r.coord.Store().GetUnspentRelayerUTXOs(r.config.HotWalletAddress)
		if err != nil {
			r.log.Errorf("load relayer UTXOs: %v", err)
			continue
		}
		if len(utxos) == 0 {
			r.log.Errorf("no UTXOs available in hot wallet")
			continue
		}

		amount, err := htlctx.ParseAmount(record.Amount)
		if err != nil {
			r.log.Errorf("parse HTLC amount for %s: %v", record.ID, err)
			continue
		}
		fee, err := htlctx.ParseAmount(r.config.NetworkFeeZEC)
		if err != nil {
			fee = 10000
		}

		selected, err := selectUTXOs(utxos, amount+fee)
		if err != nil {
			r.log.Errorf("select UTXOs for %s: %v", record.ID, err)
			continue
		}

		scriptPubKey, err := htlctx.AddressToScriptPubKey(r.config.HotWalletAddress)
		if err != nil {
			r.log.Errorf("derive hot wallet scriptPubKey: %v", err)
			continue
		}
		funding := make([]htlctx.UTXO, len(selected))
		for i, u := range selected {
			funding[i] = htlctx.UTXO{
				TxID:         u.TxID,
				Vout:         u.Vout,
				Amount:       u.Amount,
				ScriptPubKey: scriptPubKey,
			}
		}

		privKeys := make([]string, len(selected))
		for i := range selected {
			privKeys[i] = r.config.HotWalletPrivkey
		}

		result, err := r.coord.FundPending(ctx, record.ID, funding, r.config.HotWalletAddress, privKeys)
		if err != nil {
			r.log.Errorf("fund HTLC %s: %v", record.ID, err)
			continue
		}

		r.log.Infof("HTLC created: %s with txid %s", record.ID, result.TxID)
		for _, u := range selected {
			if err := r.coord.Store().MarkUTXOSpent(u.TxID, u.Vout, result.TxID); err != nil {
				r.log.Errorf("mark UTXO spent: %v", err)
			}
		}
	}

	return nil
}

// processPresignedRedemptions broadcasts every HTLC that already has a
// redeem transaction signed and waiting (built earlier via
// htlc.Coordinator.PrepareRedeem, typically by an off-chain counterparty).
func (r *Relayer) processPresignedRedemptions(ctx context.Context) error {
	pending, err := r.coord.Store().GetHTLCsWithSignedRedeemTx(r.config.MaxTxPerBatch)
	if err != nil {
		return err
	}

	for _, record := range pending {
		r.log.Infof("broadcasting pre-signed redemption for HTLC: %s", record.ID)

		txid, err := r.coord.BroadcastPresignedRedeem(ctx, record)
		if err != nil {
			r.log.Errorf("broadcast redemption for %s: %v", record.ID, err)
			continue
		}
		r.log.Infof("HTLC redeemed: %s with txid %s", record.ID, txid)
	}

	return nil
}

// processExpiredRefunds reclaims every Locked HTLC whose timelock has
// passed, back to the hot wallet's refund credentials.
func (r *Relayer) processExpiredRefunds(ctx context.Context) error {
	currentBlock, err := r.coord.RPC().GetBlockCount(ctx)
	if err != nil {
		return fmt.Errorf("get current block height: %w", err)
	}

	expired, err := r.coord.Store().GetExpiredHTLCs(currentBlock)
	if err != nil {
		return err
	}

	for _, record := range expired {
		r.log.Infof("processing refund for expired HTLC: %s", record.ID)

		result, err := r.coord.Refund(ctx, record.ID, r.config.HotWalletAddress, r.config.HotWalletPrivkey)
		if err != nil {
			r.log.Errorf("refund HTLC %s: %v", record.ID, err)
			continue
		}
		r.log.Infof("HTLC refunded: %s with txid %s", record.ID, result.TxID)
	}

	return nil
}

// selectUTXOs greedily accumulates UTXOs (already ordered by descending
// amount by the store) until their total covers requiredZatoshi.
func selectUTXOs(utxos []*htlcstore.RelayerUTXO, requiredZatoshi uint64) ([]*htlcstore.RelayerUTXO, error) {
	var selected []*htlcstore.RelayerUTXO
	var total uint64

	for _, u := range utxos {
		amount, err := htlctx.ParseAmount(u.Amount)
		if err != nil {
			continue
		}
		selected = append(selected, u)
		total += amount
		if total >= requiredZatoshi {
			return selected, nil
		}
	}

	return nil, fmt.Errorf("insufficient relayer UTXOs: have %s, need %s",
		htlctx.FormatAmount(total), htlctx.FormatAmount(requiredZatoshi))
}
