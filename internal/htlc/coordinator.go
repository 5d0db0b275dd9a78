// Package htlc wires the script builder, signer, transaction builder, and
// store into the three end-to-end HTLC flows: create, redeem, refund. It is
// the only package in this system that talks to the node RPC client.
package htlc

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"

	"github.com/klingon-htlc/zcash-htlc/internal/htlcscript"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcsign"
	"github.com/klingon-htlc/zcash-htlc/internal/htlcstore"
	"github.com/klingon-htlc/zcash-htlc/internal/htlctx"
	"github.com/klingon-htlc/zcash-htlc/internal/zecnet"
	"github.com/klingon-htlc/zcash-htlc/internal/zecrpc"
	"github.com/klingon-htlc/zcash-htlc/pkg/logging"
)

// ErrHTLCNotLocked is returned when a redeem or refund is attempted on an
// HTLC that hasn't reached the Locked state (or is missing its funding
// txid/vout).
var ErrHTLCNotLocked = errors.New("htlc: htlc is not locked")

// ErrInvalidSecret is returned when a redeem's preimage does not hash to
// the HTLC's hash lock. No transaction is constructed and no operation
// row is created when this error is returned.
var ErrInvalidSecret = errors.New("htlc: invalid secret for hash lock")

// TimelockNotExpiredError reports that a refund was attempted before the
// node's current block height reached the HTLC's timelock.
type TimelockNotExpiredError struct {
	Current, Required uint64
}

func (e *TimelockNotExpiredError) Error() string {
	return fmt.Sprintf("htlc: timelock not expired: current block %d, required %d", e.Current, e.Required)
}

// Coordinator orchestrates the create/redeem/refund flows against a
// durable store and a node RPC client. It holds no mutable state of its
// own beyond those two references.
type Coordinator struct {
	store   *htlcstore.Store
	rpc     *zecrpc.Client
	network zecnet.Network
	log     *logging.Logger
}

// New constructs a Coordinator.
func New(store *htlcstore.Store, rpc *zecrpc.Client, network zecnet.Network) *Coordinator {
	return &Coordinator{
		store:   store,
		rpc:     rpc,
		network: network,
		log:     logging.GetDefault().Component("htlc"),
	}
}

// Store returns the coordinator's store, for callers (CLI, relayer) that
// need direct query access alongside the three flows below.
func (c *Coordinator) Store() *htlcstore.Store { return c.store }

// RPC returns the coordinator's node RPC client.
func (c *Coordinator) RPC() *zecrpc.Client { return c.rpc }

// Network returns the network this coordinator builds addresses/scripts
// for.
func (c *Coordinator) Network() zecnet.Network { return c.network }

func decodeHex(name, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("htlc: Invalid%s: %w", name, err)
	}
	return b, nil
}

func decodePrivKeys(privKeyHexes []string) ([]*btcec.PrivateKey, error) {
	keys := make([]*btcec.PrivateKey, len(privKeyHexes))
	for i, h := range privKeyHexes {
		key, err := htlcsign.ParsePrivateKey(h)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

func newOperationID() string { return uuid.NewString() }
</content>
