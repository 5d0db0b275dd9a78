package htlcstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrHTLCNotFound is returned when no HTLC record matches a lookup.
	ErrHTLCNotFound = errors.New("htlcstore: htlc not found")
	// ErrHTLCAlreadyExists is returned when create_htlc is called with a
	// duplicate id.
	ErrHTLCAlreadyExists = errors.New("htlcstore: htlc already exists")
)

// State is the HTLC lifecycle state, stored as an i16.
type State int16

const (
	StatePending State = iota
	StateLocked
	StateRedeemed
	StateRefunded
	StateExpired
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLocked:
		return "locked"
	case StateRedeemed:
		return "redeemed"
	case StateRefunded:
		return "refunded"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HTLC is the durable record for one hash time-locked contract.
type HTLC struct {
	ID               string
	P2SHAddress      string
	HashLock         string
	RecipientPubKey  string
	RefundPubKey     string
	Timelock         uint64
	Amount           string
	RedeemScriptHex  string
	Network          string
	State            State
	TxID             string
	Vout             *uint32
	Secret           string
	SignedRedeemTx   string
	RecipientAddress string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateHTLC inserts a new HTLC row.
func (s *Store) CreateHTLC(h *HTLC) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()

	_, err := s.db.Exec(`
		INSERT INTO zcash_htlcs (
			id, p2sh_address, hash_lock, recipient_pubkey, refund_pubkey,
			timelock, amount, redeem_script_hex, network, state,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		h.ID, h.P2SHAddress, h.HashLock, h.RecipientPubKey, h.RefundPubKey,
		h.Timelock, h.Amount, h.RedeemScriptHex, h.Network, h.State,
		now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrHTLCAlreadyExists
		}
		return fmt.Errorf("htlcstore: create htlc: %w", err)
	}
	return nil
}

func scanHTLC(scan func(dest ...any) error) (*HTLC, error) {
	var h HTLC
	var txid, secret, signedRedeemTx, recipientAddr sql.NullString
	var vout sql.NullInt64
	var createdAt, updatedAt int64

	err := scan(
		&h.ID, &h.P2SHAddress, &h.HashLock, &h.RecipientPubKey, &h.RefundPubKey,
		&h.Timelock, &h.Amount, &h.RedeemScriptHex, &h.Network, &h.State,
		&txid, &vout, &secret, &signedRedeemTx, &recipientAddr,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if txid.Valid {
		h.TxID = txid.String
	}
	if vout.Valid {
		v := uint32(vout.Int64)
		h.Vout = &v
	}
	if secret.Valid {
		h.Secret = secret.String
	}
	if signedRedeemTx.Valid {
		h.SignedRedeemTx = signedRedeemTx.String
	}
	if recipientAddr.Valid {
		h.RecipientAddress = recipientAddr.String
	}
	h.CreatedAt = time.Unix(createdAt, 0)
	h.UpdatedAt = time.Unix(updatedAt, 0)

	return &h, nil
}

const htlcColumns = `
	id, p2sh_address, hash_lock, recipient_pubkey, refund_pubkey,
	timelock, amount, redeem_script_hex, network, state,
	txid, vout, secret, signed_redeem_tx, recipient_address,
	created_at, updated_at
`

// GetHTLCByID retrieves an HTLC by its id.
func (s *Store) GetHTLCByID(id string) (*HTLC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+htlcColumns+" FROM zcash_htlcs WHERE id = ?", id)
	h, err := scanHTLC(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrHTLCNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get htlc by id: %w", err)
	}
	return h, nil
}

// GetHTLCByTxID retrieves an HTLC by its funding transaction id.
func (s *Store) GetHTLCByTxID(txid string) (*HTLC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+htlcColumns+" FROM zcash_htlcs WHERE txid = ?", txid)
	h, err := scanHTLC(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrHTLCNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get htlc by txid: %w", err)
	}
	return h, nil
}

// GetHTLCByHashLock retrieves an HTLC by its hash lock. Returns
// (nil, nil) if none exists, matching the spec's "optional" return for
// this lookup.
func (s *Store) GetHTLCByHashLock(hashLock string) (*HTLC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+htlcColumns+" FROM zcash_htlcs WHERE hash_lock = ?", hashLock)
	h, err := scanHTLC(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get htlc by hash lock: %w", err)
	}
	return h, nil
}

// UpdateHTLCTxID sets the funding txid/vout and transitions the HTLC to
// Locked.
func (s *Store) UpdateHTLCTxID(id, txid string, vout uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE zcash_htlcs SET txid = ?, vout = ?, state = ?, updated_at = ?
		WHERE id = ?
	`, txid, vout, StateLocked, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update htlc txid: %w", err)
	}
	return requireOneRow(result, ErrHTLCNotFound)
}

// UpdateHTLCState transitions an HTLC to a new state.
func (s *Store) UpdateHTLCState(id string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE zcash_htlcs SET state = ?, updated_at = ? WHERE id = ?
	`, state, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update htlc state: %w", err)
	}
	return requireOneRow(result, ErrHTLCNotFound)
}

// UpdateHTLCSecret records the revealed preimage. Idempotent: a second
// call with the same or different secret on an already-populated row is
// a no-op success, matching the store's resume-safety requirement.
func (s *Store) UpdateHTLCSecret(id, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE zcash_htlcs SET secret = ?, updated_at = ?
		WHERE id = ? AND secret IS NULL
	`, secret, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update htlc secret: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var existing sql.NullString
		err := s.db.QueryRow("SELECT secret FROM zcash_htlcs WHERE id = ?", id).Scan(&existing)
		if err == sql.ErrNoRows {
			return ErrHTLCNotFound
		}
		return nil
	}
	return nil
}

// StoreSignedRedeemTx persists a pre-signed redeem transaction for later
// relayer broadcast.
func (s *Store) StoreSignedRedeemTx(id, signedTxHex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE zcash_htlcs SET signed_redeem_tx = ?, updated_at = ? WHERE id = ?
	`, signedTxHex, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: store signed redeem tx: %w", err)
	}
	return requireOneRow(result, ErrHTLCNotFound)
}

// UpdateHTLCRecipient sets the payout address for a redeem.
func (s *Store) UpdateHTLCRecipient(id, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE zcash_htlcs SET recipient_address = ?, updated_at = ? WHERE id = ?
	`, address, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update htlc recipient: %w", err)
	}
	return requireOneRow(result, ErrHTLCNotFound)
}

// GetPendingHTLCsForCreation returns rows awaiting a funding broadcast,
// oldest first.
func (s *Store) GetPendingHTLCsForCreation(limit int) ([]*HTLC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+htlcColumns+` FROM zcash_htlcs
		WHERE state = ? AND txid IS NULL
		ORDER BY created_at ASC
		LIMIT ?
	`, StatePending, limit)
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get pending htlcs: %w", err)
	}
	defer rows.Close()
	return scanHTLCRows(rows)
}

// GetHTLCsWithSignedRedeemTx returns Locked HTLCs that already carry a
// pre-signed redemption awaiting broadcast, oldest first.
func (s *Store) GetHTLCsWithSignedRedeemTx(limit int) ([]*HTLC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+htlcColumns+` FROM zcash_htlcs
		WHERE state = ? AND signed_redeem_tx IS NOT NULL
		ORDER BY created_at ASC
		LIMIT ?
	`, StateLocked, limit)
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get htlcs with signed redeem tx: %w", err)
	}
	defer rows.Close()
	return scanHTLCRows(rows)
}

// GetExpiredHTLCs returns Locked HTLCs whose timelock has already
// passed the given block height.
func (s *Store) GetExpiredHTLCs(currentBlock uint64) ([]*HTLC, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+htlcColumns+` FROM zcash_htlcs
		WHERE state = ? AND timelock < ?
		ORDER BY created_at ASC
	`, StateLocked, currentBlock)
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get expired htlcs: %w", err)
	}
	defer rows.Close()
	return scanHTLCRows(rows)
}

func scanHTLCRows(rows *sql.Rows) ([]*HTLC, error) {
	var out []*HTLC
	for rows.Next() {
		h, err := scanHTLC(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("htlcstore: scan htlc row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func requireOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("htlcstore: rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
</content>
</invoke>
