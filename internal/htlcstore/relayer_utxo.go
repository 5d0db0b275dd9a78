package htlcstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/klingon-htlc/zcash-htlc/pkg/helpers"
)

// RelayerUTXO is one entry in the relayer's hot-wallet UTXO inventory.
type RelayerUTXO struct {
	ID            string
	TxID          string
	Vout          uint32
	Amount        string
	ScriptPubKey  string
	Confirmations uint32
	Address       string
	Spent         bool
	SpentInTx     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateRelayerUTXO inserts a new UTXO, doing nothing if (txid, vout)
// already exists.
func (s *Store) CreateRelayerUTXO(u *RelayerUTXO) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().Unix()

	_, err := s.db.Exec(`
		INSERT INTO relayer_utxos (
			id, txid, vout, amount, script_pubkey, confirmations,
			address, spent, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(txid, vout) DO NOTHING
	`, u.ID, u.TxID, u.Vout, u.Amount, u.ScriptPubKey, u.Confirmations,
		u.Address, now, now)
	if err != nil {
		return fmt.Errorf("htlcstore: create relayer utxo: %w", err)
	}
	return nil
}

// GetUnspentRelayerUTXOs returns confirmed, unspent UTXOs for an
// address ordered by amount descending, for greedy selection.
func (s *Store) GetUnspentRelayerUTXOs(address string) ([]*RelayerUTXO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, txid, vout, amount, script_pubkey, confirmations,
		       address, spent, spent_in_tx, created_at, updated_at
		FROM relayer_utxos
		WHERE address = ? AND spent = 0 AND confirmations >= 1
		ORDER BY CAST(amount AS REAL) DESC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get unspent relayer utxos: %w", err)
	}
	defer rows.Close()

	var out []*RelayerUTXO
	for rows.Next() {
		u, err := scanRelayerUTXO(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("htlcstore: scan relayer utxo: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanRelayerUTXO(scan func(dest ...any) error) (*RelayerUTXO, error) {
	var u RelayerUTXO
	var spent int
	var spentInTx sql.NullString
	var createdAt, updatedAt int64

	err := scan(
		&u.ID, &u.TxID, &u.Vout, &u.Amount, &u.ScriptPubKey, &u.Confirmations,
		&u.Address, &spent, &spentInTx, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Spent = spent != 0
	if spentInTx.Valid {
		u.SpentInTx = spentInTx.String
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

// MarkUTXOSpent flips a UTXO to spent and never back, per the
// one-directional spend invariant.
func (s *Store) MarkUTXOSpent(txid string, vout uint32, spentInTx string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE relayer_utxos SET spent = 1, spent_in_tx = ?, updated_at = ?
		WHERE txid = ? AND vout = ? AND spent = 0
	`, spentInTx, now, txid, vout)
	if err != nil {
		return fmt.Errorf("htlcstore: mark utxo spent: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		err := s.db.QueryRow(`
			SELECT 1 FROM relayer_utxos WHERE txid = ? AND vout = ?
		`, txid, vout).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("htlcstore: relayer utxo %s:%d not found", txid, vout)
		}
		// Already spent; idempotent.
		return nil
	}
	return nil
}

// UpdateUTXOConfirmations updates the confirmation count tracked for a
// UTXO.
func (s *Store) UpdateUTXOConfirmations(txid string, vout uint32, confirmations uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE relayer_utxos SET confirmations = ?, updated_at = ?
		WHERE txid = ? AND vout = ?
	`, confirmations, now, txid, vout)
	if err != nil {
		return fmt.Errorf("htlcstore: update utxo confirmations: %w", err)
	}
	return requireOneRow(result, fmt.Errorf("htlcstore: relayer utxo %s:%d not found", txid, vout))
}

// GetTotalRelayerBalance sums the amount of unspent UTXOs for an
// address, in zatoshis.
func (s *Store) GetTotalRelayerBalance(address string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT amount FROM relayer_utxos WHERE address = ? AND spent = 0
	`, address)
	if err != nil {
		return 0, fmt.Errorf("htlcstore: get total relayer balance: %w", err)
	}
	defer rows.Close()

	var total uint64
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return 0, fmt.Errorf("htlcstore: scan relayer balance row: %w", err)
		}
		amount, err := helpers.ParseAmountZEC(amountStr)
		if err != nil {
			return 0, fmt.Errorf("htlcstore: invalid utxo amount %q: %w", amountStr, err)
		}
		total += amount
	}
	return total, rows.Err()
}
</content>
</invoke>
