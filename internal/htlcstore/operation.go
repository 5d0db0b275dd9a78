package htlcstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrOperationNotFound is returned when an operation lookup/update
// misses.
var ErrOperationNotFound = errors.New("htlcstore: operation not found")

// OperationType identifies which HTLC flow an operation row audits.
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationRedeem OperationType = "redeem"
	OperationRefund OperationType = "refund"
)

// OperationStatus is the lifecycle of a single on-chain spend attempt.
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusSigned    OperationStatus = "signed"
	OperationStatusBroadcast OperationStatus = "broadcast"
	OperationStatusConfirmed OperationStatus = "confirmed"
	OperationStatusFailed    OperationStatus = "failed"
)

// Operation is one audit-log row for a create/redeem/refund attempt.
type Operation struct {
	ID           string
	HTLCID       string
	Type         OperationType
	RawTxHex     string
	SignedTxHex  string
	TxID         string
	Status       OperationStatus
	BroadcastAt  *time.Time
	ConfirmedAt  *time.Time
	BlockHeight  *uint64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateOperation inserts a new operation row.
func (s *Store) CreateOperation(op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()

	var rawTx, signedTx *string
	if op.RawTxHex != "" {
		rawTx = &op.RawTxHex
	}
	if op.SignedTxHex != "" {
		signedTx = &op.SignedTxHex
	}
	status := op.Status
	if status == "" {
		status = OperationStatusPending
	}

	_, err := s.db.Exec(`
		INSERT INTO htlc_operations (
			id, htlc_id, type, raw_tx_hex, signed_tx_hex, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, op.ID, op.HTLCID, op.Type, rawTx, signedTx, status, now, now)
	if err != nil {
		return fmt.Errorf("htlcstore: create operation: %w", err)
	}
	return nil
}

func scanOperation(scan func(dest ...any) error) (*Operation, error) {
	var op Operation
	var rawTx, signedTx, txid, errMsg sql.NullString
	var broadcastAt, confirmedAt, blockHeight sql.NullInt64
	var createdAt, updatedAt int64

	err := scan(
		&op.ID, &op.HTLCID, &op.Type, &rawTx, &signedTx, &txid, &op.Status,
		&broadcastAt, &confirmedAt, &blockHeight, &errMsg,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rawTx.Valid {
		op.RawTxHex = rawTx.String
	}
	if signedTx.Valid {
		op.SignedTxHex = signedTx.String
	}
	if txid.Valid {
		op.TxID = txid.String
	}
	if errMsg.Valid {
		op.ErrorMessage = errMsg.String
	}
	if broadcastAt.Valid {
		t := time.Unix(broadcastAt.Int64, 0)
		op.BroadcastAt = &t
	}
	if confirmedAt.Valid {
		t := time.Unix(confirmedAt.Int64, 0)
		op.ConfirmedAt = &t
	}
	if blockHeight.Valid {
		h := uint64(blockHeight.Int64)
		op.BlockHeight = &h
	}
	op.CreatedAt = time.Unix(createdAt, 0)
	op.UpdatedAt = time.Unix(updatedAt, 0)

	return &op, nil
}

const operationColumns = `
	id, htlc_id, type, raw_tx_hex, signed_tx_hex, txid, status,
	broadcast_at, confirmed_at, block_height, error_message,
	created_at, updated_at
`

// UpdateOperationSigned records the signed tx hex and moves an
// operation to Signed.
func (s *Store) UpdateOperationSigned(id, signedTxHex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE htlc_operations SET signed_tx_hex = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, signedTxHex, OperationStatusSigned, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update operation signed: %w", err)
	}
	return requireOneRow(result, ErrOperationNotFound)
}

// UpdateOperationBroadcast records the txid and moves an operation to
// Broadcast.
func (s *Store) UpdateOperationBroadcast(id, txid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE htlc_operations SET txid = ?, status = ?, broadcast_at = ?, updated_at = ?
		WHERE id = ?
	`, txid, OperationStatusBroadcast, now, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update operation broadcast: %w", err)
	}
	return requireOneRow(result, ErrOperationNotFound)
}

// UpdateOperationConfirmed records the confirming block height and
// moves an operation to Confirmed.
func (s *Store) UpdateOperationConfirmed(id string, blockHeight uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE htlc_operations SET status = ?, confirmed_at = ?, block_height = ?, updated_at = ?
		WHERE id = ?
	`, OperationStatusConfirmed, now, blockHeight, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update operation confirmed: %w", err)
	}
	return requireOneRow(result, ErrOperationNotFound)
}

// UpdateOperationFailed records an error message and moves an
// operation to Failed.
func (s *Store) UpdateOperationFailed(id, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	result, err := s.db.Exec(`
		UPDATE htlc_operations SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`, OperationStatusFailed, errorMessage, now, id)
	if err != nil {
		return fmt.Errorf("htlcstore: update operation failed: %w", err)
	}
	return requireOneRow(result, ErrOperationNotFound)
}

// GetOperationsByHTLC returns every operation row for an HTLC, newest
// first.
func (s *Store) GetOperationsByHTLC(htlcID string) ([]*Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+operationColumns+` FROM htlc_operations
		WHERE htlc_id = ?
		ORDER BY created_at DESC
	`, htlcID)
	if err != nil {
		return nil, fmt.Errorf("htlcstore: get operations by htlc: %w", err)
	}
	defer rows.Close()

	var out []*Operation
	for rows.Next() {
		op, err := scanOperation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("htlcstore: scan operation row: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}
</content>
</invoke>
