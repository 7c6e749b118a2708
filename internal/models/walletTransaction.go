package models

import (
	"database/sql"
	"time"

	"github.com/tobiloba/kudiwallet/internal/money"
)

// WalletTransaction is an immutable ledger entry. Amount and the two
// balance snapshots never change after insert; only Status transitions
// (pending -> success | failed). A failed withdrawal is reversed by a
// compensating credit entry, never by editing this row.
type WalletTransaction struct {
	ID            string         `db:"id"`
	WalletID      string         `db:"wallet_id"`
	Type          string         `db:"type"`
	Amount        money.Amount   `db:"amount"`
	BalanceBefore money.Amount   `db:"balance_before"`
	BalanceAfter  money.Amount   `db:"balance_after"`
	Status        string         `db:"status"`
	Reference     string         `db:"reference"`
	Description   sql.NullString `db:"description"`
	Metadata      sql.NullString `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at"`
}
