package models

import (
	"database/sql"
	"time"

	"github.com/tobiloba/kudiwallet/internal/money"
)

// Wallet holds a user's spendable balance. One wallet per user; rows are
// never hard-deleted, a locked wallet is the soft-disable state.
type Wallet struct {
	ID           string       `db:"id"`
	UserID       string       `db:"user_id"`
	WalletNumber string       `db:"wallet_number"`
	Balance      money.Amount `db:"balance"`
	TotalFunded  money.Amount `db:"total_funded"`
	IsLocked     bool         `db:"is_locked"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
}
