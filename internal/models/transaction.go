package models

import (
	"database/sql"
	"time"

	"github.com/tobiloba/kudiwallet/internal/money"
)

// Transaction is a gateway-facing payment intent. The reference is the
// idempotency key shared with Paystack and, for wallet funding, with the
// resulting ledger entry.
type Transaction struct {
	ID               string         `db:"id"`
	Reference        string         `db:"reference"`
	Amount           money.Amount   `db:"amount"`
	Status           string         `db:"status"`
	Purpose          string         `db:"purpose"`
	AuthorizationURL sql.NullString `db:"authorization_url"`
	PaidAt           sql.NullTime   `db:"paid_at"`
	UserID           sql.NullString `db:"user_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        sql.NullTime   `db:"updated_at"`
}
