package wallet

import "github.com/tobiloba/kudiwallet/internal/money"

// Topics carrying post-commit ledger events. Balance mutation itself never
// rides the stream; consumers only log and notify.
const (
	TopicWalletCredited    = "wallet.credited"
	TopicWalletDebited     = "wallet.debited"
	TopicTransferCompleted = "transfer.completed"
)

// LedgerEvent is produced after a ledger-affecting transaction commits.
// For transfers, the primary fields describe the sender side and the
// counterparty fields the recipient.
type LedgerEvent struct {
	Reference   string       `json:"reference"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description,omitempty"`

	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	EntryID string `json:"entry_id"`

	CounterpartyUserID  string `json:"counterparty_user_id,omitempty"`
	CounterpartyEmail   string `json:"counterparty_email,omitempty"`
	CounterpartyEntryID string `json:"counterparty_entry_id,omitempty"`
}
