// Package wallet implements the ledger engine: the single point of truth
// for balance mutation. Every operation acquires exclusive row locks on
// the affected wallets inside one storage transaction, validates the
// business invariants, writes immutable ledger entries, updates balances
// and commits — or rolls back entirely. Row locks are never held across a
// call to the payment gateway.
package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/money"
	"github.com/tobiloba/kudiwallet/internal/paystack"
	"github.com/tobiloba/kudiwallet/internal/repository"

	"github.com/jmoiron/sqlx"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100

	walletNumberAttempts = 5
	fundingGuardTTL      = 5 * time.Minute
)

// Gateway is the outbound surface of the payment provider the engine
// depends on.
type Gateway interface {
	InitializeTransaction(ctx context.Context, reference string, amountKobo int64, email string) (*paystack.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResponse, error)
	CreateTransferRecipient(ctx context.Context, accountNumber, bankCode string) (string, error)
	InitiateTransfer(ctx context.Context, amountKobo int64, recipientCode, reference string) error
	VerifyWebhookSignature(signature string, payload []byte) bool
}

// Cache is a keyed TTL cache used for the duplicate-funding guard.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Producer publishes post-commit ledger events.
type Producer interface {
	ProduceMessage(topic, message string) error
}

type Service struct {
	db       repository.Database
	gateway  Gateway
	cache    Cache
	producer Producer
	logger   *slog.Logger
}

func NewService(db repository.Database, gateway Gateway, cache Cache, producer Producer, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		gateway:  gateway,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// GetOrCreateWallet returns the user's wallet, creating one lazily with a
// collision-checked wallet number on first access.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet, found, err := s.db.Wallet().FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if found {
		return wallet, nil
	}

	_, found, err = s.db.User().GetOne(userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	// The uniqueness constraint on wallet_number is the authority; the
	// exists pre-check just keeps retries cheap.
	var lastErr error
	for i := 0; i < walletNumberAttempts; i++ {
		number, err := money.GenerateWalletNumber()
		if err != nil {
			return nil, err
		}

		exists, err := s.db.Wallet().WalletNumberExists(number)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		created, err := s.db.Wallet().Insert(&models.Wallet{UserID: userID, WalletNumber: number}, nil)
		if err != nil {
			// a concurrent first access may have won the user_id uniqueness
			// race while we were allocating a number; use the winner's wallet
			existing, found, findErr := s.db.Wallet().FindByUserID(userID)
			if findErr == nil && found {
				return existing, nil
			}
			lastErr = err
			continue
		}

		return created, nil
	}

	return nil, fmt.Errorf("could not allocate a unique wallet number: %w", lastErr)
}

func (s *Service) GetBalance(ctx context.Context, userID string) (money.Amount, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return 0, err
	}

	return wallet.Balance, nil
}

type FundingIntent struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// InitiateFunding creates a PENDING payment intent with Paystack and
// persists it. The wallet is not credited here; crediting happens only
// when the payment is confirmed via webhook or verification.
func (s *Service) InitiateFunding(ctx context.Context, userID string, amount money.Amount) (*FundingIntent, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.IsLocked {
		return nil, ErrWalletLocked
	}

	// Same user re-submitting the same amount within the guard window gets
	// the previously issued checkout URL instead of a second intent.
	guardKey := fmt.Sprintf("funding:%s:%d", userID, amount.Kobo())
	if cached, found, err := s.cache.Get(ctx, guardKey); err == nil && found {
		var intent FundingIntent
		if err := json.Unmarshal([]byte(cached), &intent); err == nil {
			return &intent, nil
		}
	}

	user, found, err := s.db.User().GetOne(userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	reference, err := s.newReference()
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.InitializeTransaction(ctx, reference, amount.Kobo(), user.Email)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Transaction().Insert(&models.Transaction{
		Reference:        reference,
		Amount:           amount,
		Purpose:          repository.TransactionPurposeWalletFunding,
		AuthorizationURL: sql.NullString{String: res.AuthorizationURL, Valid: true},
		UserID:           sql.NullString{String: userID, Valid: true},
	}, nil)
	if err != nil {
		return nil, err
	}

	intent := &FundingIntent{Reference: reference, AuthorizationURL: res.AuthorizationURL}

	if js, err := json.Marshal(intent); err == nil {
		if err := s.cache.Set(ctx, guardKey, string(js), fundingGuardTTL); err != nil {
			s.logger.Warn("could not cache funding intent", "reference", reference, "error", err)
		}
	}

	return intent, nil
}

// InitializePayment opens a checkout session with the gateway without
// binding it to a wallet; used for merchant-facing api_payment intents.
func (s *Service) InitializePayment(ctx context.Context, reference string, amount money.Amount, email string) (*paystack.InitializeResponse, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	exists, err := s.db.Transaction().ReferenceExists(reference)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReference
	}

	return s.gateway.InitializeTransaction(ctx, reference, amount.Kobo(), email)
}

func (s *Service) newReference() (string, error) {
	for {
		reference, err := money.GenerateReference()
		if err != nil {
			return "", err
		}

		exists, err := s.db.Transaction().ReferenceExists(reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
	}
}

// CreditWalletFromPayment applies a confirmed payment to the wallet.
// Calling it any number of times with the same reference credits the
// wallet at most once: the reference check runs again under the wallet
// row lock, and the (reference, type) unique index is the final backstop.
func (s *Service) CreditWalletFromPayment(ctx context.Context, reference string) error {
	var event *LedgerEvent

	err := s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		payment, found, err := s.db.Transaction().FindByReferenceTx(tx, reference)
		if err != nil {
			return err
		}
		if !found || payment.Status != repository.TransactionStatusSuccess {
			return nil
		}
		if payment.Purpose != repository.TransactionPurposeWalletFunding || !payment.UserID.Valid {
			return nil
		}

		applied, err := s.db.WalletTransaction().ExistsByReference(tx, reference)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		wallet, found, err := s.db.Wallet().FindByUserIDForUpdate(tx, payment.UserID.String)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		// A racing webhook or verify call that committed while we waited
		// for the lock is visible now.
		applied, err = s.db.WalletTransaction().ExistsByReference(tx, reference)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}

		balanceBefore := wallet.Balance
		balanceAfter := balanceBefore.Add(payment.Amount)

		entry, err := s.db.WalletTransaction().Insert(&models.WalletTransaction{
			WalletID:      wallet.ID,
			Type:          repository.WalletTransactionTypeCredit,
			Amount:        payment.Amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			Status:        repository.TransactionStatusSuccess,
			Reference:     reference,
			Description:   sql.NullString{String: "Wallet funding via Paystack", Valid: true},
		}, tx)
		if err != nil {
			return err
		}

		err = s.db.Wallet().UpdateBalanceAndFunded(tx, wallet.ID, balanceAfter, wallet.TotalFunded.Add(payment.Amount))
		if err != nil {
			return err
		}

		event = &LedgerEvent{
			Reference: reference,
			Amount:    payment.Amount,
			UserID:    payment.UserID.String,
			EntryID:   entry.ID,
		}

		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		s.publishEvent(TopicWalletCredited, event)
	}

	return nil
}

type WithdrawalReceipt struct {
	Reference string       `json:"reference"`
	Amount    money.Amount `json:"amount"`
	Status    string       `json:"status"`
}

// InitiateWithdrawal reserves the funds first: the debit and its PENDING
// ledger entry commit before the gateway transfer is attempted, so a
// racing spend cannot double-spend the reserved amount. A failed gateway
// call is compensated with a reversing credit entry in a fresh
// transaction.
func (s *Service) InitiateWithdrawal(ctx context.Context, userID string, amount money.Amount, accountNumber, bankCode string) (*WithdrawalReceipt, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	reference, err := money.GenerateReference()
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(map[string]string{
		"account_number": accountNumber,
		"bank_code":      bankCode,
	})
	if err != nil {
		return nil, err
	}

	var entry *models.WalletTransaction

	err = s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		wallet, found, err := s.db.Wallet().FindByUserIDForUpdate(tx, userID)
		if err != nil {
			return err
		}
		if !found {
			return ErrWalletNotFound
		}
		if wallet.IsLocked {
			return ErrWalletLocked
		}
		if wallet.Balance < amount {
			return ErrInsufficientBalance
		}

		balanceBefore := wallet.Balance
		balanceAfter := balanceBefore.Sub(amount)

		entry, err = s.db.WalletTransaction().Insert(&models.WalletTransaction{
			WalletID:      wallet.ID,
			Type:          repository.WalletTransactionTypeDebit,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			Status:        repository.TransactionStatusPending,
			Reference:     reference,
			Description:   sql.NullString{String: "Withdrawal to bank account", Valid: true},
			Metadata:      sql.NullString{String: string(metadata), Valid: true},
		}, tx)
		if err != nil {
			return err
		}

		return s.db.Wallet().UpdateBalance(tx, wallet.ID, balanceAfter)
	})
	if err != nil {
		return nil, err
	}

	// The reservation is committed; the gateway call runs without any row
	// lock held.
	if err := s.initiateGatewayTransfer(ctx, reference, amount, accountNumber, bankCode); err != nil {
		if compErr := s.compensateFailedWithdrawal(ctx, entry.ID); compErr != nil {
			s.logger.Error("withdrawal compensation failed",
				"entry_id", entry.ID, "reference", reference, "error", compErr)
			// the reservation is stuck in PENDING with the balance already
			// reduced; freeze the wallet until an operator resolves it
			if lockErr := s.db.Wallet().SetLocked(entry.WalletID, true); lockErr != nil {
				s.logger.Error("could not lock wallet after failed compensation",
					"wallet_id", entry.WalletID, "reference", reference, "error", lockErr)
			}
		}
		return nil, err
	}

	s.publishEvent(TopicWalletDebited, &LedgerEvent{
		Reference: reference,
		Amount:    amount,
		UserID:    userID,
		EntryID:   entry.ID,
	})

	return &WithdrawalReceipt{
		Reference: reference,
		Amount:    amount,
		Status:    repository.TransactionStatusPending,
	}, nil
}

func (s *Service) initiateGatewayTransfer(ctx context.Context, reference string, amount money.Amount, accountNumber, bankCode string) error {
	recipientCode, err := s.gateway.CreateTransferRecipient(ctx, accountNumber, bankCode)
	if err != nil {
		return err
	}

	return s.gateway.InitiateTransfer(ctx, amount.Kobo(), recipientCode, reference)
}

// compensateFailedWithdrawal marks the reserving DEBIT entry failed and
// restores the balance with a reversing CREDIT entry. The original entry's
// amount and balance snapshots are never touched.
func (s *Service) compensateFailedWithdrawal(ctx context.Context, entryID string) error {
	return s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		entry, found, err := s.db.WalletTransaction().FindByIDForUpdate(tx, entryID)
		if err != nil {
			return err
		}
		if !found || entry.Status != repository.TransactionStatusPending {
			return nil
		}

		wallet, found, err := s.db.Wallet().FindByIDForUpdate(tx, entry.WalletID)
		if err != nil {
			return err
		}
		if !found {
			return ErrWalletNotFound
		}

		if err := s.db.WalletTransaction().UpdateStatus(tx, entry.ID, repository.TransactionStatusFailed); err != nil {
			return err
		}

		balanceBefore := wallet.Balance
		balanceAfter := balanceBefore.Add(entry.Amount)

		_, err = s.db.WalletTransaction().Insert(&models.WalletTransaction{
			WalletID:      wallet.ID,
			Type:          repository.WalletTransactionTypeCredit,
			Amount:        entry.Amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			Status:        repository.TransactionStatusSuccess,
			Reference:     entry.Reference,
			Description:   sql.NullString{String: "Reversal: withdrawal failed", Valid: true},
		}, tx)
		if err != nil {
			return err
		}

		return s.db.Wallet().UpdateBalance(tx, wallet.ID, balanceAfter)
	})
}

type TransferReceipt struct {
	Reference string       `json:"reference"`
	Amount    money.Amount `json:"amount"`
	Status    string       `json:"status"`
}

// TransferToUser moves funds between two wallets atomically: both ledger
// entries share one reference and both balance updates commit together or
// not at all. Locks are always taken in ascending wallet id order so two
// mirrored concurrent transfers cannot deadlock.
func (s *Service) TransferToUser(ctx context.Context, senderID, recipientWalletNumber string, amount money.Amount, description string) (*TransferReceipt, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	senderWallet, found, err := s.db.Wallet().FindByUserID(senderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrWalletNotFound
	}

	recipientWallet, found, err := s.db.Wallet().FindByWalletNumber(recipientWalletNumber)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRecipientNotFound
	}

	if senderWallet.ID == recipientWallet.ID {
		return nil, ErrSelfTransfer
	}

	reference, err := money.GenerateReference()
	if err != nil {
		return nil, err
	}

	var event *LedgerEvent

	err = s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		firstID, secondID := senderWallet.ID, recipientWallet.ID
		if strings.Compare(firstID, secondID) > 0 {
			firstID, secondID = secondID, firstID
		}

		first, found, err := s.db.Wallet().FindByIDForUpdate(tx, firstID)
		if err != nil {
			return err
		}
		if !found {
			return ErrWalletNotFound
		}
		second, found, err := s.db.Wallet().FindByIDForUpdate(tx, secondID)
		if err != nil {
			return err
		}
		if !found {
			return ErrWalletNotFound
		}

		sender, recipient := first, second
		if sender.ID != senderWallet.ID {
			sender, recipient = second, first
		}

		if sender.IsLocked {
			return ErrWalletLocked
		}
		if recipient.IsLocked {
			return ErrRecipientWalletLocked
		}
		if sender.Balance < amount {
			return ErrInsufficientBalance
		}

		outDescription := description
		if outDescription == "" {
			outDescription = "Transfer to wallet " + recipient.WalletNumber
		}
		inDescription := description
		if inDescription == "" {
			inDescription = "Transfer from wallet " + sender.WalletNumber
		}

		senderAfter := sender.Balance.Sub(amount)

		outEntry, err := s.db.WalletTransaction().Insert(&models.WalletTransaction{
			WalletID:      sender.ID,
			Type:          repository.WalletTransactionTypeTransferOut,
			Amount:        amount,
			BalanceBefore: sender.Balance,
			BalanceAfter:  senderAfter,
			Status:        repository.TransactionStatusSuccess,
			Reference:     reference,
			Description:   sql.NullString{String: outDescription, Valid: true},
			Metadata:      sql.NullString{String: fmt.Sprintf(`{"recipient_wallet":%q}`, recipient.WalletNumber), Valid: true},
		}, tx)
		if err != nil {
			return err
		}

		if err := s.db.Wallet().UpdateBalance(tx, sender.ID, senderAfter); err != nil {
			return err
		}

		recipientAfter := recipient.Balance.Add(amount)

		inEntry, err := s.db.WalletTransaction().Insert(&models.WalletTransaction{
			WalletID:      recipient.ID,
			Type:          repository.WalletTransactionTypeTransferIn,
			Amount:        amount,
			BalanceBefore: recipient.Balance,
			BalanceAfter:  recipientAfter,
			Status:        repository.TransactionStatusSuccess,
			Reference:     reference,
			Description:   sql.NullString{String: inDescription, Valid: true},
			Metadata:      sql.NullString{String: fmt.Sprintf(`{"sender_wallet":%q}`, sender.WalletNumber), Valid: true},
		}, tx)
		if err != nil {
			return err
		}

		if err := s.db.Wallet().UpdateBalanceAndFunded(tx, recipient.ID, recipientAfter, recipient.TotalFunded.Add(amount)); err != nil {
			return err
		}

		event = &LedgerEvent{
			Reference:           reference,
			Amount:              amount,
			Description:         description,
			UserID:              sender.UserID,
			EntryID:             outEntry.ID,
			CounterpartyUserID:  recipient.UserID,
			CounterpartyEntryID: inEntry.ID,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(TopicTransferCompleted, event)

	return &TransferReceipt{
		Reference: reference,
		Amount:    amount,
		Status:    repository.TransactionStatusSuccess,
	}, nil
}

type WebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		PaidAt    string `json:"paid_at"`
	} `json:"data"`
}

// HandleWebhook processes an inbound Paystack event. Delivery is
// at-least-once and possibly out of order, so everything downstream of the
// signature check must tolerate repeats; the idempotency lives in
// CreditWalletFromPayment. A reference we don't know locally is logged and
// swallowed so the provider stops retrying.
func (s *Service) HandleWebhook(ctx context.Context, signature string, payload []byte) error {
	if !s.gateway.VerifyWebhookSignature(signature, payload) {
		return ErrInvalidWebhookSignature
	}

	var body WebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return ErrInvalidWebhookPayload
	}
	if body.Data.Reference == "" || body.Data.Status == "" {
		return ErrInvalidWebhookPayload
	}

	transaction, found, err := s.db.Transaction().FindByReference(body.Data.Reference)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Info("webhook for unknown transaction",
			"reference", body.Data.Reference, "event", body.Event)
		return nil
	}

	// PENDING -> SUCCESS | FAILED are the only transitions; a late or
	// duplicate delivery for a settled transaction never flips it back
	if transaction.Status != repository.TransactionStatusPending {
		s.logger.Info("webhook for settled transaction",
			"reference", body.Data.Reference, "status", transaction.Status, "event", body.Event)
		if transaction.Status == repository.TransactionStatusSuccess &&
			transaction.Purpose == repository.TransactionPurposeWalletFunding {
			// a redelivered success may still recover a missed credit
			if err := s.CreditWalletFromPayment(ctx, body.Data.Reference); err != nil {
				s.logger.Error("failed to credit wallet from webhook",
					"reference", body.Data.Reference, "error", err)
			}
		}
		return nil
	}

	// paid_at stays NULL unless the provider sent a parseable timestamp
	var paidAt *time.Time
	if t, err := time.Parse(time.RFC3339, body.Data.PaidAt); err == nil {
		paidAt = &t
	}

	if err := s.db.Transaction().UpdateStatus(body.Data.Reference, body.Data.Status, paidAt); err != nil {
		return err
	}

	if body.Data.Status == repository.TransactionStatusSuccess &&
		transaction.Purpose == repository.TransactionPurposeWalletFunding {
		if err := s.CreditWalletFromPayment(ctx, body.Data.Reference); err != nil {
			// respond success to the provider regardless; the credit can be
			// recovered by a verify call on the same reference
			s.logger.Error("failed to credit wallet from webhook",
				"reference", body.Data.Reference, "error", err)
		}
	}

	return nil
}

type DepositStatus struct {
	Reference string       `json:"reference"`
	Status    string       `json:"status"`
	Amount    money.Amount `json:"amount"`
	PaidAt    *time.Time   `json:"paid_at,omitempty"`
}

// GetDepositStatus reports the state of a payment intent. With refresh set
// (or when the reference is unknown locally) it re-verifies against the
// gateway, which makes it the manual companion to the webhook path; both
// funnel into the same idempotent credit.
func (s *Service) GetDepositStatus(ctx context.Context, reference string, refresh bool) (*DepositStatus, error) {
	transaction, found, err := s.db.Transaction().FindByReference(reference)
	if err != nil {
		return nil, err
	}

	if found && !refresh {
		return depositStatusFromTransaction(transaction), nil
	}

	verified, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		if !found {
			return nil, ErrTransactionNotFound
		}
		return depositStatusFromTransaction(transaction), nil
	}

	if !found {
		amount, err := money.FromKobo(verified.Amount)
		if err != nil {
			return nil, ErrInvalidWebhookPayload
		}

		transaction, err = s.db.Transaction().Insert(&models.Transaction{
			Reference: reference,
			Amount:    amount,
			Purpose:   repository.TransactionPurposeApiPayment,
		}, nil)
		if err != nil {
			return nil, err
		}
	}

	// a settled transaction is immutable; the refresh may only recover a
	// missed credit, never rewrite the outcome
	if transaction.Status != repository.TransactionStatusPending {
		if transaction.Status == repository.TransactionStatusSuccess &&
			transaction.Purpose == repository.TransactionPurposeWalletFunding {
			if err := s.CreditWalletFromPayment(ctx, reference); err != nil {
				return nil, err
			}
		}
		return depositStatusFromTransaction(transaction), nil
	}

	var paidAt *time.Time
	if t, err := time.Parse(time.RFC3339, verified.PaidAt); err == nil {
		paidAt = &t
	}

	if err := s.db.Transaction().UpdateStatus(reference, verified.Status, paidAt); err != nil {
		return nil, err
	}

	if verified.Status == repository.TransactionStatusSuccess &&
		transaction.Purpose == repository.TransactionPurposeWalletFunding {
		if err := s.CreditWalletFromPayment(ctx, reference); err != nil {
			return nil, err
		}
	}

	status := depositStatusFromTransaction(transaction)
	status.Status = verified.Status
	if paidAt != nil {
		status.PaidAt = paidAt
	}

	return status, nil
}

func depositStatusFromTransaction(transaction *models.Transaction) *DepositStatus {
	status := &DepositStatus{
		Reference: transaction.Reference,
		Status:    transaction.Status,
		Amount:    transaction.Amount,
	}
	if transaction.PaidAt.Valid {
		status.PaidAt = &transaction.PaidAt.Time
	}

	return status
}

// GetTransactionHistory returns the most recent ledger entries for the
// user's wallet. A plain read; no locks are taken.
func (s *Service) GetTransactionHistory(ctx context.Context, userID string, limit int) ([]models.WalletTransaction, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	return s.db.WalletTransaction().History(wallet.ID, limit)
}

func (s *Service) publishEvent(topic string, event *LedgerEvent) {
	js, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("could not encode ledger event", "topic", topic, "error", err)
		return
	}

	go func() {
		if err := s.producer.ProduceMessage(topic, string(js)); err != nil {
			s.logger.Error("could not publish ledger event", "topic", topic, "error", err)
		}
	}()
}
