package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tobiloba/kudiwallet/internal/config"
	"github.com/tobiloba/kudiwallet/internal/errHandler"
	"github.com/tobiloba/kudiwallet/internal/helper"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/money"
	"github.com/tobiloba/kudiwallet/internal/paystack"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/wallet"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

// stub repositories override only what the webhook path touches; the
// embedded nil interfaces make any unexpected call panic loudly.

type stubTransactionRepo struct {
	repository.TransactionRepository

	transaction   *models.Transaction
	statusUpdates []string
}

func (s *stubTransactionRepo) FindByReference(reference string) (*models.Transaction, bool, error) {
	if s.transaction == nil || s.transaction.Reference != reference {
		return nil, false, nil
	}
	return s.transaction, true, nil
}

func (s *stubTransactionRepo) FindByReferenceTx(tx *sqlx.Tx, reference string) (*models.Transaction, bool, error) {
	return s.FindByReference(reference)
}

func (s *stubTransactionRepo) UpdateStatus(reference string, status string, paidAt *time.Time) error {
	s.statusUpdates = append(s.statusUpdates, status)
	s.transaction.Status = status
	return nil
}

type stubWalletRepo struct {
	repository.WalletRepository

	wallet         *models.Wallet
	balanceUpdates []money.Amount
}

func (s *stubWalletRepo) FindByUserIDForUpdate(tx *sqlx.Tx, userID string) (*models.Wallet, bool, error) {
	if s.wallet == nil || s.wallet.UserID != userID {
		return nil, false, nil
	}
	return s.wallet, true, nil
}

func (s *stubWalletRepo) UpdateBalanceAndFunded(tx *sqlx.Tx, id string, balance, totalFunded money.Amount) error {
	s.balanceUpdates = append(s.balanceUpdates, balance)
	return nil
}

type stubWalletTransactionRepo struct {
	repository.WalletTransactionRepository

	existing bool
	inserted []*models.WalletTransaction
}

func (s *stubWalletTransactionRepo) ExistsByReference(tx *sqlx.Tx, reference string) (bool, error) {
	return s.existing, nil
}

func (s *stubWalletTransactionRepo) Insert(entry *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error) {
	s.inserted = append(s.inserted, entry)
	created := *entry
	created.ID = "wt-test"
	return &created, nil
}

type stubDatabase struct {
	repository.Database

	transactions       *stubTransactionRepo
	wallets            *stubWalletRepo
	walletTransactions *stubWalletTransactionRepo
}

func (s *stubDatabase) Transaction() repository.TransactionRepository { return s.transactions }

func (s *stubDatabase) Wallet() repository.WalletRepository { return s.wallets }

func (s *stubDatabase) WalletTransaction() repository.WalletTransactionRepository {
	return s.walletTransactions
}

func (s *stubDatabase) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (noopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, key string) error { return nil }

type noopProducer struct{}

func (noopProducer) ProduceMessage(topic, message string) error { return nil }

type noopMailer struct{}

func (noopMailer) Send(recipient string, data any, patterns ...string) error { return nil }

func newWebhookTestHandler(t *testing.T, db *stubDatabase) *RouteHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway, err := paystack.New("sk_test", testWebhookSecret, "", "http://localhost:4444")
	require.NoError(t, err)

	var wg sync.WaitGroup
	baseURL := "http://localhost:4444"
	help := helper.New(&baseURL, &wg)
	errs := errHandler.New("", noopMailer{}, logger, help)
	help.SetReporter(errs)

	service := wallet.NewService(db, gateway, noopCache{}, noopProducer{}, logger)

	return NewRouteHandler(&RouteHandler{
		DB:         db,
		Wallet:     service,
		ErrHandler: errs,
		Helper:     help,
		Mailer:     noopMailer{},
		Config:     &config.Config{BaseURL: baseURL},
	})
}

func signWebhookPayload(payload []byte) string {
	mac := hmac.New(sha512.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *RouteHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set(paystackSignatureHeader, signature)

	rec := httptest.NewRecorder()
	h.HandlePaystackWebhook(rec, req)
	return rec
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	db := &stubDatabase{
		transactions:       &stubTransactionRepo{},
		wallets:            &stubWalletRepo{},
		walletTransactions: &stubWalletTransactionRepo{},
	}
	h := newWebhookTestHandler(t, db)

	payload := []byte(`{"event":"charge.success","data":{"reference":"txn_1_aa","status":"success"}}`)

	rec := postWebhook(h, payload, "deadbeef")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// signature over a different body must not pass either
	rec = postWebhook(h, payload, signWebhookPayload([]byte(`{"event":"charge.success"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Empty(t, db.transactions.statusUpdates)
}

func TestWebhookMalformedPayload(t *testing.T) {
	db := &stubDatabase{
		transactions:       &stubTransactionRepo{},
		wallets:            &stubWalletRepo{},
		walletTransactions: &stubWalletTransactionRepo{},
	}
	h := newWebhookTestHandler(t, db)

	payload := []byte(`not json at all`)

	rec := postWebhook(h, payload, signWebhookPayload(payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookUnknownReferenceAnswersOk(t *testing.T) {
	db := &stubDatabase{
		transactions:       &stubTransactionRepo{},
		wallets:            &stubWalletRepo{},
		walletTransactions: &stubWalletTransactionRepo{},
	}
	h := newWebhookTestHandler(t, db)

	payload := []byte(`{"event":"charge.success","data":{"reference":"txn_9_zz","status":"success","amount":5000}}`)

	rec := postWebhook(h, payload, signWebhookPayload(payload))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookSuccessCreditsWalletOnce(t *testing.T) {
	db := &stubDatabase{
		transactions: &stubTransactionRepo{
			transaction: &models.Transaction{
				Reference: "txn_1_aa",
				Amount:    money.Amount(250000),
				Status:    repository.TransactionStatusPending,
				Purpose:   repository.TransactionPurposeWalletFunding,
				UserID:    sql.NullString{String: "u-1", Valid: true},
			},
		},
		wallets: &stubWalletRepo{
			wallet: &models.Wallet{ID: "w-1", UserID: "u-1", Balance: money.Amount(100000)},
		},
		walletTransactions: &stubWalletTransactionRepo{},
	}
	h := newWebhookTestHandler(t, db)

	payload := []byte(`{"event":"charge.success","data":{"reference":"txn_1_aa","status":"success","amount":250000,"paid_at":"2025-01-02T10:00:00Z"}}`)

	rec := postWebhook(h, payload, signWebhookPayload(payload))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []string{repository.TransactionStatusSuccess}, db.transactions.statusUpdates)
	require.Len(t, db.walletTransactions.inserted, 1)
	require.Equal(t, repository.WalletTransactionTypeCredit, db.walletTransactions.inserted[0].Type)
	require.Equal(t, []money.Amount{money.Amount(350000)}, db.wallets.balanceUpdates)

	// a replay of the same event finds the ledger entry and does nothing
	db.walletTransactions.existing = true

	rec = postWebhook(h, payload, signWebhookPayload(payload))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, db.walletTransactions.inserted, 1)
}
