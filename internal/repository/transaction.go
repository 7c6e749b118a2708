package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tobiloba/kudiwallet/internal/models"
)

// Transaction purposes. An explicit column, not a reference prefix, decides
// whether a successful payment credits a wallet.
const (
	TransactionPurposeWalletFunding = "wallet_funding"
	TransactionPurposeApiPayment    = "api_payment"
)

type TransactionRepository interface {
	Insert(transaction *models.Transaction, tx *sqlx.Tx) (*models.Transaction, error)
	FindByReference(reference string) (*models.Transaction, bool, error)
	FindByReferenceTx(tx *sqlx.Tx, reference string) (*models.Transaction, bool, error)
	ReferenceExists(reference string) (bool, error)
	UpdateStatus(reference string, status string, paidAt *time.Time) error
	ListByUser(userID string, limit int) ([]models.Transaction, error)
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

const transactionColumns = `id, reference, amount, status, purpose, authorization_url, paid_at, user_id, created_at, updated_at`

func (repo *TransactionRepositoryImpl) Insert(transaction *models.Transaction, tx *sqlx.Tx) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.Transaction

	query := `
		INSERT INTO transactions (reference, amount, purpose, authorization_url, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + transactionColumns

	args := []any{
		transaction.Reference,
		transaction.Amount,
		transaction.Purpose,
		transaction.AuthorizationURL,
		transaction.UserID,
	}

	if tx != nil {
		err := tx.GetContext(ctx, &created, query, args...)
		if err != nil {
			return nil, err
		}
	} else {
		err := repo.db.GetContext(ctx, &created, query, args...)
		if err != nil {
			return nil, err
		}
	}

	return &created, nil
}

func (repo *TransactionRepositoryImpl) FindByReference(reference string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transaction models.Transaction

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference=$1`

	err := repo.db.GetContext(ctx, &transaction, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &transaction, true, nil
}

// FindByReferenceTx re-reads the payment inside the crediting transaction
// so the status decision and the ledger write share one consistent view.
func (repo *TransactionRepositoryImpl) FindByReferenceTx(tx *sqlx.Tx, reference string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transaction models.Transaction

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference=$1`

	err := tx.GetContext(ctx, &transaction, query, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &transaction, true, nil
}

func (repo *TransactionRepositoryImpl) ReferenceExists(reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE reference=$1)`

	err := repo.db.GetContext(ctx, &exists, query, reference)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// UpdateStatus settles a pending transaction. Rows that already reached
// SUCCESS or FAILED are immutable and stay untouched, whatever the caller
// asks for.
func (repo *TransactionRepositoryImpl) UpdateStatus(reference string, status string, paidAt *time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var paid sql.NullTime
	if paidAt != nil {
		paid = sql.NullTime{Time: *paidAt, Valid: true}
	}

	query := `
		UPDATE transactions
		SET status=$1, paid_at=COALESCE($2, paid_at), updated_at=now()
		WHERE reference=$3 AND status=$4`

	_, err := repo.db.ExecContext(ctx, query, status, paid, reference, TransactionStatusPending)
	return err
}

func (repo *TransactionRepositoryImpl) ListByUser(userID string, limit int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transactions []models.Transaction

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2`

	err := repo.db.SelectContext(ctx, &transactions, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
