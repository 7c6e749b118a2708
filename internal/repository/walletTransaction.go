package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/tobiloba/kudiwallet/internal/models"
)

// ledger entry types
const (
	WalletTransactionTypeCredit      = "credit"
	WalletTransactionTypeDebit       = "debit"
	WalletTransactionTypeTransferIn  = "transfer_in"
	WalletTransactionTypeTransferOut = "transfer_out"
)

// ledger entry / payment intent statuses
const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

type WalletTransactionRepository interface {
	Insert(entry *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error)
	ExistsByReference(tx *sqlx.Tx, reference string) (bool, error)
	FindByIDForUpdate(tx *sqlx.Tx, id string) (*models.WalletTransaction, bool, error)
	UpdateStatus(tx *sqlx.Tx, id string, status string) error
	History(walletID string, limit int) ([]models.WalletTransaction, error)
}

type WalletTransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletTransactionRepository(db *sqlx.DB) WalletTransactionRepository {
	return &WalletTransactionRepositoryImpl{db: db}
}

const walletTransactionColumns = `id, wallet_id, type, amount, balance_before, balance_after, status, reference, description, metadata, created_at, updated_at`

func (repo *WalletTransactionRepositoryImpl) Insert(entry *models.WalletTransaction, tx *sqlx.Tx) (*models.WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.WalletTransaction

	query := `
		INSERT INTO wallet_transactions (wallet_id, type, amount, balance_before, balance_after, status, reference, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + walletTransactionColumns

	args := []any{
		entry.WalletID,
		entry.Type,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Status,
		entry.Reference,
		entry.Description,
		entry.Metadata,
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

// ExistsByReference is the idempotency guard for external payment events.
// Inside the crediting transaction it sees entries committed by any racing
// webhook or verify call that finished first.
func (repo *WalletTransactionRepositoryImpl) ExistsByReference(tx *sqlx.Tx, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM wallet_transactions WHERE reference=$1)`

	if tx != nil {
		err := tx.GetContext(ctx, &exists, query, reference)
		if err != nil {
			return false, err
		}
	} else {
		err := repo.db.GetContext(ctx, &exists, query, reference)
		if err != nil {
			return false, err
		}
	}

	return exists, nil
}

func (repo *WalletTransactionRepositoryImpl) FindByIDForUpdate(tx *sqlx.Tx, id string) (*models.WalletTransaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entry models.WalletTransaction

	query := `SELECT ` + walletTransactionColumns + ` FROM wallet_transactions WHERE id=$1 FOR UPDATE`

	err := tx.GetContext(ctx, &entry, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &entry, true, nil
}

// UpdateStatus only moves the status field; amount and balance snapshots
// are immutable after insert.
func (repo *WalletTransactionRepositoryImpl) UpdateStatus(tx *sqlx.Tx, id string, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallet_transactions SET status=$1, updated_at=now() WHERE id=$2`

	if tx != nil {
		_, err := tx.ExecContext(ctx, query, status, id)
		return err
	}

	_, err := repo.db.ExecContext(ctx, query, status, id)
	return err
}

func (repo *WalletTransactionRepositoryImpl) History(walletID string, limit int) ([]models.WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var entries []models.WalletTransaction

	query := `
		SELECT ` + walletTransactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id=$1
		ORDER BY created_at DESC
		LIMIT $2`

	err := repo.db.SelectContext(ctx, &entries, query, walletID, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
