package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/money"
)

type WalletRepository interface {
	Insert(wallet *models.Wallet, tx *sqlx.Tx) (*models.Wallet, error)
	FindByUserID(userID string) (*models.Wallet, bool, error)
	FindByWalletNumber(walletNumber string) (*models.Wallet, bool, error)
	FindByIDForUpdate(tx *sqlx.Tx, id string) (*models.Wallet, bool, error)
	FindByUserIDForUpdate(tx *sqlx.Tx, userID string) (*models.Wallet, bool, error)
	UpdateBalance(tx *sqlx.Tx, id string, balance money.Amount) error
	UpdateBalanceAndFunded(tx *sqlx.Tx, id string, balance, totalFunded money.Amount) error
	WalletNumberExists(walletNumber string) (bool, error)
	SetLocked(id string, locked bool) error
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

const walletColumns = `id, user_id, wallet_number, balance, total_funded, is_locked, created_at, updated_at`

func (repo *WalletRepositoryImpl) Insert(wallet *models.Wallet, tx *sqlx.Tx) (*models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.Wallet

	query := `
		INSERT INTO wallets (user_id, wallet_number)
		VALUES ($1, $2)
		RETURNING ` + walletColumns

	if tx != nil {
		err := tx.GetContext(ctx, &created, query, wallet.UserID, wallet.WalletNumber)
		if err != nil {
			return nil, err
		}
	} else {
		err := repo.db.GetContext(ctx, &created, query, wallet.UserID, wallet.WalletNumber)
		if err != nil {
			return nil, err
		}
	}

	return &created, nil
}

func (repo *WalletRepositoryImpl) FindByUserID(userID string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id=$1`

	err := repo.db.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) FindByWalletNumber(walletNumber string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE wallet_number=$1`

	err := repo.db.GetContext(ctx, &wallet, query, walletNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// FindByIDForUpdate takes an exclusive row lock on the wallet. It must be
// called inside a storage transaction; concurrent mutations on the same
// wallet serialize behind this lock.
func (repo *WalletRepositoryImpl) FindByIDForUpdate(tx *sqlx.Tx, id string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id=$1 FOR UPDATE`

	err := tx.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) FindByUserIDForUpdate(tx *sqlx.Tx, userID string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id=$1 FOR UPDATE`

	err := tx.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) UpdateBalance(tx *sqlx.Tx, id string, balance money.Amount) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET balance=$1, updated_at=now() WHERE id=$2`

	_, err := tx.ExecContext(ctx, query, balance, id)
	return err
}

func (repo *WalletRepositoryImpl) UpdateBalanceAndFunded(tx *sqlx.Tx, id string, balance, totalFunded money.Amount) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET balance=$1, total_funded=$2, updated_at=now() WHERE id=$3`

	_, err := tx.ExecContext(ctx, query, balance, totalFunded, id)
	return err
}

func (repo *WalletRepositoryImpl) WalletNumberExists(walletNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM wallets WHERE wallet_number=$1)`

	err := repo.db.GetContext(ctx, &exists, query, walletNumber)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (repo *WalletRepositoryImpl) SetLocked(id string, locked bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET is_locked=$1, updated_at=now() WHERE id=$2`

	_, err := repo.db.ExecContext(ctx, query, locked, id)
	return err
}
