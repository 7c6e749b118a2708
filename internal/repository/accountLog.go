package repository

import (
	"context"

	"github.com/tobiloba/kudiwallet/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	AccountLogWalletEntity      = "wallet"
	AccountLogTransactionEntity = "transaction"

	AccountLogWalletCreditedDescription   = "Wallet credited"
	AccountLogWalletDebitedDescription    = "Wallet debited"
	AccountLogTransferOutDescription      = "Transfer sent"
	AccountLogTransferInDescription       = "Transfer received"
	AccountLogWithdrawalFailedDescription = "Withdrawal failed, balance restored"
)

type AccountLogRepository interface {
	Insert(log *models.AccountLog) (*models.AccountLog, error)
}

type AccountLogRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountLogRepository(db *sqlx.DB) AccountLogRepository {
	return &AccountLogRepositoryImpl{db: db}
}

func (repo *AccountLogRepositoryImpl) Insert(log *models.AccountLog) (*models.AccountLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.AccountLog

	query := `
		INSERT INTO account_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, entity, entity_id, description, created_at`

	err := repo.db.GetContext(ctx, &created, query,
		log.UserID,
		log.Entity,
		log.EntityID,
		log.Description,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}
