package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/tobiloba/kudiwallet/assets"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Wallet() WalletRepository
	WalletTransaction() WalletTransactionRepository
	Transaction() TransactionRepository
	ApiKey() ApiKeyRepository
	AccountLog() AccountLogRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db                    *sqlx.DB
	userRepo              UserRepository
	walletRepo            WalletRepository
	walletTransactionRepo WalletTransactionRepository
	transactionRepo       TransactionRepository
	apiKeyRepo            ApiKeyRepository
	accountLogRepo        AccountLogRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// InTx runs fn inside a single storage transaction, committing when fn
// returns nil and rolling back otherwise. Row locks taken through the
// tx are released either way.
func (d *DatabaseImpl) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.db)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) WalletTransaction() WalletTransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletTransactionRepo == nil {
		d.walletTransactionRepo = NewWalletTransactionRepository(d.db)
	}
	return d.walletTransactionRepo
}

func (d *DatabaseImpl) Transaction() TransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transactionRepo == nil {
		d.transactionRepo = NewTransactionRepository(d.db)
	}
	return d.transactionRepo
}

func (d *DatabaseImpl) ApiKey() ApiKeyRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.apiKeyRepo == nil {
		d.apiKeyRepo = NewApiKeyRepository(d.db)
	}
	return d.apiKeyRepo
}

func (d *DatabaseImpl) AccountLog() AccountLogRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.accountLogRepo == nil {
		d.accountLogRepo = NewAccountLogRepository(d.db)
	}
	return d.accountLogRepo
}
