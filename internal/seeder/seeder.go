// Package seeder provisions development fixtures: a demo user with a
// wallet and an API key with default quotas. Safe to run repeatedly.
package seeder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/money"
	"github.com/tobiloba/kudiwallet/internal/repository"

	"github.com/cradoe/gopass"
	"github.com/jmoiron/sqlx"
)

const (
	demoEmail    = "demo@kudiwallet.test"
	demoPassword = "Demo@Wallet1"

	defaultRateLimitPerHour = 100
	defaultRateLimitPerDay  = 1000
)

type Seeder struct {
	DB repository.Database
}

func New(db repository.Database) *Seeder {
	return &Seeder{DB: db}
}

func (seeder *Seeder) Run() {
	seeder.seedDemoAccount()
}

func (seeder *Seeder) seedDemoAccount() {
	_, found, err := seeder.DB.User().GetByEmail(demoEmail)
	if err != nil {
		log.Fatalf("Failed to check demo user: %v", err)
	}
	if found {
		return
	}

	hashedPassword, err := gopass.Hash(demoPassword)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	rawKey := make([]byte, 24)
	if _, err := rand.Read(rawKey); err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}
	apiKey := "kw_live_" + hex.EncodeToString(rawKey)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = seeder.DB.InTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := seeder.DB.User().Insert(&models.User{
			FirstName:      "Demo",
			LastName:       "User",
			Email:          demoEmail,
			HashedPassword: hashedPassword,
		}, tx)
		if err != nil {
			return err
		}

		number, err := money.GenerateWalletNumber()
		if err != nil {
			return err
		}

		_, err = seeder.DB.Wallet().Insert(&models.Wallet{
			UserID:       userID,
			WalletNumber: number,
		}, tx)
		if err != nil {
			return err
		}

		_, err = seeder.DB.ApiKey().Insert(&models.ApiKey{
			Key:              apiKey,
			Name:             "Demo key",
			UserID:           userID,
			Permissions:      "wallet:read,wallet:write,payments",
			RateLimitPerHour: defaultRateLimitPerHour,
			RateLimitPerDay:  defaultRateLimitPerDay,
		}, tx)
		return err
	})
	if err != nil {
		log.Fatalf("Failed to seed demo account: %v", err)
	}

	log.Printf("Seeded demo account %s with API key %s", demoEmail, apiKey)
}
