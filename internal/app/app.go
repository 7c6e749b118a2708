package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tobiloba/kudiwallet/internal/cache"
	"github.com/tobiloba/kudiwallet/internal/config"
	"github.com/tobiloba/kudiwallet/internal/env"
	"github.com/tobiloba/kudiwallet/internal/errHandler"
	"github.com/tobiloba/kudiwallet/internal/helper"
	"github.com/tobiloba/kudiwallet/internal/paystack"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/smtp"
	"github.com/tobiloba/kudiwallet/internal/stream"
	"github.com/tobiloba/kudiwallet/internal/wallet"

	"github.com/joho/godotenv"
)

// Essential services and resources are exposed on the Application so
// methods can reach them when they need them.
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	Cache        *cache.Cache
	Kafka        *stream.KafkaStream
	Wallet       *wallet.Service
	errorHandler *errHandler.ErrorHandler
	helper       *helper.HelperRepository
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for development mode only; make sure no
	// production-level value is exposed as a default here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/kudiwallet")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	cfg.Paystack.SecretKey = env.GetString("PAYSTACK_SECRET_KEY", "")
	cfg.Paystack.WebhookSecret = env.GetString("PAYSTACK_WEBHOOK_SECRET", "")
	cfg.Paystack.BaseURL = env.GetString("PAYSTACK_BASE_URL", "")

	// server errors won't be sent via email if NOTIFICATIONS_EMAIL wasn't set
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "kudiwallet <no_reply@kudiwallet.test>")

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	gateway, err := paystack.New(cfg.Paystack.SecretKey, cfg.Paystack.WebhookSecret, cfg.Paystack.BaseURL, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment gateway: %w", err)
	}

	app := &Application{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Mailer: mailer,
	}

	app.helper = helper.New(&cfg.BaseURL, &app.WG)
	app.errorHandler = errHandler.New(cfg.Notifications.Email, mailer, logger, app.helper)
	app.helper.SetReporter(app.errorHandler)

	app.Cache = cache.New(cfg.RedisServer, 0)
	app.Kafka = stream.New(cfg.KafkaServers, logger)

	app.Wallet = wallet.NewService(db, gateway, app.Cache, app.Kafka, logger)

	return app, nil
}

func (app *Application) Helper() *helper.HelperRepository {
	return app.helper
}
