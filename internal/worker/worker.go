// Package worker runs the Kafka consumers that react to committed ledger
// events. They write account logs and send alert emails; they never touch
// wallet balances, which are settled synchronously before the event is
// produced.
package worker

import (
	"context"
	"log/slog"

	"github.com/tobiloba/kudiwallet/internal/helper"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/smtp"
	"github.com/tobiloba/kudiwallet/internal/stream"
)

const (
	// walletCreditedGroupID is used for workers that react to confirmed wallet credits
	walletCreditedGroupID = "wallet-credited-group"

	// walletDebitedGroupID is used for workers that react to withdrawal debits
	walletDebitedGroupID = "wallet-debited-group"

	// transferCompletedGroupID is used for workers that react to completed wallet-to-wallet transfers
	transferCompletedGroupID = "transfer-completed-group"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Ctx         context.Context
	Helper      *helper.HelperRepository
	Mailer      smtp.MailerInterface
	Logger      *slog.Logger
}

// Workers typically need the database, the event stream, the mailer and
// the background-task helper; worker-specific dependencies are passed as
// arguments to the individual worker.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Ctx:         wk.Ctx,
		Helper:      wk.Helper,
		Mailer:      wk.Mailer,
		Logger:      wk.Logger,
	}
}
