// Credit events are produced after the crediting transaction has
// committed, so by the time a message arrives here the balance is already
// settled. This worker only records the account log and sends the credit
// alert email.
package worker

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/stream"
	"github.com/tobiloba/kudiwallet/internal/wallet"
)

func (wk *Worker) CreditAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: walletCreditedGroupID,
		Topic:   wallet.TopicWalletCredited,
	})
	if err != nil {
		wk.Logger.Error("error creating credit alert consumer", "error", err)
		return
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			wk.Logger.Info("CreditAlertWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var ledgerEvent wallet.LedgerEvent
				if err := json.Unmarshal(e.Value, &ledgerEvent); err != nil {
					wk.Logger.Error("malformed credit event", "error", err)
					continue
				}

				wk.handleCreditEvent(&ledgerEvent)
			case kafka.Error:
				wk.Logger.Error("kafka error", "error", e)
			case *kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case *kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}

func (wk *Worker) handleCreditEvent(event *wallet.LedgerEvent) {
	wk.Helper.BackgroundTask(nil, func() error {
		_, err := wk.DB.AccountLog().Insert(&models.AccountLog{
			UserID:      event.UserID,
			Entity:      repository.AccountLogWalletEntity,
			EntityID:    event.EntryID,
			Description: repository.AccountLogWalletCreditedDescription,
		})
		if err != nil {
			wk.Logger.Error("error logging wallet credit", "reference", event.Reference, "error", err)
			return err
		}

		return nil
	})

	user, found, err := wk.DB.User().GetOne(event.UserID)
	if err != nil || !found {
		wk.Logger.Error("could not find user for credit alert", "user_id", event.UserID, "error", err)
		return
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Amount"] = event.Amount
		emailData["Reference"] = event.Reference

		err := wk.Mailer.Send(user.Email, emailData, "wallet-credited.tmpl")
		if err != nil {
			wk.Logger.Error("error sending credit alert email", "reference", event.Reference, "error", err)
			return err
		}

		return nil
	})
}
