package worker

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/stream"
	"github.com/tobiloba/kudiwallet/internal/wallet"
)

// DebitAlertWorker reacts to withdrawal reservations. The debit itself is
// already committed; this only records the account log and notifies the
// owner.
func (wk *Worker) DebitAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: walletDebitedGroupID,
		Topic:   wallet.TopicWalletDebited,
	})
	if err != nil {
		wk.Logger.Error("error creating debit alert consumer", "error", err)
		return
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			wk.Logger.Info("DebitAlertWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var ledgerEvent wallet.LedgerEvent
				if err := json.Unmarshal(e.Value, &ledgerEvent); err != nil {
					wk.Logger.Error("malformed debit event", "error", err)
					continue
				}

				wk.handleDebitEvent(&ledgerEvent)
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

func (wk *Worker) handleDebitEvent(event *wallet.LedgerEvent) {
	wk.Helper.BackgroundTask(nil, func() error {
		_, err := wk.DB.AccountLog().Insert(&models.AccountLog{
			UserID:      event.UserID,
			Entity:      repository.AccountLogWalletEntity,
			EntityID:    event.EntryID,
			Description: repository.AccountLogWalletDebitedDescription,
		})
		if err != nil {
			wk.Logger.Error("error logging wallet debit", "reference", event.Reference, "error", err)
			return err
		}

		return nil
	})

	user, found, err := wk.DB.User().GetOne(event.UserID)
	if err != nil || !found {
		wk.Logger.Error("could not find user for debit alert", "user_id", event.UserID, "error", err)
		return
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Amount"] = event.Amount
		emailData["Reference"] = event.Reference

		err := wk.Mailer.Send(user.Email, emailData, "wallet-debited.tmpl")
		if err != nil {
			wk.Logger.Error("error sending debit alert email", "reference", event.Reference, "error", err)
			return err
		}

		return nil
	})
}
