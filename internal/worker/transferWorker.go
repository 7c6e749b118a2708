// A completed transfer committed both ledger entries in one transaction
// before the event was produced. This worker records account logs for
// both parties and sends each an alert email.
package worker

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/stream"
	"github.com/tobiloba/kudiwallet/internal/wallet"
)

func (wk *Worker) TransferAlertWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: transferCompletedGroupID,
		Topic:   wallet.TopicTransferCompleted,
	})
	if err != nil {
		wk.Logger.Error("error creating transfer alert consumer", "error", err)
		return
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			wk.Logger.Info("TransferAlertWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var ledgerEvent wallet.LedgerEvent
				if err := json.Unmarshal(e.Value, &ledgerEvent); err != nil {
					wk.Logger.Error("malformed transfer event", "error", err)
					continue
				}

				wk.handleTransferEvent(&ledgerEvent)
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

func (wk *Worker) handleTransferEvent(event *wallet.LedgerEvent) {
	wk.Helper.BackgroundTask(nil, func() error {
		_, err := wk.DB.AccountLog().Insert(&models.AccountLog{
			UserID:      event.UserID,
			Entity:      repository.AccountLogTransactionEntity,
			EntityID:    event.EntryID,
			Description: repository.AccountLogTransferOutDescription,
		})
		return err
	})

	wk.Helper.BackgroundTask(nil, func() error {
		_, err := wk.DB.AccountLog().Insert(&models.AccountLog{
			UserID:      event.CounterpartyUserID,
			Entity:      repository.AccountLogTransactionEntity,
			EntityID:    event.CounterpartyEntryID,
			Description: repository.AccountLogTransferInDescription,
		})
		return err
	})

	wk.sendTransferAlert(event.UserID, "sent from", event)
	wk.sendTransferAlert(event.CounterpartyUserID, "received into", event)
}

func (wk *Worker) sendTransferAlert(userID, direction string, event *wallet.LedgerEvent) {
	user, found, err := wk.DB.User().GetOne(userID)
	if err != nil || !found {
		wk.Logger.Error("could not find user for transfer alert", "user_id", userID, "error", err)
		return
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Amount"] = event.Amount
		emailData["Reference"] = event.Reference
		emailData["Description"] = event.Description
		emailData["Direction"] = direction

		err := wk.Mailer.Send(user.Email, emailData, "transfer-completed.tmpl")
		if err != nil {
			wk.Logger.Error("error sending transfer alert email", "reference", event.Reference, "error", err)
			return err
		}

		return nil
	})
}
