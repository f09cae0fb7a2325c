package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/internal/model"
)

type notify func(ctx context.Context, memberUid, message string) error

type Consumer struct {
	notifyHandler notify
	log           *zap.Logger
	ready         chan bool
}

func NewConsumer(notify notify, log *zap.Logger) *Consumer {
	return &Consumer{
		notifyHandler: notify,
		log:           log.Named("consumer"),
		ready:         make(chan bool),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	// Mark the consumer as ready
	close(consumer.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines
// have exited. The ready channel is re-made here so the next session's Setup
// does not close an already-closed channel after a rebalance.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	consumer.ready = make(chan bool)
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event model.LoanEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.notifyHandler(context.Background(), event.MemberUid, eventMessage(event)); err != nil {
				consumer.log.Error("consumer.notifyHandler", zap.Error(err))
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func eventMessage(event model.LoanEvent) string {
	switch event.Type {
	case model.EventLoanIssued:
		return fmt.Sprintf("Book issued, due back by %s", event.DueAt.Format(time.DateOnly))
	case model.EventLoanRenewed:
		return fmt.Sprintf("Loan renewed, new due date %s", event.DueAt.Format(time.DateOnly))
	case model.EventFineCharged:
		return fmt.Sprintf("Fine of %d charged for a late return", event.FineAmount)
	case model.EventLoanReturned:
		return "Book returned, thank you"
	default:
		return string(event.Type)
	}
}
