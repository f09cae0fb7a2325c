package notifier

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/internal/model"
	cb "github.com/urveshtaral/library-management-system/pkg/circuit_breaker"
	"github.com/urveshtaral/library-management-system/pkg/kafka"
)

// Notifier publishes loan events to kafka. Publishing is best-effort:
// errors are logged and swallowed so a broker outage cannot fail a
// lending operation. The circuit breaker keeps a dead broker from
// adding producer latency to every request.
type Notifier struct {
	producer sarama.SyncProducer
	breaker  cb.CircuitBreaker
	log      *zap.Logger
}

func New(producer sarama.SyncProducer, log *zap.Logger) *Notifier {
	return &Notifier{
		producer: producer,
		breaker:  cb.New(20, 30*time.Second, 0.5, 5),
		log:      log.Named("notifier"),
	}
}

func (n *Notifier) Publish(event model.LoanEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		n.log.Error("marshal loan event", zap.Error(err))
		return
	}
	err = n.breaker.Call(func() error {
		msg := &sarama.ProducerMessage{
			Topic: kafka.LoanEventsTopic,
			Key:   sarama.StringEncoder(event.MemberUid),
			Value: sarama.ByteEncoder(data),
		}
		_, _, err := n.producer.SendMessage(msg)
		return err
	})
	if err != nil {
		n.log.Warn("publish loan event",
			zap.String("type", string(event.Type)),
			zap.String("loanUid", event.LoanUid),
			zap.Error(err))
	}
}

// Noop drops events. Used when kafka is not configured.
type Noop struct{}

func (Noop) Publish(model.LoanEvent) {}
