package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/coopfin/sacco_core_app/internal/core/domain"
	portssvc "github.com/coopfin/sacco_core_app/internal/core/ports/services"
)

// TransactionCompletedEvent is the wire shape published after a transaction
// commits. Consumers key on the SACCO so per-tenant ordering is preserved
// within a partition.
type TransactionCompletedEvent struct {
	TransactionID     string          `json:"transactionID"`
	TransactionNumber string          `json:"transactionNumber"`
	SaccoID           string          `json:"saccoID"`
	MemberID          string          `json:"memberID"`
	AccountID         string          `json:"accountID"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	NetAmount         decimal.Decimal `json:"netAmount"`
	BalanceAfter      decimal.Decimal `json:"balanceAfter"`
	ReversalOfID      *string         `json:"reversalOfID,omitempty"`
	OccurredAt        time.Time       `json:"occurredAt"`
}

// Publisher emits transaction events to Kafka.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

var _ portssvc.TransactionEventPublisher = (*Publisher)(nil)

// PublishTransactionCompleted emits one event for a committed transaction.
func (p *Publisher) PublishTransactionCompleted(ctx context.Context, txn domain.Transaction) error {
	event := TransactionCompletedEvent{
		TransactionID:     txn.TransactionID,
		TransactionNumber: txn.TransactionNumber,
		SaccoID:           txn.SaccoID,
		MemberID:          txn.MemberID,
		AccountID:         txn.AccountID,
		Type:              string(txn.Type),
		Amount:            txn.Amount,
		NetAmount:         txn.NetAmount,
		BalanceAfter:      txn.BalanceAfter,
		ReversalOfID:      txn.ReversalOfID,
		OccurredAt:        txn.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(txn.SaccoID),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
