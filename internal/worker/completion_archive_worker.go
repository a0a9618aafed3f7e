package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"gopherai-chatbot/internal/model"
)

type CompletionRecordStore interface {
	Create(ctx context.Context, record *model.CompletionRecord) error
}

// CompletionArchiveWorker drains the archive queue into the record store.
// Undecodable deliveries are dropped; store failures are requeued once.
type CompletionArchiveWorker struct {
	conn      *amqp.Connection
	store     CompletionRecordStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCompletionArchiveWorker(conn *amqp.Connection, store CompletionRecordStore, queueName string, logger *zap.Logger) *CompletionArchiveWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionArchiveWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *CompletionArchiveWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("archive deliveries channel closed", zap.String("queue", w.queueName))
					return
				}
				w.settle(d, w.handle(workerCtx, d.Body), d.Redelivered)
			}
		}
	}()

	w.logger.Info("completion archive worker started", zap.String("queue", w.queueName))
	return nil
}

type handleResult int

const (
	resultAck handleResult = iota
	resultDrop
	resultRetry
)

func (w *CompletionArchiveWorker) handle(ctx context.Context, body []byte) handleResult {
	var record model.CompletionRecord
	if err := json.Unmarshal(body, &record); err != nil {
		w.logger.Warn("archive decode record failed", zap.Error(err))
		return resultDrop
	}
	if record.SessionID == "" {
		w.logger.Warn("archive record without session id dropped")
		return resultDrop
	}
	record.ID = 0

	if err := w.store.Create(ctx, &record); err != nil {
		w.logger.Error("archive persist record failed", zap.String("session_id", record.SessionID), zap.Error(err))
		return resultRetry
	}
	return resultAck
}

func (w *CompletionArchiveWorker) settle(d amqp.Delivery, result handleResult, redelivered bool) {
	switch result {
	case resultAck:
		_ = d.Ack(false)
	case resultRetry:
		_ = d.Nack(false, !redelivered)
	default:
		_ = d.Nack(false, false)
	}
}

func (w *CompletionArchiveWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
