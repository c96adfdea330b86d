package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"botdesk/internal/database"
	"botdesk/internal/events"
	"botdesk/internal/metrics"
	"botdesk/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultDeadLetterKey = "audit:deadletter"

var ErrQueueFull = errors.New("audit queue is full")

// AuditEntry is one pending audit record.
type AuditEntry struct {
	ActionType string                    `json:"action_type"`
	Payload    events.AdminActionPayload `json:"payload"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// AuditWriter persists admin actions off the request path. Entries that
// still fail after the retry policy is exhausted go to a Redis dead-letter
// list, or to the log when Redis is not configured.
type AuditWriter struct {
	db            *database.DB
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan AuditEntry
	deadLetterKey string
	logger        zerolog.Logger

	store func(ctx context.Context, entry *models.AuditLog) error
	sleep func(ctx context.Context, d time.Duration) error

	wg sync.WaitGroup
}

func NewAuditWriter(db *database.DB, redisClient *redis.Client, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *AuditWriter {
	if queueSize <= 0 {
		queueSize = 256
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "audit_writer").Logger()
	}

	w := &AuditWriter{
		db:            db,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan AuditEntry, queueSize),
		deadLetterKey: defaultDeadLetterKey,
		logger:        l,
		sleep:         sleepCtx,
	}
	w.store = w.persist
	return w
}

// Subscribe attaches the writer to every audited event on bus.
func (w *AuditWriter) Subscribe(bus *events.EventBus) {
	bus.Subscribe(w.HandleEvent, events.AuditedEvents()...)
}

// HandleEvent decodes an admin action event and queues it without blocking.
func (w *AuditWriter) HandleEvent(event *events.Event) error {
	var payload events.AdminActionPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	return w.Enqueue(AuditEntry{ActionType: event.Type, Payload: payload, CreatedAt: event.CreatedAt})
}

func (w *AuditWriter) Enqueue(entry AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	select {
	case w.queue <- entry:
		return nil
	default:
		// Keep the record even if the queue is saturated.
		w.pushDeadLetter(context.Background(), entry, ErrQueueFull)
		return ErrQueueFull
	}
}

// Run starts the consumer in the background. Wait returns once it has
// stopped.
func (w *AuditWriter) Run(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.Start(ctx)
	}()
}

// Start consumes the queue until ctx is done, then drains what is left.
func (w *AuditWriter) Start(ctx context.Context) {
	w.logger.Info().Msg("audit writer started")
	defer w.logger.Info().Msg("audit writer stopped")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case entry := <-w.queue:
			w.process(ctx, entry)
		}
	}
}

// Wait blocks until the consumer launched by Run has returned.
func (w *AuditWriter) Wait() {
	w.wg.Wait()
}

func (w *AuditWriter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case entry := <-w.queue:
			w.process(ctx, entry)
		default:
			return
		}
	}
}

func (w *AuditWriter) process(ctx context.Context, entry AuditEntry) {
	row := entry.toModel()

	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		lastErr = w.store(ctx, row)
		if lastErr == nil {
			metrics.IncAuditWrite("written")
			return
		}
		w.logger.Warn().Err(lastErr).Int("attempt", attempt).Str("action", entry.ActionType).Msg("audit write failed")
		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		metrics.IncAuditWrite("retried")
		if err := w.sleep(ctx, w.retryPolicy.NextDelay(attempt)); err != nil {
			lastErr = err
			break
		}
	}
	w.pushDeadLetter(ctx, entry, lastErr)
}

func (w *AuditWriter) persist(ctx context.Context, row *models.AuditLog) error {
	return w.db.Do(ctx, func(uow *database.UnitOfWork) error {
		if err := uow.AuditLogs().Create(ctx, row); err != nil {
			return err
		}
		return uow.Commit()
	})
}

func (w *AuditWriter) pushDeadLetter(ctx context.Context, entry AuditEntry, cause error) {
	metrics.IncAuditWrite("dead_lettered")
	data, err := json.Marshal(entry)
	if err != nil {
		w.logger.Error().Err(err).Msg("encode audit dead letter")
		return
	}
	if w.redis == nil {
		w.logger.Error().Err(cause).RawJSON("entry", data).Msg("audit entry dropped")
		return
	}
	// ctx may already be canceled during shutdown.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := w.redis.LPush(pushCtx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).RawJSON("entry", data).Msg("audit dead letter push failed")
	}
}

func (e AuditEntry) toModel() *models.AuditLog {
	row := &models.AuditLog{
		AdminID:      e.Payload.AdminID,
		BotID:        e.Payload.BotID,
		ActionType:   e.ActionType,
		TargetEntity: e.Payload.TargetEntity,
		TargetID:     e.Payload.TargetID,
		Details:      e.Payload.Details,
	}
	row.CreatedAt = e.CreatedAt
	return row
}
