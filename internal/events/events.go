package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventWorkspaceCreated     = "workspace.created"
	EventBotCreated           = "bot.created"
	EventBotRoleAssigned      = "bot.role_assigned"
	EventBotWebhookRegistered = "bot.webhook_registered"
	EventBotDeleted           = "bot.deleted"
	EventMessageSent          = "chat.message_sent"
	EventBroadcastCreated     = "broadcast.created"
	EventBroadcastCancelled   = "broadcast.cancelled"
	EventAudienceExported     = "audience.exported"
	EventUserBlocked          = "user.blocked"
	EventUserUnblocked        = "user.unblocked"
)

// AuditedEvents lists the event types that end up in the audit log.
func AuditedEvents() []string {
	return []string{
		EventWorkspaceCreated,
		EventBotCreated,
		EventBotRoleAssigned,
		EventBotWebhookRegistered,
		EventBotDeleted,
		EventMessageSent,
		EventBroadcastCreated,
		EventBroadcastCancelled,
		EventAudienceExported,
		EventUserBlocked,
		EventUserUnblocked,
	}
}

// AdminActionPayload describes an administrative action for audit consumers.
type AdminActionPayload struct {
	AdminID      uuid.UUID      `json:"admin_id"`
	BotID        *uuid.UUID     `json:"bot_id,omitempty"`
	TargetEntity string         `json:"target_entity"`
	TargetID     string         `json:"target_id"`
	Details      map[string]any `json:"details,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for one or more event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
}

// Publish notifies subscribers of the event type and joins their errors.
// Handlers run synchronously; a handler that must not block the caller
// hands the event off to its own goroutine.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a no-op.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()})
}
