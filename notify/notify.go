// Package notify delivers user-facing events. Each notice is stored as a
// notification record and then pushed to the recipient's live connections.
// Delivery is best effort: failures are logged and never returned.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"foodieconnect/models"
	"foodieconnect/storage"
)

// EventNotification carries the stored record to the client.
const EventNotification = "notification"

// Pusher fans an event out to the live connections of the given users.
type Pusher interface {
	Push(ctx context.Context, userIDs []string, event string, data any) error
}

type Notice struct {
	Type    string
	Title   string
	Message string
	RefType string
	RefID   string
	// Data is the realtime payload sent under the Type event name.
	Data map[string]any
}

type Dispatcher struct {
	store  storage.NotificationStore
	pusher Pusher
	now    func() time.Time
}

func NewDispatcher(store storage.NotificationStore, pusher Pusher) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, now: time.Now}
}

// Notify records n for each user and pushes it.
func (d *Dispatcher) Notify(ctx context.Context, userIDs []string, n Notice) {
	if d == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	var payload json.RawMessage
	if n.Data != nil {
		if b, err := json.Marshal(n.Data); err == nil {
			payload = b
		}
	}

	for _, userID := range userIDs {
		rec := &models.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			RefType:   n.RefType,
			RefID:     n.RefID,
			Payload:   payload,
			CreatedAt: d.now().UTC(),
		}
		if err := d.store.CreateNotification(ctx, rec); err != nil {
			slog.Error("store notification failed", "error", err, "user_id", userID, "type", n.Type)
			continue
		}
		d.push(ctx, []string{userID}, EventNotification, rec)
	}

	if n.Data != nil {
		d.push(ctx, userIDs, n.Type, n.Data)
	}
}

// Push sends a transient event without storing it.
func (d *Dispatcher) Push(ctx context.Context, userIDs []string, event string, data any) {
	if d == nil {
		return
	}
	d.push(context.WithoutCancel(ctx), userIDs, event, data)
}

func (d *Dispatcher) push(ctx context.Context, userIDs []string, event string, data any) {
	if d.pusher == nil || len(userIDs) == 0 {
		return
	}
	if err := d.pusher.Push(ctx, userIDs, event, data); err != nil {
		slog.Warn("push event failed", "error", err, "event", event, "users", len(userIDs))
	}
}
