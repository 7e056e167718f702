package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/pkg/whatsapp"
)

const (
	NotificationStreamKey = "notification_events"
	streamMaxLen          = 100000
)

// StreamNotifier queues notifications on a redis stream for NotificationWorker.
type StreamNotifier struct {
	redisClient *redis.Client
}

func NewStreamNotifier(redisClient *redis.Client) *StreamNotifier {
	return &StreamNotifier{redisClient: redisClient}
}

func (n *StreamNotifier) Notify(ctx context.Context, event models.Notification) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return n.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: NotificationStreamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"event": string(payload)},
	}).Err()
}

// DirectNotifier sends notifications inline, so failures reach the caller.
type DirectNotifier struct {
	messenger whatsapp.Messenger
}

func NewDirectNotifier(messenger whatsapp.Messenger) *DirectNotifier {
	return &DirectNotifier{messenger: messenger}
}

func (n *DirectNotifier) Notify(ctx context.Context, event models.Notification) error {
	return Dispatch(ctx, n.messenger, event)
}

// Dispatch sends one notification through messenger.
func Dispatch(ctx context.Context, messenger whatsapp.Messenger, event models.Notification) error {
	switch event.Kind {
	case models.NotificationWelcome:
		return messenger.SendWelcomeMessage(ctx, event.Name, event.Phone)
	case models.NotificationVerification:
		return messenger.SendVerificationMessage(ctx, event.Name, event.Phone, event.Link)
	default:
		return fmt.Errorf("unknown notification kind %q", event.Kind)
	}
}
