package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/models"
	"github.com/abisalde/student-portal/pkg/logger"
	"github.com/abisalde/student-portal/pkg/whatsapp"
)

type NotificationWorker struct {
	redisClient *redis.Client
	messenger   whatsapp.Messenger
	block       time.Duration
	retryDelay  time.Duration
}

func NewNotificationWorker(redisClient *redis.Client, messenger whatsapp.Messenger) *NotificationWorker {
	return &NotificationWorker{
		redisClient: redisClient,
		messenger:   messenger,
		block:       5 * time.Second,
		retryDelay:  time.Second,
	}
}

// Start consumes events published after it was called until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.consume(ctx, w.tail(ctx))
}

func (w *NotificationWorker) consume(ctx context.Context, lastID string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker shutting down")
			return
		default:
		}

		streams, err := w.redisClient.XRead(ctx, &redis.XReadArgs{
			Streams: []string{NotificationStreamKey, lastID},
			Block:   w.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error("error reading notification stream", zap.Error(err))
			time.Sleep(w.retryDelay)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				w.handle(ctx, msg)
				lastID = msg.ID
			}
		}
	}
}

// tail returns the id of the newest entry, so a restart does not resend old messages.
func (w *NotificationWorker) tail(ctx context.Context) string {
	entries, err := w.redisClient.XRevRangeN(ctx, NotificationStreamKey, "+", "-", 1).Result()
	if err != nil || len(entries) == 0 {
		return "0"
	}
	return entries[0].ID
}

func (w *NotificationWorker) handle(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		logger.Warn("notification event without payload", zap.String("id", msg.ID))
		return
	}

	var event models.Notification
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		logger.Warn("failed to unmarshal notification event", zap.String("id", msg.ID), zap.Error(err))
		return
	}

	if err := Dispatch(ctx, w.messenger, event); err != nil {
		logger.Error("failed to send WhatsApp message",
			zap.String("kind", string(event.Kind)),
			zap.String("uid", event.UserID),
			zap.Error(err),
		)
	}
}
