package handlers

import (
	"context"
	"errors"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kissangram/engagement/internal/models"
	"github.com/kissangram/engagement/internal/push"
	"github.com/kissangram/engagement/internal/repositories"
	"github.com/kissangram/engagement/internal/store"
)

// Notifier writes notification documents and attempts push delivery.
// The document write is the durable side effect; push is best-effort
// and its failures never propagate to the caller.
type Notifier struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	sender                 push.Sender

	written    metric.Int64Counter
	deliveries metric.Int64Counter
}

// NewNotifier creates a new Notifier.
func NewNotifier(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, sender push.Sender) *Notifier {
	meter := otel.Meter("github.com/kissangram/engagement")
	written, err := meter.Int64Counter("engagement.notifications.written",
		metric.WithDescription("Notification documents written"))
	if err != nil {
		log.Printf("notifier: creating written counter: %v", err)
	}
	deliveries, err := meter.Int64Counter("engagement.push.deliveries",
		metric.WithDescription("Push delivery attempts by result"))
	if err != nil {
		log.Printf("notifier: creating deliveries counter: %v", err)
	}
	return &Notifier{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		sender:                 sender,
		written:                written,
		deliveries:             deliveries,
	}
}

// Notify writes the notification for recipientID and attempts a push.
// A self-notification (actor == recipient) is suppressed. Only the
// notification-document write can fail the call.
func (n *Notifier) Notify(ctx context.Context, recipientID string, notification models.Notification, title, body string) error {
	if notification.ActorID == recipientID {
		return nil
	}
	if err := n.notificationRepository.CreateNotification(ctx, recipientID, notification); err != nil {
		return err
	}
	n.count(ctx, n.written)

	user, err := n.userRepository.GetUser(ctx, recipientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("notifier: recipient %s has no user document, skipping push", recipientID)
		} else {
			log.Printf("notifier: loading recipient %s: %v", recipientID, err)
		}
		return nil
	}
	if user.FCMToken == "" || !user.NotificationsEnabled {
		return nil
	}

	data := map[string]string{
		"type":   notification.Type,
		"postId": notification.PostID,
	}
	if notification.CommentID != "" {
		data["commentId"] = notification.CommentID
	}
	if err := n.sender.Send(ctx, user.FCMToken, title, body, data); err != nil {
		log.Printf("notifier: push to %s failed: %v", recipientID, err)
		n.count(ctx, n.deliveries, attribute.String("result", "error"))
		return nil
	}
	n.count(ctx, n.deliveries, attribute.String("result", "ok"))
	return nil
}

func (n *Notifier) count(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// actorDisplay returns a human-readable actor name for push copy.
func actorDisplay(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}
