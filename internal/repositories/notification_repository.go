package repositories

import (
	"context"
	"fmt"

	"github.com/kissangram/engagement/internal/models"
	"github.com/kissangram/engagement/internal/store"
)

// NotificationRepository appends notifications to a recipient's
// notification collection.
type NotificationRepository interface {
	// CreateNotification writes the notification document. The write
	// is a full overwrite keyed by the notification ID, so a
	// redelivered event rewrites the same document instead of
	// duplicating it.
	CreateNotification(ctx context.Context, recipientID string, notification models.Notification) error
}

// StoreNotificationRepository implements NotificationRepository over
// the document store.
type StoreNotificationRepository struct {
	store store.Store
}

// NewNotificationRepository creates a new StoreNotificationRepository.
func NewNotificationRepository(s store.Store) *StoreNotificationRepository {
	return &StoreNotificationRepository{store: s}
}

// CreateNotification writes the notification document.
func (r *StoreNotificationRepository) CreateNotification(ctx context.Context, recipientID string, notification models.Notification) error {
	path := notificationPath(recipientID, notification.ID)
	if err := r.store.SetDocument(ctx, path, notification.Document()); err != nil {
		return fmt.Errorf("writing notification for %s: %w", recipientID, err)
	}
	return nil
}
