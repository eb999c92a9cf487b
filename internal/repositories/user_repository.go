package repositories

import (
	"context"
	"fmt"

	"github.com/kissangram/engagement/internal/models"
	"github.com/kissangram/engagement/internal/store"
)

// UserRepository defines the user data operations the pipeline needs.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	AddPostsCount(ctx context.Context, eventID, userID string, delta int64) (bool, error)
}

// StoreUserRepository implements UserRepository over the document store.
type StoreUserRepository struct {
	store store.Store
}

// NewUserRepository creates a new StoreUserRepository.
func NewUserRepository(s store.Store) *StoreUserRepository {
	return &StoreUserRepository{store: s}
}

// GetUser retrieves a user by ID.
func (r *StoreUserRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	data, err := r.store.GetDocument(ctx, userPath(userID))
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", userID, err)
	}
	user := models.UserFromDocument(userID, data)
	return &user, nil
}

// AddPostsCount atomically adds delta to the user's postsCount, at
// most once per event ID.
func (r *StoreUserRepository) AddPostsCount(ctx context.Context, eventID, userID string, delta int64) (bool, error) {
	return applyOnce(ctx, r.store, eventID, store.Increment(userPath(userID), "postsCount", delta))
}
