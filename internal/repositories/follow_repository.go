package repositories

import (
	"context"
	"fmt"

	"github.com/kissangram/engagement/internal/store"
)

// FollowRepository reads the follower relation. A follow is the bare
// existence of users/{userId}/followers/{followerId}; the document ID
// is all the pipeline needs.
type FollowRepository interface {
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// StoreFollowRepository implements FollowRepository over the document store.
type StoreFollowRepository struct {
	store store.Store
}

// NewFollowRepository creates a new StoreFollowRepository.
func NewFollowRepository(s store.Store) *StoreFollowRepository {
	return &StoreFollowRepository{store: s}
}

// GetFollowerIDs returns the IDs of every user following userID.
func (r *StoreFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	docs, err := r.store.ListDocuments(ctx, followersPath(userID))
	if err != nil {
		return nil, fmt.Errorf("listing followers of %s: %w", userID, err)
	}
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids, nil
}
