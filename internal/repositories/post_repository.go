package repositories

import (
	"context"
	"fmt"

	"github.com/kissangram/engagement/internal/models"
	"github.com/kissangram/engagement/internal/store"
)

// PostRepository defines the post and comment data operations the
// pipeline needs. Counter mutations are recorded against the
// delivery's event ID so a redelivered event cannot double-apply; the
// boolean result reports whether the mutation was applied (false
// means duplicate delivery).
type PostRepository interface {
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error)
	AddLikesCount(ctx context.Context, eventID, postID string, delta int64) (bool, error)
	AddCommentsCount(ctx context.Context, eventID, postID string, delta int64) (bool, error)
	AddRepliesCount(ctx context.Context, eventID, postID, commentID string, delta int64) (bool, error)
}

// StorePostRepository implements PostRepository over the document store.
type StorePostRepository struct {
	store store.Store
}

// NewPostRepository creates a new StorePostRepository.
func NewPostRepository(s store.Store) *StorePostRepository {
	return &StorePostRepository{store: s}
}

// GetPost retrieves a post by ID.
func (r *StorePostRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	data, err := r.store.GetDocument(ctx, postPath(postID))
	if err != nil {
		return nil, fmt.Errorf("getting post %s: %w", postID, err)
	}
	post := models.PostFromDocument(postID, data)
	return &post, nil
}

// GetComment retrieves a comment of a post by ID.
func (r *StorePostRepository) GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	data, err := r.store.GetDocument(ctx, commentPath(postID, commentID))
	if err != nil {
		return nil, fmt.Errorf("getting comment %s of post %s: %w", commentID, postID, err)
	}
	comment := models.CommentFromDocument(commentID, data)
	return &comment, nil
}

// AddLikesCount atomically adds delta to the post's likesCount, at
// most once per event ID.
func (r *StorePostRepository) AddLikesCount(ctx context.Context, eventID, postID string, delta int64) (bool, error) {
	return applyOnce(ctx, r.store, eventID, store.Increment(postPath(postID), "likesCount", delta))
}

// AddCommentsCount atomically adds delta to the post's commentsCount,
// at most once per event ID.
func (r *StorePostRepository) AddCommentsCount(ctx context.Context, eventID, postID string, delta int64) (bool, error) {
	return applyOnce(ctx, r.store, eventID, store.Increment(postPath(postID), "commentsCount", delta))
}

// AddRepliesCount atomically adds delta to a comment's repliesCount,
// at most once per event ID.
func (r *StorePostRepository) AddRepliesCount(ctx context.Context, eventID, postID, commentID string, delta int64) (bool, error) {
	return applyOnce(ctx, r.store, eventID, store.Increment(commentPath(postID, commentID), "repliesCount", delta))
}
