package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kissangram/engagement/internal/events"
	"github.com/kissangram/engagement/internal/models"
	"github.com/kissangram/engagement/internal/repositories"
	"github.com/kissangram/engagement/internal/store"
)

// LikeHandler maintains the like counter on posts and notifies the
// post author about new likes.
type LikeHandler struct {
	postRepository repositories.PostRepository
	notifier       *Notifier
}

// NewLikeHandler creates a new LikeHandler.
func NewLikeHandler(postRepo repositories.PostRepository, notifier *Notifier) *LikeHandler {
	return &LikeHandler{
		postRepository: postRepo,
		notifier:       notifier,
	}
}

// HandleLikeCreated handles creation of posts/{postId}/likes/{userId}.
func (h *LikeHandler) HandleLikeCreated(ctx context.Context, event *events.Event) error {
	postID := event.Params["postId"]
	userID := event.Params["userId"]

	applied, err := h.postRepository.AddLikesCount(ctx, event.ID, postID, 1)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The post was deleted before this invocation ran. Likes
			// and posts race freely; nothing to count or announce.
			log.Printf("like: post %s no longer exists, skipping", postID)
			return nil
		}
		return fmt.Errorf("incrementing likesCount of %s: %w", postID, err)
	}
	if !applied {
		log.Printf("like: event %s already counted", event.ID)
	}

	post, err := h.postRepository.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("like: post %s disappeared before notification", postID)
			return nil
		}
		return err
	}
	if post.AuthorID == userID {
		return nil
	}

	like := models.LikeFromDocument(userID, event.Data)
	notification := models.Notification{
		ID:           event.ID,
		Type:         models.NotificationTypeLike,
		ActorID:      userID,
		ActorName:    like.UserName,
		ActorAvatar:  like.UserAvatar,
		PostID:       postID,
		PostImageURL: post.FirstMediaURL(),
	}
	title := "Kissangram"
	body := fmt.Sprintf("%s liked your post", actorDisplay(like.UserName))
	return h.notifier.Notify(ctx, post.AuthorID, notification, title, body)
}

// HandleLikeDeleted handles deletion of posts/{postId}/likes/{userId}.
// Notifications are not retracted on unlike.
func (h *LikeHandler) HandleLikeDeleted(ctx context.Context, event *events.Event) error {
	postID := event.Params["postId"]

	applied, err := h.postRepository.AddLikesCount(ctx, event.ID, postID, -1)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("unlike: post %s no longer exists, skipping", postID)
			return nil
		}
		return fmt.Errorf("decrementing likesCount of %s: %w", postID, err)
	}
	if !applied {
		log.Printf("unlike: event %s already counted", event.ID)
	}
	return nil
}
