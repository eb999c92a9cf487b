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

// CommentHandler maintains the comment and reply counters and notifies
// the post author and, for replies, the parent comment's author.
type CommentHandler struct {
	postRepository repositories.PostRepository
	notifier       *Notifier
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(postRepo repositories.PostRepository, notifier *Notifier) *CommentHandler {
	return &CommentHandler{
		postRepository: postRepo,
		notifier:       notifier,
	}
}

// HandleCommentCreated handles creation of posts/{postId}/comments/{commentId}.
func (h *CommentHandler) HandleCommentCreated(ctx context.Context, event *events.Event) error {
	postID := event.Params["postId"]
	commentID := event.Params["commentId"]
	comment := models.CommentFromDocument(commentID, event.Data)

	// A reply counts against its parent comment, a top-level comment
	// against the post.
	var applied bool
	var err error
	if comment.IsReply() {
		applied, err = h.postRepository.AddRepliesCount(ctx, event.ID, postID, comment.ParentCommentID, 1)
	} else {
		applied, err = h.postRepository.AddCommentsCount(ctx, event.ID, postID, 1)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("comment: counter target for comment %s of post %s no longer exists, skipping", commentID, postID)
			return nil
		}
		return fmt.Errorf("counting comment %s of post %s: %w", commentID, postID, err)
	}
	if !applied {
		log.Printf("comment: event %s already counted", event.ID)
	}

	post, err := h.postRepository.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("comment: post %s disappeared before notification", postID)
			return nil
		}
		return err
	}

	notified := map[string]bool{comment.AuthorID: true}

	if !notified[post.AuthorID] {
		notification := commentNotification(event.ID+"-"+post.AuthorID, comment, post)
		body := fmt.Sprintf("%s commented on your post", actorDisplay(comment.AuthorName))
		if err := h.notifier.Notify(ctx, post.AuthorID, notification, "Kissangram", body); err != nil {
			return err
		}
		notified[post.AuthorID] = true
	}

	// The parent-comment author gets a reply notification even when
	// the commenter is the post author (their own-post comment only
	// suppresses the post-author notification above).
	if comment.IsReply() {
		parent, err := h.postRepository.GetComment(ctx, postID, comment.ParentCommentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if !notified[parent.AuthorID] {
			notification := commentNotification(event.ID+"-"+parent.AuthorID, comment, post)
			body := fmt.Sprintf("%s replied to your comment", actorDisplay(comment.AuthorName))
			if err := h.notifier.Notify(ctx, parent.AuthorID, notification, "Kissangram", body); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleCommentUpdated handles updates of comment documents. Only the
// soft-delete transition (isActive true to false) adjusts counters;
// every other edit is a no-op.
func (h *CommentHandler) HandleCommentUpdated(ctx context.Context, event *events.Event) error {
	commentID := event.Params["commentId"]
	before := models.CommentFromDocument(commentID, event.OldData)
	after := models.CommentFromDocument(commentID, event.Data)

	if !before.IsActive || after.IsActive {
		return nil
	}
	return h.commentRemoved(ctx, event, after)
}

// HandleCommentDeleted handles hard deletion of comment documents,
// folding it into the same removal accounting as soft deletes. A
// comment that was already soft-deleted has already been retired from
// the counters and must not be counted twice.
func (h *CommentHandler) HandleCommentDeleted(ctx context.Context, event *events.Event) error {
	commentID := event.Params["commentId"]
	removed := models.CommentFromDocument(commentID, event.OldData)

	if !removed.IsActive {
		log.Printf("comment: %s was already inactive when deleted", commentID)
		return nil
	}
	return h.commentRemoved(ctx, event, removed)
}

func (h *CommentHandler) commentRemoved(ctx context.Context, event *events.Event, removed models.Comment) error {
	postID := event.Params["postId"]

	var applied bool
	var err error
	if removed.IsReply() {
		applied, err = h.postRepository.AddRepliesCount(ctx, event.ID, postID, removed.ParentCommentID, -1)
	} else {
		applied, err = h.postRepository.AddCommentsCount(ctx, event.ID, postID, -1)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("comment: counter target for removed comment %s of post %s no longer exists", removed.ID, postID)
			return nil
		}
		return fmt.Errorf("uncounting comment %s of post %s: %w", removed.ID, postID, err)
	}
	if !applied {
		log.Printf("comment: removal event %s already counted", event.ID)
	}
	return nil
}

func commentNotification(id string, comment models.Comment, post *models.Post) models.Notification {
	return models.Notification{
		ID:           id,
		Type:         models.NotificationTypeComment,
		ActorID:      comment.AuthorID,
		ActorName:    comment.AuthorName,
		PostID:       post.ID,
		CommentID:    comment.ID,
		PostImageURL: post.FirstMediaURL(),
	}
}
