// Package reconcile recomputes engagement counters from their source
// subcollections. It is the self-healing backstop for counters that
// drifted, e.g. after quota exhaustion dropped a trigger delivery for
// good.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kissangram/engagement/internal/models"
	"github.com/kissangram/engagement/internal/store"
)

// Reconciler recounts a post's counters from source of truth.
type Reconciler struct {
	store store.Store
}

// NewReconciler creates a new Reconciler.
func NewReconciler(s store.Store) *Reconciler {
	return &Reconciler{store: s}
}

// Recount is the result of one reconciliation pass.
type Recount struct {
	PostID        string           `json:"post_id"`
	LikesCount    int64            `json:"likes_count"`
	CommentsCount int64            `json:"comments_count"`
	RepliesCounts map[string]int64 `json:"replies_counts"`
}

// RecountPost recounts likesCount, commentsCount, and every comment's
// repliesCount of one post and rewrites any counter that drifted.
// Inactive comments count for nothing.
func (r *Reconciler) RecountPost(ctx context.Context, postID string) (*Recount, error) {
	postPath := "posts/" + postID
	if _, err := r.store.GetDocument(ctx, postPath); err != nil {
		return nil, fmt.Errorf("reconciling post %s: %w", postID, err)
	}

	likes, err := r.store.ListDocuments(ctx, postPath+"/likes")
	if err != nil {
		return nil, err
	}

	comments, err := r.store.ListDocuments(ctx, postPath+"/comments")
	if err != nil {
		return nil, err
	}

	result := &Recount{
		PostID:        postID,
		LikesCount:    int64(len(likes)),
		RepliesCounts: make(map[string]int64),
	}
	replies := make(map[string]int64)
	for _, doc := range comments {
		comment := models.CommentFromDocument(doc.ID, doc.Data)
		if !comment.IsActive {
			continue
		}
		if comment.IsReply() {
			replies[comment.ParentCommentID]++
		} else {
			result.CommentsCount++
		}
	}

	err = r.store.UpdateDocument(ctx, postPath, map[string]interface{}{
		"likesCount":    result.LikesCount,
		"commentsCount": result.CommentsCount,
	})
	if err != nil {
		return nil, fmt.Errorf("rewriting counters of post %s: %w", postID, err)
	}

	for _, doc := range comments {
		comment := models.CommentFromDocument(doc.ID, doc.Data)
		want := replies[comment.ID]
		result.RepliesCounts[comment.ID] = want
		if comment.RepliesCount == want {
			continue
		}
		err := r.store.UpdateDocument(ctx, postPath+"/comments/"+comment.ID, map[string]interface{}{
			"repliesCount": want,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("reconcile: comment %s of post %s vanished mid-pass", comment.ID, postID)
				continue
			}
			return nil, fmt.Errorf("rewriting repliesCount of comment %s: %w", comment.ID, err)
		}
	}
	log.Printf("reconcile: post %s recounted (likes=%d comments=%d)", postID, result.LikesCount, result.CommentsCount)
	return result, nil
}
