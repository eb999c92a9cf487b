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

// FanoutHandler reacts to post creation: it bumps the author's post
// counter and copies the post into the author's feed and every
// follower's feed.
type FanoutHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	feedRepository   repositories.FeedRepository
}

// NewFanoutHandler creates a new FanoutHandler.
func NewFanoutHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, feedRepo repositories.FeedRepository) *FanoutHandler {
	return &FanoutHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		feedRepository:   feedRepo,
	}
}

// HandlePostCreated handles creation of posts/{postId}.
func (h *FanoutHandler) HandlePostCreated(ctx context.Context, event *events.Event) error {
	postID := event.Params["postId"]
	post := models.PostFromDocument(postID, event.Data)

	// A post without an author is malformed input; retrying cannot fix
	// it, so acknowledge and move on.
	if post.AuthorID == "" {
		log.Printf("fanout: post %s has no authorId, skipping", postID)
		return nil
	}

	applied, err := h.userRepository.AddPostsCount(ctx, event.ID, post.AuthorID, 1)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("fanout: author %s of post %s has no user document", post.AuthorID, postID)
		} else {
			return fmt.Errorf("incrementing postsCount for %s: %w", post.AuthorID, err)
		}
	}
	if err == nil && !applied {
		// Duplicate delivery. The counter stays untouched, but the
		// fan-out below re-runs: feed writes are full overwrites, so
		// this is how a partially fanned-out post heals on retry.
		log.Printf("fanout: event %s already applied, re-running fan-out only", event.ID)
	}

	entry := models.FeedEntryFromPost(postID, event.Data)

	followerIDs, err := h.followRepository.GetFollowerIDs(ctx, post.AuthorID)
	if err != nil {
		return fmt.Errorf("resolving recipients for post %s: %w", postID, err)
	}
	recipients := withAuthor(followerIDs, post.AuthorID)

	if err := h.feedRepository.FanOutPost(ctx, postID, entry, recipients); err != nil {
		return err
	}
	log.Printf("fanout: post %s delivered to %d feeds", postID, len(recipients))
	return nil
}

// withAuthor returns the follower set with the author included exactly
// once; the author always sees their own post.
func withAuthor(followerIDs []string, authorID string) []string {
	seen := make(map[string]bool, len(followerIDs)+1)
	recipients := make([]string, 0, len(followerIDs)+1)
	for _, id := range followerIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, id)
	}
	if !seen[authorID] {
		recipients = append(recipients, authorID)
	}
	return recipients
}
