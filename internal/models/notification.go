package models

import "github.com/kissangram/engagement/internal/store"

// Notification types emitted by the pipeline.
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
)

// Notification is an engagement event targeted at one recipient,
// carrying a denormalized snapshot of the actor and the referenced
// post/comment.
type Notification struct {
	ID           string
	Type         string
	ActorID      string
	ActorName    string
	ActorAvatar  string
	PostID       string
	CommentID    string
	PostImageURL string
}

// Document returns the notification as a store document. CommentID and
// PostImageURL serialize as null when absent; createdAt is filled
// server-side.
func (n Notification) Document() map[string]interface{} {
	doc := map[string]interface{}{
		"type":         n.Type,
		"actorId":      n.ActorID,
		"actorName":    n.ActorName,
		"actorAvatar":  n.ActorAvatar,
		"postId":       n.PostID,
		"commentId":    nil,
		"postImageUrl": nil,
		"isRead":       false,
		"createdAt":    store.ServerTimestamp,
	}
	if n.CommentID != "" {
		doc["commentId"] = n.CommentID
	}
	if n.PostImageURL != "" {
		doc["postImageUrl"] = n.PostImageURL
	}
	return doc
}
