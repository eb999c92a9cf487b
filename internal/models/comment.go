package models

import "time"

// Comment is the subset of a comment document the pipeline reads.
// Comments are soft-deleted by flipping isActive to false; a missing
// isActive field means the comment is active (older clients never
// wrote the field).
type Comment struct {
	ID              string
	PostID          string
	AuthorID        string
	AuthorName      string
	Text            string
	ParentCommentID string
	RepliesCount    int64
	IsActive        bool
	CreatedAt       time.Time
}

// CommentFromDocument decodes a comment snapshot.
func CommentFromDocument(id string, data map[string]interface{}) Comment {
	return Comment{
		ID:              id,
		PostID:          docString(data, "postId"),
		AuthorID:        docString(data, "authorId"),
		AuthorName:      docString(data, "authorName"),
		Text:            docString(data, "text"),
		ParentCommentID: docString(data, "parentCommentId"),
		RepliesCount:    docInt64(data, "repliesCount"),
		IsActive:        docBool(data, "isActive", true),
		CreatedAt:       docTime(data, "createdAt"),
	}
}

// IsReply reports whether the comment replies to another comment
// rather than to the post itself.
func (c Comment) IsReply() bool {
	return c.ParentCommentID != ""
}
