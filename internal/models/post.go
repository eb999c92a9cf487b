package models

import "time"

// Viewer-relative flags the client stores on a post document. They are
// meaningless in a multi-recipient feed copy and are stripped during
// fan-out; each viewer recomputes them client-side.
var viewerFields = []string{"isLikedByMe", "isSavedByMe"}

// Post is the subset of a post document the pipeline reads.
type Post struct {
	ID            string
	AuthorID      string
	LikesCount    int64
	CommentsCount int64
	Media         []interface{}
	CreatedAt     time.Time
}

// PostFromDocument decodes a post snapshot.
func PostFromDocument(id string, data map[string]interface{}) Post {
	return Post{
		ID:            id,
		AuthorID:      docString(data, "authorId"),
		LikesCount:    docInt64(data, "likesCount"),
		CommentsCount: docInt64(data, "commentsCount"),
		Media:         docSlice(data, "media"),
		CreatedAt:     docTime(data, "createdAt"),
	}
}

// FirstMediaURL returns the URL of the post's first media item, or ""
// when the post carries no media. Media items are either plain URL
// strings or objects with a "url" field, depending on client version.
func (p Post) FirstMediaURL() string {
	if len(p.Media) == 0 {
		return ""
	}
	switch item := p.Media[0].(type) {
	case string:
		return item
	case map[string]interface{}:
		return docString(item, "url")
	default:
		return ""
	}
}

// FeedEntryFromPost builds the denormalized feed copy of a post: a
// shallow copy of every post field with the id pinned to the document
// key and viewer-relative flags removed.
func FeedEntryFromPost(postID string, data map[string]interface{}) map[string]interface{} {
	entry := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		entry[k] = v
	}
	entry["id"] = postID
	for _, field := range viewerFields {
		delete(entry, field)
	}
	return entry
}
