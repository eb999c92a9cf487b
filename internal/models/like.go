package models

// Like is a like document. The document ID is the liking user's ID,
// which makes duplicate likes from one user naturally idempotent; the
// denormalized actor fields are whatever snapshot the client wrote.
type Like struct {
	UserID     string
	UserName   string
	UserAvatar string
}

// LikeFromDocument decodes a like snapshot.
func LikeFromDocument(userID string, data map[string]interface{}) Like {
	return Like{
		UserID:     userID,
		UserName:   docString(data, "userName"),
		UserAvatar: docString(data, "userAvatar"),
	}
}
