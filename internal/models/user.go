package models

// User is the subset of a user document the pipeline reads and
// mutates. Counters are only ever touched through atomic increments;
// the push fields are read to decide delivery. Notifications default
// to enabled when the field was never written.
type User struct {
	ID                   string
	Name                 string
	PostsCount           int64
	FCMToken             string
	NotificationsEnabled bool
}

// UserFromDocument decodes a user snapshot.
func UserFromDocument(id string, data map[string]interface{}) User {
	return User{
		ID:                   id,
		Name:                 docString(data, "name"),
		PostsCount:           docInt64(data, "postsCount"),
		FCMToken:             docString(data, "fcmToken"),
		NotificationsEnabled: docBool(data, "notificationsEnabled", true),
	}
}
