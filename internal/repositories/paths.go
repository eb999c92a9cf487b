package repositories

// Document and collection paths of the Kissangram Firestore schema.

func postPath(postID string) string {
	return "posts/" + postID
}

func commentPath(postID, commentID string) string {
	return "posts/" + postID + "/comments/" + commentID
}

func userPath(userID string) string {
	return "users/" + userID
}

func followersPath(userID string) string {
	return "users/" + userID + "/followers"
}

func feedEntryPath(recipientID, postID string) string {
	return "users/" + recipientID + "/feed/" + postID
}

func notificationPath(recipientID, notificationID string) string {
	return "users/" + recipientID + "/notifications/" + notificationID
}

func eventMarkerPath(eventID string) string {
	return "events/" + eventID
}
