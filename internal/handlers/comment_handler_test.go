package handlers_test

import (
	"context"
	"strings"
	"testing"

	"github.com/kissangram/engagement/internal/events"
)

func commentEvent(id, eventType, postID, commentID string, data, oldData map[string]interface{}) *events.Event {
	return &events.Event{
		ID:      id,
		Type:    eventType,
		Path:    "posts/" + postID + "/comments/" + commentID,
		Params:  map[string]string{"postId": postID, "commentId": commentID},
		Data:    data,
		OldData: oldData,
	}
}

func TestHandleCommentCreatedTopLevelCountsAndNotifiesPostAuthor(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"authorId": "a1", "commentsCount": int64(0)})
	f.seed(t, "users/a1", map[string]interface{}{"fcmToken": "tok-a1"})

	event := commentEvent("evt-1", events.TypeDocumentCreate, "p1", "c1", map[string]interface{}{
		"authorId":   "u2",
		"authorName": "Bela",
		"text":       "nice shot",
		"isActive":   true,
	}, nil)
	if err := f.comments.HandleCommentCreated(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentCreated: %v", err)
	}

	if got := f.counter(t, "posts/p1", "commentsCount"); got != 1 {
		t.Fatalf("commentsCount = %d, want 1", got)
	}

	docs := f.notifications(t, "a1")
	if len(docs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(docs))
	}
	doc := docs[0].Data
	if doc["type"] != "comment" || doc["actorId"] != "u2" || doc["commentId"] != "c1" {
		t.Fatalf("notification = %v", doc)
	}
	if len(f.sender.sent) != 1 || !strings.Contains(f.sender.sent[0].body, "commented on your post") {
		t.Fatalf("push = %+v", f.sender.sent)
	}
	if f.sender.sent[0].data["commentId"] != "c1" {
		t.Fatalf("push data = %v", f.sender.sent[0].data)
	}
}

func TestHandleCommentCreatedReplyCountsAgainstParent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"authorId": "a1", "commentsCount": int64(1)})
	f.seed(t, "posts/p1/comments/c1", map[string]interface{}{"authorId": "u2", "repliesCount": int64(0)})
	f.seed(t, "users/a1", map[string]interface{}{})
	f.seed(t, "users/u2", map[string]interface{}{"fcmToken": "tok-u2"})

	event := commentEvent("evt-1", events.TypeDocumentCreate, "p1", "c2", map[string]interface{}{
		"authorId":        "u3",
		"authorName":      "Caro",
		"parentCommentId": "c1",
		"isActive":        true,
	}, nil)
	if err := f.comments.HandleCommentCreated(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentCreated: %v", err)
	}

	if got := f.counter(t, "posts/p1", "commentsCount"); got != 1 {
		t.Fatalf("commentsCount = %d, replies must not touch it", got)
	}
	if got := f.counter(t, "posts/p1/comments/c1", "repliesCount"); got != 1 {
		t.Fatalf("repliesCount = %d, want 1", got)
	}

	// Both the post author and the parent comment's author hear about a
	// reply from a third party.
	if docs := f.notifications(t, "a1"); len(docs) != 1 {
		t.Fatalf("post author notifications = %d, want 1", len(docs))
	}
	docs := f.notifications(t, "u2")
	if len(docs) != 1 {
		t.Fatalf("parent author notifications = %d, want 1", len(docs))
	}
	if len(f.sender.sent) != 1 || !strings.Contains(f.sender.sent[0].body, "replied to your comment") {
		t.Fatalf("push = %+v", f.sender.sent)
	}
}

func TestHandleCommentCreatedPostAuthorReplyStillNotifiesParentAuthor(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"authorId": "a1"})
	f.seed(t, "posts/p1/comments/c1", map[string]interface{}{"authorId": "u2"})
	f.seed(t, "users/u2", map[string]interface{}{})

	// The post author replying to a commenter suppresses the post-author
	// notification but still notifies the parent comment's author.
	event := commentEvent("evt-1", events.TypeDocumentCreate, "p1", "c2", map[string]interface{}{
		"authorId":        "a1",
		"parentCommentId": "c1",
		"isActive":        true,
	}, nil)
	if err := f.comments.HandleCommentCreated(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentCreated: %v", err)
	}

	if docs := f.notifications(t, "a1"); len(docs) != 0 {
		t.Fatalf("post author self-notified %d times", len(docs))
	}
	if docs := f.notifications(t, "u2"); len(docs) != 1 {
		t.Fatalf("parent author notifications = %d, want 1", len(docs))
	}
}

func TestHandleCommentCreatedParentAuthorIsPostAuthorNotifiedOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"authorId": "a1"})
	f.seed(t, "posts/p1/comments/c1", map[string]interface{}{"authorId": "a1"})
	f.seed(t, "users/a1", map[string]interface{}{})

	event := commentEvent("evt-1", events.TypeDocumentCreate, "p1", "c2", map[string]interface{}{
		"authorId":        "u3",
		"parentCommentId": "c1",
		"isActive":        true,
	}, nil)
	if err := f.comments.HandleCommentCreated(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentCreated: %v", err)
	}
	if docs := f.notifications(t, "a1"); len(docs) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(docs))
	}
}

func TestHandleCommentCreatedDuplicateDeliveryCountsOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"authorId": "a1", "commentsCount": int64(0)})

	ctx := context.Background()
	event := commentEvent("evt-1", events.TypeDocumentCreate, "p1", "c1", map[string]interface{}{
		"authorId": "u2",
		"isActive": true,
	}, nil)
	for i := 0; i < 2; i++ {
		if err := f.comments.HandleCommentCreated(ctx, event); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	if got := f.counter(t, "posts/p1", "commentsCount"); got != 1 {
		t.Fatalf("commentsCount = %d, want 1", got)
	}
	if docs := f.notifications(t, "a1"); len(docs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(docs))
	}
}

func TestHandleCommentUpdatedSoftDeleteDecrements(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"commentsCount": int64(2)})

	before := map[string]interface{}{"authorId": "u2", "isActive": true}
	after := map[string]interface{}{"authorId": "u2", "isActive": false}
	event := commentEvent("evt-1", events.TypeDocumentUpdate, "p1", "c1", after, before)
	if err := f.comments.HandleCommentUpdated(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentUpdated: %v", err)
	}
	if got := f.counter(t, "posts/p1", "commentsCount"); got != 1 {
		t.Fatalf("commentsCount = %d, want 1", got)
	}
}

func TestHandleCommentUpdatedOtherEditsAreNoOps(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"commentsCount": int64(2)})

	cases := []struct {
		name          string
		before, after map[string]interface{}
	}{
		{
			name:   "text edit",
			before: map[string]interface{}{"text": "old", "isActive": true},
			after:  map[string]interface{}{"text": "new", "isActive": true},
		},
		{
			name:   "already inactive",
			before: map[string]interface{}{"isActive": false},
			after:  map[string]interface{}{"isActive": false},
		},
		{
			name:   "restore",
			before: map[string]interface{}{"isActive": false},
			after:  map[string]interface{}{"isActive": true},
		},
	}
	for _, tc := range cases {
		event := commentEvent("evt-"+tc.name, events.TypeDocumentUpdate, "p1", "c1", tc.after, tc.before)
		if err := f.comments.HandleCommentUpdated(context.Background(), event); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
	}
	if got := f.counter(t, "posts/p1", "commentsCount"); got != 2 {
		t.Fatalf("commentsCount = %d, want untouched 2", got)
	}
}

func TestHandleCommentUpdatedReplySoftDeleteDecrementsParent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"commentsCount": int64(1)})
	f.seed(t, "posts/p1/comments/c1", map[string]interface{}{"repliesCount": int64(3)})

	before := map[string]interface{}{"parentCommentId": "c1", "isActive": true}
	after := map[string]interface{}{"parentCommentId": "c1", "isActive": false}
	event := commentEvent("evt-1", events.TypeDocumentUpdate, "p1", "c2", after, before)
	if err := f.comments.HandleCommentUpdated(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentUpdated: %v", err)
	}

	if got := f.counter(t, "posts/p1/comments/c1", "repliesCount"); got != 2 {
		t.Fatalf("repliesCount = %d, want 2", got)
	}
	if got := f.counter(t, "posts/p1", "commentsCount"); got != 1 {
		t.Fatalf("commentsCount = %d, want untouched 1", got)
	}
}

func TestHandleCommentDeletedDecrementsActiveComment(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"commentsCount": int64(1)})

	old := map[string]interface{}{"authorId": "u2", "isActive": true}
	event := commentEvent("evt-1", events.TypeDocumentDelete, "p1", "c1", nil, old)
	if err := f.comments.HandleCommentDeleted(context.Background(), event); err != nil {
		t.Fatalf("HandleCommentDeleted: %v", err)
	}
	if got := f.counter(t, "posts/p1", "commentsCount"); got != 0 {
		t.Fatalf("commentsCount = %d, want 0", got)
	}
}

func TestHandleCommentDeletedAfterSoftDeleteDoesNotDoubleCount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"commentsCount": int64(1)})

	ctx := context.Background()
	before := map[string]interface{}{"isActive": true}
	after := map[string]interface{}{"isActive": false}
	update := commentEvent("evt-1", events.TypeDocumentUpdate, "p1", "c1", after, before)
	if err := f.comments.HandleCommentUpdated(ctx, update); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	del := commentEvent("evt-2", events.TypeDocumentDelete, "p1", "c1", nil, after)
	if err := f.comments.HandleCommentDeleted(ctx, del); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if got := f.counter(t, "posts/p1", "commentsCount"); got != 0 {
		t.Fatalf("commentsCount = %d, want 0 (decremented exactly once)", got)
	}
}

func TestHandleCommentCreatedMissingPostIsBenign(t *testing.T) {
	f := newFixture(t)

	event := commentEvent("evt-1", events.TypeDocumentCreate, "gone", "c1", map[string]interface{}{
		"authorId": "u2",
		"isActive": true,
	}, nil)
	if err := f.comments.HandleCommentCreated(context.Background(), event); err != nil {
		t.Fatalf("comment on deleted post: %v", err)
	}
}

func TestHandleCommentCreatedReplyToMissingParentIsBenign(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "posts/p1", map[string]interface{}{"authorId": "a1"})
	f.seed(t, "users/a1", map[string]interface{}{})

	// The parent comment was hard-deleted before this delivery ran.
	event := commentEvent("evt-1", events.TypeDocumentCreate, "p1", "c2", map[string]interface{}{
		"authorId":        "u3",
		"parentCommentId": "gone",
		"isActive":        true,
	}, nil)
	if err := f.comments.HandleCommentCreated(context.Background(), event); err != nil {
		t.Fatalf("reply to deleted parent: %v", err)
	}
	if docs := f.notifications(t, "a1"); len(docs) != 0 {
		t.Fatalf("notifications = %d after skipped count, want 0", len(docs))
	}
}
