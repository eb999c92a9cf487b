package handlers_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/kissangram/engagement/internal/handlers"
	"github.com/kissangram/engagement/internal/repositories"
	"github.com/kissangram/engagement/internal/store"
)

// sentPush records one fake push delivery.
type sentPush struct {
	token string
	title string
	body  string
	data  map[string]string
}

// fakeSender is a push.Sender that records deliveries and can be
// forced to fail.
type fakeSender struct {
	sent []sentPush
	err  error
}

func (f *fakeSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.sent = append(f.sent, sentPush{token: token, title: title, body: body, data: data})
	return f.err
}

// fixture wires the real repositories over an in-memory store, so
// handler tests observe the same document effects the client would.
type fixture struct {
	store    *store.MemoryStore
	sender   *fakeSender
	fanout   *handlers.FanoutHandler
	likes    *handlers.LikeHandler
	comments *handlers.CommentHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := store.NewMemoryStore()
	postRepo := repositories.NewPostRepository(ms)
	userRepo := repositories.NewUserRepository(ms)
	followRepo := repositories.NewFollowRepository(ms)
	feedRepo := repositories.NewFeedRepository(ms, 1)
	notificationRepo := repositories.NewNotificationRepository(ms)
	sender := &fakeSender{}
	notifier := handlers.NewNotifier(notificationRepo, userRepo, sender)
	return &fixture{
		store:    ms,
		sender:   sender,
		fanout:   handlers.NewFanoutHandler(userRepo, followRepo, feedRepo),
		likes:    handlers.NewLikeHandler(postRepo, notifier),
		comments: handlers.NewCommentHandler(postRepo, notifier),
	}
}

func (f *fixture) seed(t *testing.T, path string, data map[string]interface{}) {
	t.Helper()
	if err := f.store.SetDocument(context.Background(), path, data); err != nil {
		t.Fatalf("seeding %s: %v", path, err)
	}
}

func (f *fixture) doc(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := f.store.GetDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func (f *fixture) counter(t *testing.T, path, field string) int64 {
	t.Helper()
	v := f.doc(t, path)[field]
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case nil:
		return 0
	default:
		t.Fatalf("%s.%s is %T, not a counter", path, field, v)
		return 0
	}
}

func (f *fixture) notifications(t *testing.T, userID string) []store.Document {
	t.Helper()
	docs, err := f.store.ListDocuments(context.Background(), "users/"+userID+"/notifications")
	if err != nil {
		t.Fatalf("listing notifications of %s: %v", userID, err)
	}
	return docs
}

func (f *fixture) seedFollowers(t *testing.T, authorID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f.seed(t, fmt.Sprintf("users/%s/followers/f%04d", authorID, i), map[string]interface{}{})
	}
}
