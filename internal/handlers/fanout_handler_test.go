package handlers_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kissangram/engagement/internal/events"
	"github.com/kissangram/engagement/internal/store"
)

func postCreatedEvent(id, postID string, data map[string]interface{}) *events.Event {
	return &events.Event{
		ID:     id,
		Type:   events.TypeDocumentCreate,
		Path:   "posts/" + postID,
		Params: map[string]string{"postId": postID},
		Data:   data,
	}
}

func TestHandlePostCreatedFansOutToAuthorAndFollowers(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "users/a1", map[string]interface{}{"name": "Ana", "postsCount": int64(3)})
	f.seed(t, "users/a1/followers/f1", map[string]interface{}{})
	f.seed(t, "users/a1/followers/f2", map[string]interface{}{})

	data := map[string]interface{}{
		"authorId":    "a1",
		"caption":     "sunset",
		"isLikedByMe": true,
		"isSavedByMe": false,
	}
	if err := f.fanout.HandlePostCreated(context.Background(), postCreatedEvent("evt-1", "p1", data)); err != nil {
		t.Fatalf("HandlePostCreated: %v", err)
	}

	if got := f.counter(t, "users/a1", "postsCount"); got != 4 {
		t.Fatalf("postsCount = %d, want 4", got)
	}

	for _, recipient := range []string{"a1", "f1", "f2"} {
		entry := f.doc(t, "users/"+recipient+"/feed/p1")
		if entry["id"] != "p1" {
			t.Fatalf("feed entry of %s: id = %v, want p1", recipient, entry["id"])
		}
		if entry["authorId"] != "a1" || entry["caption"] != "sunset" {
			t.Fatalf("feed entry of %s missing post fields: %v", recipient, entry)
		}
		if _, ok := entry["isLikedByMe"]; ok {
			t.Fatalf("feed entry of %s carries viewer field isLikedByMe", recipient)
		}
		if _, ok := entry["isSavedByMe"]; ok {
			t.Fatalf("feed entry of %s carries viewer field isSavedByMe", recipient)
		}
	}
}

func TestHandlePostCreatedAuthorIncludedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "users/a1", map[string]interface{}{})
	// The author following themselves must not produce a second entry.
	f.seed(t, "users/a1/followers/a1", map[string]interface{}{})
	f.seed(t, "users/a1/followers/f1", map[string]interface{}{})

	event := postCreatedEvent("evt-1", "p1", map[string]interface{}{"authorId": "a1"})
	if err := f.fanout.HandlePostCreated(context.Background(), event); err != nil {
		t.Fatalf("HandlePostCreated: %v", err)
	}

	var feedSets int
	for _, batch := range f.store.Batches() {
		for _, op := range batch {
			if op.Kind == store.OpSet && strings.Contains(op.Path, "/feed/") {
				feedSets++
			}
		}
	}
	if feedSets != 2 {
		t.Fatalf("feed writes = %d, want 2 (author once, follower once)", feedSets)
	}
}

func TestHandlePostCreatedWithoutAuthorIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	event := postCreatedEvent("evt-1", "p1", map[string]interface{}{"caption": "orphan"})
	if err := f.fanout.HandlePostCreated(context.Background(), event); err != nil {
		t.Fatalf("HandlePostCreated: %v", err)
	}
	if len(f.store.Batches()) != 0 {
		t.Fatalf("malformed post produced %d batches, want none", len(f.store.Batches()))
	}
}

func TestHandlePostCreatedMissingAuthorDocStillFansOut(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "users/a1/followers/f1", map[string]interface{}{})

	event := postCreatedEvent("evt-1", "p1", map[string]interface{}{"authorId": "a1"})
	if err := f.fanout.HandlePostCreated(context.Background(), event); err != nil {
		t.Fatalf("HandlePostCreated: %v", err)
	}
	if _, err := f.store.GetDocument(context.Background(), "users/f1/feed/p1"); err != nil {
		t.Fatalf("follower feed entry missing: %v", err)
	}
}

func TestHandlePostCreatedDuplicateCountsOnceButHealsFeeds(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "users/a1", map[string]interface{}{"postsCount": int64(0)})
	f.seed(t, "users/a1/followers/f1", map[string]interface{}{})

	ctx := context.Background()
	event := postCreatedEvent("evt-1", "p1", map[string]interface{}{"authorId": "a1", "caption": "v1"})
	if err := f.fanout.HandlePostCreated(ctx, event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// Simulate a feed entry lost between deliveries; the redelivery must
	// restore it without double-counting.
	if err := f.store.SetDocument(ctx, "users/f1/feed/p1", map[string]interface{}{"stale": true}); err != nil {
		t.Fatalf("corrupting feed entry: %v", err)
	}
	if err := f.fanout.HandlePostCreated(ctx, event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if got := f.counter(t, "users/a1", "postsCount"); got != 1 {
		t.Fatalf("postsCount = %d after duplicate delivery, want 1", got)
	}
	entry := f.doc(t, "users/f1/feed/p1")
	if _, ok := entry["stale"]; ok {
		t.Fatalf("redelivery did not overwrite stale feed entry: %v", entry)
	}
	if entry["caption"] != "v1" {
		t.Fatalf("healed entry = %v, want caption v1", entry)
	}
}

func TestHandlePostCreatedChunksLargeFollowerSets(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "users/a1", map[string]interface{}{})
	f.seedFollowers(t, "a1", 1200)

	event := postCreatedEvent("evt-1", "p1", map[string]interface{}{"authorId": "a1"})
	if err := f.fanout.HandlePostCreated(context.Background(), event); err != nil {
		t.Fatalf("HandlePostCreated: %v", err)
	}

	// 1200 followers plus the author: 1201 entries in batches of at most
	// 500 writes each.
	var sizes []int
	for _, batch := range f.store.Batches() {
		feed := 0
		for _, op := range batch {
			if op.Kind == store.OpSet && strings.Contains(op.Path, "/feed/") {
				feed++
			}
		}
		if feed > 0 {
			sizes = append(sizes, feed)
		}
	}
	want := []int{500, 500, 201}
	if fmt.Sprint(sizes) != fmt.Sprint(want) {
		t.Fatalf("feed batch sizes = %v, want %v", sizes, want)
	}
}
