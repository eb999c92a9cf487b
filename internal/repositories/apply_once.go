package repositories

import (
	"context"
	"errors"

	"github.com/kissangram/engagement/internal/store"
)

// applyOnce commits ops in one atomic batch together with a marker
// document for the delivery's event ID. The marker is a create-only
// write, so a redelivered event fails the whole batch and the ops are
// never applied twice. Returns false when the event was already
// applied; that is not an error.
//
// Trigger delivery is at-least-once, so this is the only safe way to
// run non-idempotent writes such as counter increments.
func applyOnce(ctx context.Context, s store.Store, eventID string, ops ...store.WriteOp) (bool, error) {
	marker := store.Create(eventMarkerPath(eventID), map[string]interface{}{
		"processedAt": store.ServerTimestamp,
	})
	batch := append([]store.WriteOp{marker}, ops...)
	err := s.CommitBatch(ctx, batch)
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
