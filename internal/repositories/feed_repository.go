package repositories

import (
	"context"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/kissangram/engagement/internal/store"
)

// FeedRepository writes denormalized post copies into recipient feeds.
type FeedRepository interface {
	// FanOutPost writes entry to users/{recipient}/feed/{postID} for
	// every recipient. Writes are full overwrites, so re-running a
	// fan-out after a partial failure is safe.
	FanOutPost(ctx context.Context, postID string, entry map[string]interface{}, recipientIDs []string) error
}

// StoreFeedRepository implements FeedRepository over the document
// store, committing in chunks of at most store.MaxBatchWrites.
type StoreFeedRepository struct {
	store store.Store

	// commitConcurrency caps concurrent chunk commits. 1 keeps the
	// commits strictly sequential, which bounds memory and connection
	// use per invocation; raise it only for very large follower sets.
	commitConcurrency int

	batchCounter metric.Int64Counter
}

// NewFeedRepository creates a new StoreFeedRepository.
func NewFeedRepository(s store.Store, commitConcurrency int) *StoreFeedRepository {
	if commitConcurrency < 1 {
		commitConcurrency = 1
	}
	counter, err := otel.Meter("github.com/kissangram/engagement").Int64Counter(
		"engagement.fanout.batches",
		metric.WithDescription("Feed fan-out batch commits"),
	)
	if err != nil {
		log.Printf("feed repository: creating batch counter: %v", err)
	}
	return &StoreFeedRepository{
		store:             s,
		commitConcurrency: commitConcurrency,
		batchCounter:      counter,
	}
}

// FanOutPost writes the feed entry for every recipient.
func (r *StoreFeedRepository) FanOutPost(ctx context.Context, postID string, entry map[string]interface{}, recipientIDs []string) error {
	ops := make([]store.WriteOp, len(recipientIDs))
	for i, recipientID := range recipientIDs {
		ops[i] = store.Set(feedEntryPath(recipientID, postID), entry)
	}
	chunks := store.ChunkWrites(ops, store.MaxBatchWrites)

	if r.commitConcurrency == 1 {
		for _, chunk := range chunks {
			if err := r.commit(ctx, chunk); err != nil {
				return fmt.Errorf("fan-out of post %s: %w", postID, err)
			}
		}
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(r.commitConcurrency)
	for _, chunk := range chunks {
		p.Go(func(ctx context.Context) error {
			return r.commit(ctx, chunk)
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("fan-out of post %s: %w", postID, err)
	}
	return nil
}

func (r *StoreFeedRepository) commit(ctx context.Context, chunk []store.WriteOp) error {
	if err := r.store.CommitBatch(ctx, chunk); err != nil {
		return err
	}
	if r.batchCounter != nil {
		r.batchCounter.Add(ctx, 1)
	}
	return nil
}
