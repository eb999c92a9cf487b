package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store for Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new FirestoreStore.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(path string) (*firestore.DocumentRef, error) {
	if err := validDocumentPath(path); err != nil {
		return nil, err
	}
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	return ref, nil
}

// GetDocument retrieves the document data from Firestore.
func (s *FirestoreStore) GetDocument(ctx context.Context, path string) (map[string]interface{}, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapStatusError(path, err)
	}
	return snap.Data(), nil
}

// SetDocument writes the full document, creating it if needed.
func (s *FirestoreStore) SetDocument(ctx context.Context, path string, data map[string]interface{}) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, translateSentinels(data)); err != nil {
		return mapStatusError(path, err)
	}
	return nil
}

// CreateDocument writes the document, failing if it already exists.
func (s *FirestoreStore) CreateDocument(ctx context.Context, path string, data map[string]interface{}) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, translateSentinels(data)); err != nil {
		return mapStatusError(path, err)
	}
	return nil
}

// UpdateDocument writes the given fields of an existing document.
func (s *FirestoreStore) UpdateDocument(ctx context.Context, path string, fields map[string]interface{}) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for name, value := range fields {
		updates = append(updates, firestore.Update{Path: name, Value: translateSentinel(value)})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return mapStatusError(path, err)
	}
	return nil
}

// IncrementField atomically adds delta to a numeric field of an existing
// document, server-side.
func (s *FirestoreStore) IncrementField(ctx context.Context, path, field string, delta int64) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	updates := []firestore.Update{{Path: field, Value: firestore.Increment(delta)}}
	if _, err := ref.Update(ctx, updates); err != nil {
		return mapStatusError(path, err)
	}
	return nil
}

// CommitBatch atomically applies up to MaxBatchWrites writes.
func (s *FirestoreStore) CommitBatch(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > MaxBatchWrites {
		return ErrBatchTooLarge
	}
	batch := s.client.Batch()
	for _, op := range ops {
		ref, err := s.doc(op.Path)
		if err != nil {
			return err
		}
		switch op.Kind {
		case OpSet:
			batch.Set(ref, translateSentinels(op.Data))
		case OpCreate:
			batch.Create(ref, translateSentinels(op.Data))
		case OpIncrement:
			batch.Update(ref, []firestore.Update{{Path: op.Field, Value: firestore.Increment(op.Delta)}})
		default:
			return fmt.Errorf("unknown write op kind %d", op.Kind)
		}
	}
	if _, err := batch.Commit(ctx); err != nil {
		return mapStatusError("batch", err)
	}
	return nil
}

// ListDocuments returns every document in a collection.
func (s *FirestoreStore) ListDocuments(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := validCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	col := s.client.Collection(collectionPath)
	if col == nil {
		return nil, fmt.Errorf("invalid collection path %q", collectionPath)
	}
	iter := col.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", collectionPath, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func mapStatusError(path string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", path, ErrAlreadyExists)
	default:
		return err
	}
}

func translateSentinels(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = translateSentinel(v)
	}
	return out
}

func translateSentinel(v interface{}) interface{} {
	switch t := v.(type) {
	case sentinel:
		return firestore.ServerTimestamp
	case map[string]interface{}:
		return translateSentinels(t)
	default:
		return v
	}
}
