package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It mirrors the Firestore semantics the pipeline relies on: create
// conflicts, update-requires-existing, atomic batches, and server
// timestamps (resolved to the local clock).
type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]interface{}
	batches [][]WriteOp
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]interface{})}
}

// GetDocument retrieves the document data.
func (s *MemoryStore) GetDocument(ctx context.Context, path string) (map[string]interface{}, error) {
	if err := validDocumentPath(path); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return cloneDocument(doc), nil
}

// SetDocument writes the full document, creating it if needed.
func (s *MemoryStore) SetDocument(ctx context.Context, path string, data map[string]interface{}) error {
	if err := validDocumentPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = resolveSentinels(data)
	return nil
}

// CreateDocument writes the document, failing if it already exists.
func (s *MemoryStore) CreateDocument(ctx context.Context, path string, data map[string]interface{}) error {
	if err := validDocumentPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; ok {
		return fmt.Errorf("%s: %w", path, ErrAlreadyExists)
	}
	s.docs[path] = resolveSentinels(data)
	return nil
}

// UpdateDocument writes the given fields of an existing document.
func (s *MemoryStore) UpdateDocument(ctx context.Context, path string, fields map[string]interface{}) error {
	if err := validDocumentPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	for k, v := range resolveSentinels(fields) {
		doc[k] = v
	}
	return nil
}

// IncrementField atomically adds delta to a numeric field of an existing
// document. A missing field starts from zero.
func (s *MemoryStore) IncrementField(ctx context.Context, path, field string, delta int64) error {
	if err := validDocumentPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(path, field, delta)
}

func (s *MemoryStore) incrementLocked(path, field string, delta int64) error {
	doc, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	doc[field] = asInt64(doc[field]) + delta
	return nil
}

// CommitBatch atomically applies up to MaxBatchWrites writes: either
// every op lands or none does.
func (s *MemoryStore) CommitBatch(ctx context.Context, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > MaxBatchWrites {
		return ErrBatchTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate before mutating so a failed batch leaves no trace.
	created := make(map[string]bool, len(ops))
	for _, op := range ops {
		if err := validDocumentPath(op.Path); err != nil {
			return err
		}
		switch op.Kind {
		case OpCreate:
			if _, ok := s.docs[op.Path]; ok {
				return fmt.Errorf("%s: %w", op.Path, ErrAlreadyExists)
			}
			if created[op.Path] {
				return fmt.Errorf("%s: %w", op.Path, ErrAlreadyExists)
			}
			created[op.Path] = true
		case OpIncrement:
			if _, ok := s.docs[op.Path]; !ok && !created[op.Path] {
				return fmt.Errorf("%s: %w", op.Path, ErrNotFound)
			}
		case OpSet:
			created[op.Path] = true
		default:
			return fmt.Errorf("unknown write op kind %d", op.Kind)
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case OpSet, OpCreate:
			s.docs[op.Path] = resolveSentinels(op.Data)
		case OpIncrement:
			if err := s.incrementLocked(op.Path, op.Field, op.Delta); err != nil {
				return err
			}
		}
	}
	s.batches = append(s.batches, ops)
	return nil
}

// ListDocuments returns every document in a collection, ordered by ID.
func (s *MemoryStore) ListDocuments(ctx context.Context, collectionPath string) ([]Document, error) {
	if err := validCollectionPath(collectionPath); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := collectionPath + "/"
	var docs []Document
	for path, data := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		id := strings.TrimPrefix(path, prefix)
		if strings.Contains(id, "/") {
			continue
		}
		docs = append(docs, Document{ID: id, Data: cloneDocument(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Batches returns every batch committed so far, in commit order.
func (s *MemoryStore) Batches() [][]WriteOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]WriteOp, len(s.batches))
	copy(out, s.batches)
	return out
}

func cloneDocument(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = cloneDocument(m)
			continue
		}
		out[k] = v
	}
	return out
}

func resolveSentinels(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case sentinel:
			out[k] = time.Now().UTC()
		case map[string]interface{}:
			out[k] = resolveSentinels(t)
		default:
			out[k] = v
		}
	}
	return out
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
