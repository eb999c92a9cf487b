package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxBatchWrites is the hard platform ceiling on writes per batch commit.
// Callers with larger write-sets must chunk (see ChunkWrites).
const MaxBatchWrites = 500

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when creating a document that exists.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchWrites.
	ErrBatchTooLarge = fmt.Errorf("batch exceeds %d writes", MaxBatchWrites)
)

// ServerTimestamp marks a field to be filled with the store's server-side
// timestamp at commit time.
var ServerTimestamp sentinel = "server-timestamp"

type sentinel string

// OpKind identifies the kind of a batched write.
type OpKind int

const (
	// OpSet writes the full document, overwriting any existing data.
	OpSet OpKind = iota
	// OpCreate writes the document only if it does not already exist.
	OpCreate
	// OpIncrement atomically adds a delta to a numeric field of an
	// existing document.
	OpIncrement
)

// WriteOp is a single write inside a batch.
type WriteOp struct {
	Kind  OpKind
	Path  string
	Data  map[string]interface{}
	Field string
	Delta int64
}

// Set builds a full-overwrite write for a batch.
func Set(path string, data map[string]interface{}) WriteOp {
	return WriteOp{Kind: OpSet, Path: path, Data: data}
}

// Create builds a create-if-absent write for a batch.
func Create(path string, data map[string]interface{}) WriteOp {
	return WriteOp{Kind: OpCreate, Path: path, Data: data}
}

// Increment builds an atomic field increment for a batch.
func Increment(path, field string, delta int64) WriteOp {
	return WriteOp{Kind: OpIncrement, Path: path, Field: field, Delta: delta}
}

// Document is a listed document together with its ID within the collection.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Store is the document store access layer. Paths are slash-separated,
// alternating collection and document segments ("posts/p1/likes/u1").
// All batch commits are atomic; there are no transactions across batches.
type Store interface {
	// GetDocument returns the document data, or ErrNotFound.
	GetDocument(ctx context.Context, path string) (map[string]interface{}, error)
	// SetDocument writes the full document, creating it if needed.
	SetDocument(ctx context.Context, path string, data map[string]interface{}) error
	// CreateDocument writes the document, failing with ErrAlreadyExists
	// if it is already present.
	CreateDocument(ctx context.Context, path string, data map[string]interface{}) error
	// UpdateDocument writes the given fields of an existing document,
	// failing with ErrNotFound if the target is missing.
	UpdateDocument(ctx context.Context, path string, fields map[string]interface{}) error
	// IncrementField atomically adds delta to a numeric field of an
	// existing document. Safe under concurrent callers.
	IncrementField(ctx context.Context, path, field string, delta int64) error
	// CommitBatch atomically applies up to MaxBatchWrites writes.
	CommitBatch(ctx context.Context, ops []WriteOp) error
	// ListDocuments returns every document in a collection.
	ListDocuments(ctx context.Context, collectionPath string) ([]Document, error)
}

// ChunkWrites partitions ops into chunks of at most size writes each.
func ChunkWrites(ops []WriteOp, size int) [][]WriteOp {
	if size <= 0 {
		size = MaxBatchWrites
	}
	var chunks [][]WriteOp
	for len(ops) > 0 {
		n := size
		if len(ops) < n {
			n = len(ops)
		}
		chunks = append(chunks, ops[:n])
		ops = ops[n:]
	}
	return chunks
}

func validDocumentPath(path string) error {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return fmt.Errorf("invalid document path %q", path)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("invalid document path %q", path)
		}
	}
	return nil
}

func validCollectionPath(path string) error {
	segments := strings.Split(path, "/")
	if len(segments)%2 != 1 {
		return fmt.Errorf("invalid collection path %q", path)
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("invalid collection path %q", path)
		}
	}
	return nil
}
