// Package datastore defines the document store contract used by the migration engine
// together with a gorm-backed SQL implementation.
//
// Documents live at slash-separated paths: collection paths have an odd number of
// segments ("teams/t1/songs") and document paths an even number ("teams/t1/songs/s1").
package datastore

import (
	"context"
	"time"

	"github.com/yongshn220/wooriworship-sub001/internal/errors"
)

// MaxBatchSize is the largest number of mutations a single commit may carry.
const MaxBatchSize = 500

// Sentinel errors shared by all backends.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.NewStd("document not found")

	// ErrBatchTooLarge indicates a commit carried more than MaxBatchSize mutations.
	ErrBatchTooLarge = errors.NewStd("batch exceeds maximum mutation count")

	// ErrInvalidPath indicates a malformed collection or document path.
	ErrInvalidPath = errors.NewStd("invalid document path")

	// ErrUnsupportedFilter indicates a query filter the backend cannot evaluate.
	ErrUnsupportedFilter = errors.NewStd("unsupported query filter")
)

type serverTimestamp struct{}

// ServerTimestamp may be used as a field value in any write. Backends replace it
// with the store's current time when the write is applied.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Document is a snapshot of one stored document.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// Collection returns the path of the collection holding the document.
func (d *Document) Collection() string {
	collection, _ := SplitDocPath(d.Path)
	return collection
}

// Filter is an equality constraint on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one collection ordered by document id.
type Query struct {
	Collection string
	Filters    []Filter
	StartAfter string // document id cursor, exclusive
	Limit      int    // 0 means no limit
}

// Where returns a copy of q with an additional equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Batch stages writes that are applied atomically by Commit.
type Batch interface {
	// Set replaces the document at docPath.
	Set(docPath string, data map[string]any)
	// SetMerge deep-merges data into the document, creating it when absent.
	SetMerge(docPath string, data map[string]any)
	// Update sets top-level fields of an existing document. Commit fails with ErrNotFound
	// when the document does not exist.
	Update(docPath string, fields map[string]any)
	// Delete removes the document. Deleting an absent document is not an error.
	Delete(docPath string)
	// Len returns the number of staged mutations.
	Len() int
	// Commit applies every staged mutation or none of them.
	Commit(ctx context.Context) error
}

// Tx is the view of the store inside RunTransaction. Reads observe committed state;
// writes are applied when the transaction function returns nil.
type Tx interface {
	Get(ctx context.Context, docPath string) (*Document, error)
	Set(docPath string, data map[string]any)
	Delete(docPath string)
}

// Store is the document store consumed by the migration engine.
type Store interface {
	Query(ctx context.Context, q Query) ([]Document, error)
	Get(ctx context.Context, docPath string) (*Document, error)
	Batch() Batch
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// NewID returns a fresh store-generated document id.
	NewID() string
	Close() error
}

// MutationKind identifies a staged write.
type MutationKind int

const (
	MutationSet MutationKind = iota
	MutationSetMerge
	MutationUpdate
	MutationDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutationSet:
		return "set"
	case MutationSetMerge:
		return "merge"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is one staged write. Backends that buffer writes share this representation.
type Mutation struct {
	Kind MutationKind
	Path string
	Data map[string]any
}

// Apply stages m on b.
func (m Mutation) Apply(b Batch) {
	switch m.Kind {
	case MutationSet:
		b.Set(m.Path, m.Data)
	case MutationSetMerge:
		b.SetMerge(m.Path, m.Data)
	case MutationUpdate:
		b.Update(m.Path, m.Data)
	case MutationDelete:
		b.Delete(m.Path)
	}
}

// Clock supplies the time substituted for ServerTimestamp.
type Clock func() time.Time
