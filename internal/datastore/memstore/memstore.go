// Package memstore provides an in-memory datastore.Store. It enforces the same commit
// ceiling as the hosted store and records every commit so tests can assert on batch sizes.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// CommitHook is called with the staged mutations before a commit is applied.
// A non-nil error aborts the commit and is returned to the caller.
type CommitHook func(mutations []datastore.Mutation) error

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time used for ServerTimestamp values.
func WithClock(now datastore.Clock) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger logs commits at debug level.
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithCommitHook installs a hook run before every batch commit.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.hook = hook }
}

// Store is a mutex-guarded map of document path to fields.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]any

	now  datastore.Clock
	log  logger.Logger
	hook CommitHook

	statsMu     sync.Mutex
	commitSizes []int
	queries     map[string]int
}

var _ datastore.Store = (*Store)(nil)

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:    make(map[string]map[string]any),
		now:     time.Now,
		queries: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put writes a document directly, bypassing batches and commit accounting.
func (s *Store) Put(docPath string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docPath] = datastore.ResolveServerTimestamps(data, s.now())
}

// Count returns the number of documents directly inside collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for path := range s.docs {
		if parent, _ := datastore.SplitDocPath(path); parent == collection {
			n++
		}
	}
	return n
}

// Paths returns every stored document path in sorted order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.docs))
}

// Data returns a copy of the document at docPath, or nil when absent.
func (s *Store) Data(docPath string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return datastore.CloneData(s.docs[docPath])
}

// CommitSizes returns the mutation count of every successful batch commit, in order.
func (s *Store) CommitSizes() []int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return slices.Clone(s.commitSizes)
}

// QueryCount returns how many queries were issued against collection.
func (s *Store) QueryCount(collection string) int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.queries[collection]
}

// TotalQueries returns how many queries were issued in total.
func (s *Store) TotalQueries() int {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	total := 0
	for _, n := range s.queries {
		total += n
	}
	return total
}

// Query implements datastore.Store.
func (s *Store) Query(ctx context.Context, q datastore.Query) ([]datastore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := datastore.ValidateCollectionPath(q.Collection); err != nil {
		return nil, err
	}

	s.statsMu.Lock()
	s.queries[q.Collection]++
	s.statsMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := q.Collection + "/"
	var ids []string
	for path, data := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		id := path[len(prefix):]
		if strings.Contains(id, "/") || (q.StartAfter != "" && id <= q.StartAfter) {
			continue
		}
		if !matches(data, q.Filters) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}

	docs := make([]datastore.Document, 0, len(ids))
	for _, id := range ids {
		path := prefix + id
		docs = append(docs, datastore.Document{ID: id, Path: path, Data: datastore.CloneData(s.docs[path])})
	}
	return docs, nil
}

func matches(data map[string]any, filters []datastore.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !datastore.ValuesEqual(v, f.Value) {
			return false
		}
	}
	return true
}

// Get implements datastore.Store.
func (s *Store) Get(ctx context.Context, docPath string) (*datastore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(docPath)
}

func (s *Store) getLocked(docPath string) (*datastore.Document, error) {
	if err := datastore.ValidateDocPath(docPath); err != nil {
		return nil, err
	}
	data, ok := s.docs[docPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", datastore.ErrNotFound, docPath)
	}
	_, id := datastore.SplitDocPath(docPath)
	return &datastore.Document{ID: id, Path: docPath, Data: datastore.CloneData(data)}, nil
}

// Batch implements datastore.Store.
func (s *Store) Batch() datastore.Batch {
	return &batch{store: s}
}

// RunTransaction implements datastore.Store. The store is locked for the duration of fn,
// so fn must only touch the store through tx.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx datastore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s}
	if err := fn(ctx, t); err != nil {
		return err
	}
	return s.applyLocked(t.writes)
}

// NewID implements datastore.Store.
func (s *Store) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

// Close implements datastore.Store.
func (s *Store) Close() error { return nil }

// applyLocked validates every mutation against current state, then applies all of them.
func (s *Store) applyLocked(mutations []datastore.Mutation) error {
	now := s.now()
	staged := make(map[string]map[string]any)
	deleted := make(map[string]bool)

	current := func(path string) (map[string]any, bool) {
		if deleted[path] {
			return nil, false
		}
		if data, ok := staged[path]; ok {
			return data, true
		}
		data, ok := s.docs[path]
		return data, ok
	}

	for _, m := range mutations {
		if err := datastore.ValidateDocPath(m.Path); err != nil {
			return err
		}
		switch m.Kind {
		case datastore.MutationSet:
			staged[m.Path] = datastore.ResolveServerTimestamps(m.Data, now)
			delete(deleted, m.Path)
		case datastore.MutationSetMerge:
			existing, _ := current(m.Path)
			staged[m.Path] = datastore.ResolveServerTimestamps(datastore.MergeData(existing, m.Data), now)
			delete(deleted, m.Path)
		case datastore.MutationUpdate:
			existing, ok := current(m.Path)
			if !ok {
				return fmt.Errorf("%w: %s", datastore.ErrNotFound, m.Path)
			}
			staged[m.Path] = datastore.ResolveServerTimestamps(datastore.UpdateData(existing, m.Data), now)
		case datastore.MutationDelete:
			delete(staged, m.Path)
			deleted[m.Path] = true
		}
	}

	for path := range deleted {
		delete(s.docs, path)
	}
	maps.Copy(s.docs, staged)
	return nil
}

type batch struct {
	store     *Store
	mutations []datastore.Mutation
}

func (b *batch) Set(docPath string, data map[string]any) {
	b.add(datastore.MutationSet, docPath, data)
}

func (b *batch) SetMerge(docPath string, data map[string]any) {
	b.add(datastore.MutationSetMerge, docPath, data)
}

func (b *batch) Update(docPath string, fields map[string]any) {
	b.add(datastore.MutationUpdate, docPath, fields)
}

func (b *batch) Delete(docPath string) {
	b.add(datastore.MutationDelete, docPath, nil)
}

func (b *batch) add(kind datastore.MutationKind, docPath string, data map[string]any) {
	b.mutations = append(b.mutations, datastore.Mutation{Kind: kind, Path: docPath, Data: datastore.CloneData(data)})
}

func (b *batch) Len() int { return len(b.mutations) }

func (b *batch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n := len(b.mutations)
	if n > datastore.MaxBatchSize {
		return fmt.Errorf("%w: %d mutations", datastore.ErrBatchTooLarge, n)
	}
	if n == 0 {
		return nil
	}

	s := b.store
	if s.hook != nil {
		if err := s.hook(slices.Clone(b.mutations)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	err := s.applyLocked(b.mutations)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.statsMu.Lock()
	s.commitSizes = append(s.commitSizes, n)
	s.statsMu.Unlock()
	if s.log != nil {
		s.log.Debug("batch committed", logger.Int("mutations", n))
	}
	b.mutations = nil
	return nil
}

type tx struct {
	store  *Store
	writes []datastore.Mutation
}

func (t *tx) Get(_ context.Context, docPath string) (*datastore.Document, error) {
	return t.store.getLocked(docPath)
}

func (t *tx) Set(docPath string, data map[string]any) {
	t.writes = append(t.writes, datastore.Mutation{Kind: datastore.MutationSet, Path: docPath, Data: datastore.CloneData(data)})
}

func (t *tx) Delete(docPath string) {
	t.writes = append(t.writes, datastore.Mutation{Kind: datastore.MutationDelete, Path: docPath})
}
