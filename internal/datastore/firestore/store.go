// Package firestore implements datastore.Store on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

const componentFirestore = "datastore.firestore"

// Config selects the Firestore project and credentials.
type Config struct {
	ProjectID       string
	CredentialsFile string // empty uses application default credentials
}

// Store adapts a firestore.Client to datastore.Store.
type Store struct {
	client *firestore.Client
	log    logger.Logger
}

var _ datastore.Store = (*Store)(nil)

// Open creates a Firestore client for cfg.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, errors.Newf("firestore project id is required").
			Component(componentFirestore).
			Category(errors.CategoryConfiguration).
			Build()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.New(err).
			Component(componentFirestore).
			Category(errors.CategoryNetwork).
			Context("operation", "new_client").
			Context("project_id", cfg.ProjectID).
			Build()
	}
	log.Info("firestore document store opened", logger.String("project_id", cfg.ProjectID))
	return New(client, log), nil
}

// New wraps an existing client.
func New(client *firestore.Client, log logger.Logger) *Store {
	return &Store{client: client, log: log}
}

// Query implements datastore.Store.
func (s *Store) Query(ctx context.Context, q datastore.Query) ([]datastore.Document, error) {
	if err := datastore.ValidateCollectionPath(q.Collection); err != nil {
		return nil, err
	}

	fq := s.client.Collection(q.Collection).OrderBy(firestore.DocumentID, firestore.Asc)
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, "==", f.Value)
	}
	if q.StartAfter != "" {
		fq = fq.StartAfter(q.StartAfter)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	var docs []datastore.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, s.wrap(err, "query", q.Collection)
		}
		docs = append(docs, datastore.Document{
			ID:   snap.Ref.ID,
			Path: datastore.DocPath(q.Collection, snap.Ref.ID),
			Data: snap.Data(),
		})
	}
	return docs, nil
}

// Get implements datastore.Store.
func (s *Store) Get(ctx context.Context, docPath string) (*datastore.Document, error) {
	if err := datastore.ValidateDocPath(docPath); err != nil {
		return nil, err
	}
	snap, err := s.client.Doc(docPath).Get(ctx)
	if err != nil {
		return nil, s.wrap(err, "get", docPath)
	}
	return snapshotToDocument(docPath, snap), nil
}

// Batch implements datastore.Store.
func (s *Store) Batch() datastore.Batch {
	return &batch{store: s}
}

// RunTransaction implements datastore.Store.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx datastore.Tx) error) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		t := &tx{store: s, ftx: ftx}
		if err := fn(ctx, t); err != nil {
			return err
		}
		return t.err
	})
	if err != nil {
		return s.wrap(err, "transaction", "")
	}
	return nil
}

// NewID implements datastore.Store.
func (s *Store) NewID() string {
	return s.client.Collection("_ids").NewDoc().ID
}

// Close implements datastore.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

// wrap maps NotFound onto datastore.ErrNotFound and categorizes everything else.
func (s *Store) wrap(err error, operation, path string) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", datastore.ErrNotFound, path)
	}
	if errors.Is(err, datastore.ErrNotFound) || errors.Is(err, context.Canceled) {
		return err
	}
	return errors.New(err).
		Component(componentFirestore).
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("path", path).
		Context("grpc_code", status.Code(err).String()).
		Build()
}

func snapshotToDocument(docPath string, snap *firestore.DocumentSnapshot) *datastore.Document {
	return &datastore.Document{ID: snap.Ref.ID, Path: docPath, Data: snap.Data()}
}

// toFirestore replaces datastore.ServerTimestamp sentinels with firestore.ServerTimestamp.
func toFirestore(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = toFirestoreValue(v)
	}
	return out
}

func toFirestoreValue(v any) any {
	if datastore.IsServerTimestamp(v) {
		return firestore.ServerTimestamp
	}
	if m, ok := v.(map[string]any); ok {
		return toFirestore(m)
	}
	return v
}

type batch struct {
	store     *Store
	mutations []datastore.Mutation
}

func (b *batch) Set(docPath string, data map[string]any) {
	b.mutations = append(b.mutations, datastore.Mutation{Kind: datastore.MutationSet, Path: docPath, Data: datastore.CloneData(data)})
}

func (b *batch) SetMerge(docPath string, data map[string]any) {
	b.mutations = append(b.mutations, datastore.Mutation{Kind: datastore.MutationSetMerge, Path: docPath, Data: datastore.CloneData(data)})
}

func (b *batch) Update(docPath string, fields map[string]any) {
	b.mutations = append(b.mutations, datastore.Mutation{Kind: datastore.MutationUpdate, Path: docPath, Data: datastore.CloneData(fields)})
}

func (b *batch) Delete(docPath string) {
	b.mutations = append(b.mutations, datastore.Mutation{Kind: datastore.MutationDelete, Path: docPath})
}

func (b *batch) Len() int { return len(b.mutations) }

func (b *batch) Commit(ctx context.Context) error {
	n := len(b.mutations)
	if n > datastore.MaxBatchSize {
		return fmt.Errorf("%w: %d mutations", datastore.ErrBatchTooLarge, n)
	}
	if n == 0 {
		return nil
	}

	client := b.store.client
	wb := client.Batch()
	for _, m := range b.mutations {
		if err := datastore.ValidateDocPath(m.Path); err != nil {
			return err
		}
		ref := client.Doc(m.Path)
		switch m.Kind {
		case datastore.MutationSet:
			wb.Set(ref, toFirestore(m.Data))
		case datastore.MutationSetMerge:
			wb.Set(ref, toFirestore(m.Data), firestore.MergeAll)
		case datastore.MutationUpdate:
			wb.Update(ref, fieldUpdates(m.Data))
		case datastore.MutationDelete:
			wb.Delete(ref)
		}
	}

	if _, err := wb.Commit(ctx); err != nil {
		return b.store.wrap(err, "batch_commit", b.mutations[0].Path)
	}
	b.store.log.Debug("batch committed", logger.Int("mutations", n))
	b.mutations = nil
	return nil
}

func fieldUpdates(fields map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: toFirestoreValue(v)})
	}
	return updates
}

type tx struct {
	store *Store
	ftx   *firestore.Transaction
	err   error
}

func (t *tx) Get(_ context.Context, docPath string) (*datastore.Document, error) {
	if err := datastore.ValidateDocPath(docPath); err != nil {
		return nil, err
	}
	snap, err := t.ftx.Get(t.store.client.Doc(docPath))
	if err != nil {
		return nil, t.store.wrap(err, "transaction_get", docPath)
	}
	return snapshotToDocument(docPath, snap), nil
}

func (t *tx) Set(docPath string, data map[string]any) {
	if t.err != nil {
		return
	}
	t.err = t.ftx.Set(t.store.client.Doc(docPath), toFirestore(data))
}

func (t *tx) Delete(docPath string) {
	if t.err != nil {
		return
	}
	t.err = t.ftx.Delete(t.store.client.Doc(docPath))
}
