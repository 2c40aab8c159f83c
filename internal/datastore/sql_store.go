package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// SQL dialects supported by SQLStore.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

const (
	componentSQLStore = "datastore.sql"
	slowQueryThreshold = 500 * time.Millisecond
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// documentRecord is the single table behind SQLStore. Every document is one row keyed
// by its full path, with its fields stored as a JSON object.
type documentRecord struct {
	Path       string `gorm:"primaryKey;size:768"`
	Collection string `gorm:"size:512;not null;index:idx_documents_collection_doc,priority:1"`
	DocID      string `gorm:"column:doc_id;size:255;not null;index:idx_documents_collection_doc,priority:2"`
	Data       string `gorm:"type:mediumtext;not null"`
	UpdatedAt  time.Time
}

func (documentRecord) TableName() string { return "documents" }

// SQLStore implements Store on a relational database through gorm.
type SQLStore struct {
	db      *gorm.DB
	dialect string
	log     logger.Logger
	now     Clock
}

// NewSQLStore wraps an open gorm connection and creates the documents table.
func NewSQLStore(db *gorm.DB, dialect string, log logger.Logger) (*SQLStore, error) {
	if dialect != DialectSQLite && dialect != DialectMySQL {
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, errors.New(err).
			Component(componentSQLStore).
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Context("dialect", dialect).
			Build()
	}
	return &SQLStore{db: db, dialect: dialect, log: log, now: time.Now}, nil
}

// DB exposes the underlying gorm handle.
func (s *SQLStore) DB() *gorm.DB { return s.db }

// SetClock replaces the clock used for ServerTimestamp and updated_at.
func (s *SQLStore) SetClock(now Clock) { s.now = now }

// Query implements Store.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ValidateCollectionPath(q.Collection); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&documentRecord{}).Where("collection = ?", q.Collection)
	for _, f := range q.Filters {
		expr, arg, err := s.filterClause(f)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(expr, arg)
	}
	if q.StartAfter != "" {
		tx = tx.Where("doc_id > ?", q.StartAfter)
	}
	tx = tx.Order("doc_id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var records []documentRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, s.dbError(err, "query", q.Collection)
	}

	docs := make([]Document, 0, len(records))
	for i := range records {
		doc, err := records[i].toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, docPath string) (*Document, error) {
	return s.get(s.db.WithContext(ctx), docPath)
}

func (s *SQLStore) get(db *gorm.DB, docPath string) (*Document, error) {
	if err := ValidateDocPath(docPath); err != nil {
		return nil, err
	}
	var records []documentRecord
	if err := db.Where("path = ?", docPath).Limit(1).Find(&records).Error; err != nil {
		return nil, s.dbError(err, "get", docPath)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, docPath)
	}
	doc, err := records[0].toDocument()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Batch implements Store.
func (s *SQLStore) Batch() Batch {
	return &sqlBatch{store: s}
}

// RunTransaction implements Store. Writes staged on the Tx are applied inside the same
// database transaction after fn returns nil.
func (s *SQLStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		t := &sqlTx{store: s, db: gtx}
		if err := fn(ctx, t); err != nil {
			return err
		}
		now := s.now()
		for _, m := range t.writes {
			if err := s.apply(gtx, m, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewID implements Store.
func (s *SQLStore) NewID() string {
	return newDocumentID()
}

// Close implements Store.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	return sqlDB.Close()
}

func (s *SQLStore) filterClause(f Filter) (string, any, error) {
	if !fieldNamePattern.MatchString(f.Field) {
		return "", nil, fmt.Errorf("%w: field name %q", ErrUnsupportedFilter, f.Field)
	}
	switch f.Value.(type) {
	case string, bool, int, int32, int64, float64:
	default:
		return "", nil, fmt.Errorf("%w: %s has value of type %T", ErrUnsupportedFilter, f.Field, f.Value)
	}

	jsonPath := "$." + f.Field
	if s.dialect == DialectMySQL {
		encoded, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("JSON_EXTRACT(data, '%s') = CAST(? AS JSON)", jsonPath), string(encoded), nil
	}
	return fmt.Sprintf("json_extract(data, '%s') = ?", jsonPath), f.Value, nil
}

func (s *SQLStore) apply(tx *gorm.DB, m Mutation, now time.Time) error {
	if err := ValidateDocPath(m.Path); err != nil {
		return err
	}
	switch m.Kind {
	case MutationSet:
		return s.write(tx, m.Path, m.Data, now)
	case MutationSetMerge, MutationUpdate:
		existing, err := s.get(tx, m.Path)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound) && m.Kind == MutationSetMerge:
			existing = &Document{}
		default:
			return err
		}
		if m.Kind == MutationUpdate {
			return s.write(tx, m.Path, UpdateData(existing.Data, m.Data), now)
		}
		return s.write(tx, m.Path, MergeData(existing.Data, m.Data), now)
	case MutationDelete:
		if err := tx.Where("path = ?", m.Path).Delete(&documentRecord{}).Error; err != nil {
			return s.dbError(err, "delete", m.Path)
		}
		return nil
	default:
		return fmt.Errorf("unknown mutation kind %d", m.Kind)
	}
}

func (s *SQLStore) write(tx *gorm.DB, docPath string, data map[string]any, now time.Time) error {
	body, err := encodeData(ResolveServerTimestamps(data, now))
	if err != nil {
		return err
	}
	collection, id := SplitDocPath(docPath)
	rec := documentRecord{Path: docPath, Collection: collection, DocID: id, Data: body, UpdatedAt: now}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return s.dbError(err, "write", docPath)
	}
	return nil
}

func (s *SQLStore) dbError(err error, operation, path string) error {
	return errors.New(err).
		Component(componentSQLStore).
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("path", path).
		Context("dialect", s.dialect).
		Build()
}

func (r *documentRecord) toDocument() (Document, error) {
	data, err := decodeData(r.Data)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", r.Path, err)
	}
	return Document{ID: r.DocID, Path: r.Path, Data: data}, nil
}

type sqlBatch struct {
	store     *SQLStore
	mutations []Mutation
}

func (b *sqlBatch) Set(docPath string, data map[string]any) {
	b.mutations = append(b.mutations, Mutation{Kind: MutationSet, Path: docPath, Data: CloneData(data)})
}

func (b *sqlBatch) SetMerge(docPath string, data map[string]any) {
	b.mutations = append(b.mutations, Mutation{Kind: MutationSetMerge, Path: docPath, Data: CloneData(data)})
}

func (b *sqlBatch) Update(docPath string, fields map[string]any) {
	b.mutations = append(b.mutations, Mutation{Kind: MutationUpdate, Path: docPath, Data: CloneData(fields)})
}

func (b *sqlBatch) Delete(docPath string) {
	b.mutations = append(b.mutations, Mutation{Kind: MutationDelete, Path: docPath})
}

func (b *sqlBatch) Len() int { return len(b.mutations) }

func (b *sqlBatch) Commit(ctx context.Context) error {
	if len(b.mutations) > MaxBatchSize {
		return fmt.Errorf("%w: %d mutations", ErrBatchTooLarge, len(b.mutations))
	}
	if len(b.mutations) == 0 {
		return nil
	}
	s := b.store
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		for _, m := range b.mutations {
			if err := s.apply(tx, m, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("batch committed", logger.Int("mutations", len(b.mutations)))
	b.mutations = nil
	return nil
}

type sqlTx struct {
	store  *SQLStore
	db     *gorm.DB
	writes []Mutation
}

func (t *sqlTx) Get(_ context.Context, docPath string) (*Document, error) {
	return t.store.get(t.db, docPath)
}

func (t *sqlTx) Set(docPath string, data map[string]any) {
	t.writes = append(t.writes, Mutation{Kind: MutationSet, Path: docPath, Data: CloneData(data)})
}

func (t *sqlTx) Delete(docPath string) {
	t.writes = append(t.writes, Mutation{Kind: MutationDelete, Path: docPath})
}

// newDocumentID returns a 20 character identifier in the style of store auto ids.
func newDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
