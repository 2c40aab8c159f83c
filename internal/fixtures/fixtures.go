// Package fixtures loads document fixtures from YAML so a store can be seeded with a
// legacy layout for rehearsing a migration.
//
//	documents:
//	  - path: teams/t1
//	    data: {name: Grace, users: [u1], admins: [u1]}
//	  - path: schedules/s1
//	    data: {team_id: t1, title: Sunrise, date: "2024-03-10", tags: [a, b]}
//
// The string "$serverTimestamp" anywhere in data is replaced by the store's commit time.
package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/migration"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
	"github.com/yongshn220/wooriworship-sub001/internal/logger"
)

// ServerTimestampMarker is replaced with datastore.ServerTimestamp when fixtures are applied.
const ServerTimestampMarker = "$serverTimestamp"

// Document is one fixture document.
type Document struct {
	Path string         `yaml:"path"`
	Data map[string]any `yaml:"data"`
}

// File is a parsed fixture file.
type File struct {
	Documents []Document `yaml:"documents"`
}

// Load parses fixtures from r and validates every document path.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.New(fmt.Errorf("parse fixtures: %w", err)).
			Component("fixtures").
			Category(errors.CategoryFileParsing).
			Build()
	}
	for i, doc := range f.Documents {
		if err := datastore.ValidateDocPath(doc.Path); err != nil {
			return nil, errors.New(fmt.Errorf("fixture %d: %w", i, err)).
				Component("fixtures").
				Category(errors.CategoryValidation).
				Context("path", doc.Path).
				Build()
		}
	}
	return &f, nil
}

// LoadFile parses the fixture file at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("fixtures").
			Category(errors.CategoryFileIO).
			Context("file", path).
			Build()
	}
	defer fh.Close()
	return Load(fh)
}

// Apply writes every document to store, batchSize mutations per commit.
func (f *File) Apply(ctx context.Context, store datastore.Store, batchSize int, log logger.Logger) (int, error) {
	w := migration.NewBatchWriter(store, batchSize, nil, log)
	for _, doc := range f.Documents {
		data, _ := resolveMarkers(doc.Data).(map[string]any)
		if data == nil {
			data = map[string]any{}
		}
		if err := w.Set(ctx, doc.Path, data); err != nil {
			return w.Mutations(), err
		}
	}
	if err := w.Flush(ctx); err != nil {
		return w.Mutations(), err
	}
	log.Info("fixtures applied", logger.Int("documents", w.Mutations()), logger.Int("commits", w.Commits()))
	return w.Mutations(), nil
}

func resolveMarkers(v any) any {
	switch val := v.(type) {
	case string:
		if val == ServerTimestampMarker {
			return datastore.ServerTimestamp
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = resolveMarkers(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = resolveMarkers(item)
		}
		return out
	default:
		return v
	}
}
