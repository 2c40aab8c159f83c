package datastore

import (
	"context"
	"fmt"
)

// Scan pages through the documents matched by q in id order, calling fn for each one.
// At most pageSize documents are held in memory at a time. Pagination uses the id of
// the last document seen, so fn may update or delete documents it has been given.
func Scan(ctx context.Context, s Store, q Query, pageSize int, fn func(Document) error) error {
	if pageSize < 1 {
		pageSize = MaxBatchSize
	}
	q.Limit = pageSize
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := s.Query(ctx, q)
		if err != nil {
			return fmt.Errorf("scan %s: %w", q.Collection, err)
		}
		for _, doc := range page {
			if err := fn(doc); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			return nil
		}
		q.StartAfter = page[len(page)-1].ID
	}
}

// QueryAll returns every document matched by q, fetched in pages of pageSize.
func QueryAll(ctx context.Context, s Store, q Query, pageSize int) ([]Document, error) {
	var docs []Document
	err := Scan(ctx, s, q, pageSize, func(doc Document) error {
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}
