package testutil

import (
	"fmt"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/memstore"
)

// Seeder writes fixture documents directly into a memstore.
type Seeder struct {
	store *memstore.Store
}

// NewSeeder creates a Seeder for store.
func NewSeeder(store *memstore.Store) *Seeder {
	return &Seeder{store: store}
}

// Put writes data at collection/id.
func (s *Seeder) Put(collection, id string, data map[string]any) *Seeder {
	s.store.Put(datastore.DocPath(collection, id), data)
	return s
}

// Tenant writes teams/{id}.
func (s *Seeder) Tenant(id string, users, admins []string) *Seeder {
	return s.Put(entities.CollectionTeams, id, Tenant(id, users, admins))
}

// Bulk writes n documents named {prefix}-%04d produced by build.
func (s *Seeder) Bulk(collection, prefix string, n int, build func(i int) map[string]any) *Seeder {
	for i := range n {
		s.Put(collection, fmt.Sprintf("%s-%04d", prefix, i), build(i))
	}
	return s
}

// TenantScoped writes teams/{tenantID}/{collection}/{id}.
func (s *Seeder) TenantScoped(tenantID, collection, id string, data map[string]any) *Seeder {
	return s.Put(entities.TenantCollection(tenantID, collection), id, data)
}
