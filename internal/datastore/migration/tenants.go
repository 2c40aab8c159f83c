package migration

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/yongshn220/wooriworship-sub001/internal/datastore"
	"github.com/yongshn220/wooriworship-sub001/internal/datastore/entities"
	"github.com/yongshn220/wooriworship-sub001/internal/errors"
)

// TenantResolver answers whether a tenant document exists, caching both outcomes.
type TenantResolver struct {
	store datastore.Store
	cache *cache.Cache
}

// NewTenantResolver creates a resolver whose answers live for ttl. No janitor goroutine
// is started; expired entries are ignored on read and replaced on the next lookup.
func NewTenantResolver(store datastore.Store, ttl time.Duration) *TenantResolver {
	return &TenantResolver{store: store, cache: cache.New(ttl, 0)}
}

// Exists reports whether teams/{tenantID} exists.
func (r *TenantResolver) Exists(ctx context.Context, tenantID string) (bool, error) {
	if cached, ok := r.cache.Get(tenantID); ok {
		return cached.(bool), nil
	}

	_, err := r.store.Get(ctx, entities.TenantPath(tenantID))
	switch {
	case err == nil:
		r.cache.SetDefault(tenantID, true)
		return true, nil
	case errors.Is(err, datastore.ErrNotFound):
		r.cache.SetDefault(tenantID, false)
		return false, nil
	default:
		return false, err
	}
}

// Resolve returns the tenant referenced by fields. It fails with ErrNoTenant when no id
// is present and ErrUnknownTenant when the tenant document is missing.
func (r *TenantResolver) Resolve(ctx context.Context, fields entities.TenantFields) (string, error) {
	tenantID, ok := fields.Tenant()
	if !ok || strings.Contains(tenantID, "/") {
		return "", ErrNoTenant
	}
	exists, err := r.Exists(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrUnknownTenant
	}
	return tenantID, nil
}

// Remember records a tenant as existing without a lookup.
func (r *TenantResolver) Remember(tenantID string) {
	r.cache.SetDefault(tenantID, true)
}

// isSkippable reports whether err marks a record to skip rather than a failure.
func isSkippable(err error) bool {
	return errors.Is(err, ErrNoTenant) || errors.Is(err, ErrUnknownTenant) || errors.Is(err, ErrNoDate)
}
