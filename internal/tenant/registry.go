// Package tenant resolves the X-Tenant-ID header (or a webhook path slug)
// to a configured kitchen and its scoped store.
package tenant

import (
	"fmt"

	"brigade/internal/config"
	"brigade/internal/store"
)

// Tenant pairs a tenant's configuration with its store handle.
type Tenant struct {
	config.Tenant
	Store store.Store
}

// Registry is the slug-keyed tenant lookup. It is built once at startup
// and read-only afterwards, so no locking is needed.
type Registry struct {
	bySlug map[string]*Tenant
	order  []string
}

// StoreFactory builds a tenant-scoped store for the named database.
type StoreFactory func(database string) store.Store

// NewRegistry materializes the configured tenants.
func NewRegistry(tenants []config.Tenant, factory StoreFactory) (*Registry, error) {
	r := &Registry{bySlug: make(map[string]*Tenant, len(tenants))}
	for _, tc := range tenants {
		if _, ok := r.bySlug[tc.Slug]; ok {
			return nil, fmt.Errorf("duplicate tenant slug %q", tc.Slug)
		}
		r.bySlug[tc.Slug] = &Tenant{Tenant: tc, Store: factory(tc.Database)}
		r.order = append(r.order, tc.Slug)
	}
	return r, nil
}

// Lookup returns the tenant for a slug.
func (r *Registry) Lookup(slug string) (*Tenant, bool) {
	t, ok := r.bySlug[slug]
	return t, ok
}

// All returns every tenant in configuration order.
func (r *Registry) All() []*Tenant {
	out := make([]*Tenant, 0, len(r.order))
	for _, slug := range r.order {
		out = append(out, r.bySlug[slug])
	}
	return out
}
