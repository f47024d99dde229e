package policy

import (
	"github.com/careertrojan/ops-core/internal/model"
)

// Registry is the single source of truth for what the platform collects,
// under which legal basis, and for how long. The catalogue is fixed at
// construction and never mutated; all accessors are pure reads.
type Registry struct {
	categories []model.DataCategory
	byName     map[string]int
}

// NewRegistry builds a registry over the given catalogue, preserving order.
func NewRegistry(categories []model.DataCategory) *Registry {
	byName := make(map[string]int, len(categories))
	for i, c := range categories {
		byName[c.Name] = i
	}
	return &Registry{categories: categories, byName: byName}
}

// NewDefaultRegistry builds a registry over the platform catalogue.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultCatalogue())
}

// List returns the full catalogue in insertion order.
func (r *Registry) List() []model.DataCategory {
	out := make([]model.DataCategory, len(r.categories))
	copy(out, r.categories)
	return out
}

// Get returns the category with the given name.
func (r *Registry) Get(name string) (model.DataCategory, error) {
	i, ok := r.byName[name]
	if !ok {
		return model.DataCategory{}, model.ErrCategoryNotFound
	}
	return r.categories[i], nil
}

// FeedingAI returns the categories whose anonymized copies are forwarded
// into AI training datasets.
func (r *Registry) FeedingAI() []model.DataCategory {
	return r.filter(func(c model.DataCategory) bool { return c.FeedsAI })
}

// Exportable returns the categories included in a GDPR data export.
func (r *Registry) Exportable() []model.DataCategory {
	return r.filter(func(c model.DataCategory) bool { return c.GDPRExportable })
}

// Deletable returns the categories erased on a GDPR deletion request.
func (r *Registry) Deletable() []model.DataCategory {
	return r.filter(func(c model.DataCategory) bool { return c.GDPRDeletable })
}

func (r *Registry) filter(keep func(model.DataCategory) bool) []model.DataCategory {
	var out []model.DataCategory
	for _, c := range r.categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
