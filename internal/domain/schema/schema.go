// Package schema computes and holds the three field projections a
// collection needs: the full search schema, the facet-only schema, and
// the sort-only schema. All three are built once at collection creation.
package schema

import "github.com/kailas-cloud/lexidex/internal/domain/field"

// Schema holds a collection's field declarations split into the three
// projections the core consults during ingest and search.
type Schema struct {
	search map[string]field.Field
	facet  map[string]field.Field
	sort   map[string]field.Field
	order  []string // declaration order, for stable iteration (e.g. GetSchema)
}

// New builds a Schema from a flat field list, computing the facet and
// sort projections in the same pass.
func New(fields []field.Field) Schema {
	s := Schema{
		search: make(map[string]field.Field, len(fields)),
		facet:  make(map[string]field.Field),
		sort:   make(map[string]field.Field),
		order:  make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		s.search[f.Name()] = f
		s.order = append(s.order, f.Name())
		if f.IsFacet() {
			s.facet[f.Name()] = f
		}
		if f.IsSortable() {
			s.sort[f.Name()] = f
		}
	}
	return s
}

// SearchField looks up a field in the full search schema.
func (s Schema) SearchField(name string) (field.Field, bool) {
	f, ok := s.search[name]
	return f, ok
}

// FacetField looks up a field in the facet-only schema.
func (s Schema) FacetField(name string) (field.Field, bool) {
	f, ok := s.facet[name]
	return f, ok
}

// SortField looks up a field in the sort-only schema.
func (s Schema) SortField(name string) (field.Field, bool) {
	f, ok := s.sort[name]
	return f, ok
}

// Fields returns every declared field in declaration order.
func (s Schema) Fields() []field.Field {
	out := make([]field.Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.search[name])
	}
	return out
}

// FacetFields returns the names of every facet field.
func (s Schema) FacetFields() []string {
	out := make([]string, 0, len(s.facet))
	for _, name := range s.order {
		if _, ok := s.facet[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// SortFields returns every sortable field.
func (s Schema) SortFields() []field.Field {
	out := make([]field.Field, 0, len(s.sort))
	for _, name := range s.order {
		if f, ok := s.sort[name]; ok {
			out = append(out, f)
		}
	}
	return out
}
