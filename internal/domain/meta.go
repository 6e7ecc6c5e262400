package domain

import "time"

// Meta is the identity and bookkeeping shared by every series-scoped document.
// ID, timestamps and Revision are assigned by the store.
type Meta struct {
	ID        string    `json:"id"`
	SeriesID  string    `json:"seriesId"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityMeta gives stores and services access to the identity of any document
// that embeds Meta.
func (m *Meta) EntityMeta() *Meta { return m }

// Entity is the capability every knowledge-base document satisfies: it is
// identifiable and scoped to one series.
type Entity interface {
	EntityMeta() *Meta
}

// Kind describes one knowledge-base document kind. It is the explicit adapter
// generic stores and the CRUD layer use instead of reflection.
type Kind[T Entity] struct {
	Type       EntityType
	Collection string
	New        func() T
	// SortKey orders List and Search results; ties fall back to CreatedAt then ID.
	SortKey    func(T) string
	SearchText func(T) string
	// Normalize trims and fills defaults before validation. May be nil.
	Normalize func(T)
	Validate  func(T) error
}

// Patch is a partial update of T.
type Patch[T any] interface {
	ApplyTo(v T) error
}
