package domain

const (
	// DefaultPageLimit is used when a caller passes a non-positive limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps every paginated read.
	MaxPageLimit = 100
)

// Page is one slice of an ordered result set plus the size of the whole set.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NormalizePage defaults and caps limit and clamps offset to be non-negative.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Paginate returns the [offset, offset+limit) window of items as a Page.
// Items is never nil. Limit and offset must already be normalized.
func Paginate[T any](items []T, limit, offset int) Page[T] {
	total := len(items)
	if offset >= total {
		return Page[T]{Items: []T{}, Total: total}
	}
	end := min(offset+limit, total)
	window := make([]T, end-offset)
	copy(window, items[offset:end])
	return Page[T]{Items: window, Total: total}
}
