package domain

// UpsertBy replaces the first element whose key equals key(item), or appends item.
// The input slice is not modified.
func UpsertBy[T any, K comparable](list []T, item T, key func(T) K) []T {
	k := key(item)
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	for i := range out {
		if key(out[i]) == k {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

// RemoveBy drops every element with the given key and reports whether any was removed.
func RemoveBy[T any, K comparable](list []T, k K, key func(T) K) ([]T, bool) {
	out := make([]T, 0, len(list))
	removed := false
	for _, v := range list {
		if key(v) == k {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// IndexBy returns the index of the first element with the given key, or -1.
func IndexBy[T any, K comparable](list []T, k K, key func(T) K) int {
	for i, v := range list {
		if key(v) == k {
			return i
		}
	}
	return -1
}

// dedupeBy collapses duplicate keys with UpsertBy semantics: a later record
// replaces an earlier one in the earlier one's position.
func dedupeBy[T any, K comparable](list []T, key func(T) K) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		out = UpsertBy(out, v, key)
	}
	return out
}

func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
