package domain

import "encoding/json"

// Optional is a tri-state patch field: absent (zero value), null, or a value.
// Absent fields leave the target untouched, null clears it, and a value
// (including an empty string or slice) overwrites it.
type Optional[T any] struct {
	set  bool
	null bool
	val  T
}

// Set returns a present Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{set: true, val: v}
}

// Null returns a present Optional that clears the target.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// IsSet reports whether the field was present in the patch.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was explicitly cleared.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Value returns the held value (zero when absent or null).
func (o Optional[T]) Value() T { return o.val }

// ApplyTo writes the value into dst. Null resets dst to its zero value.
func (o Optional[T]) ApplyTo(dst *T) {
	if !o.set {
		return
	}
	if o.null {
		var zero T
		*dst = zero
		return
	}
	*dst = o.val
}

// ApplyToPtr writes the value into an optional field. Null sets it to nil.
func (o Optional[T]) ApplyToPtr(dst **T) {
	if !o.set {
		return
	}
	if o.null {
		*dst = nil
		return
	}
	v := o.val
	*dst = &v
}

// UnmarshalJSON marks the field present; a JSON null marks it cleared.
// Fields missing from the JSON object never reach this method and stay absent.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		var zero T
		o.null = true
		o.val = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(b, &o.val)
}

// IsZero reports an absent field, so `omitzero` drops it when encoding.
func (o Optional[T]) IsZero() bool { return !o.set }

// MarshalJSON encodes null for cleared fields. Absent fields are left out by
// the `omitzero` tag on the patch structs.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

// requiredString applies a patch to a required string field: null or blank is rejected.
func requiredString(field string, o Optional[string], dst *string) *FieldError {
	if !o.IsSet() {
		return nil
	}
	if o.IsNull() || trimmed(o.Value()) == "" {
		return &FieldError{Field: field, Message: "required"}
	}
	*dst = trimmed(o.Value())
	return nil
}
