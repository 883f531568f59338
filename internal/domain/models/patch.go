package models

// Patch is a tagged optional for partial updates: the zero value means
// "leave unchanged", SetTo carries a new value. For pointer-typed fields,
// SetTo(nil) is a real change (clear) and distinct from unchanged.
type Patch[T any] struct {
	value T
	set   bool
}

// SetTo returns a Patch carrying a new value
func SetTo[T any](v T) Patch[T] {
	return Patch[T]{value: v, set: true}
}

// IsSet reports whether the patch carries a value
func (p Patch[T]) IsSet() bool {
	return p.set
}

// Value returns the carried value and whether one is present
func (p Patch[T]) Value() (T, bool) {
	return p.value, p.set
}

// Or returns the carried value, or fallback when unchanged
func (p Patch[T]) Or(fallback T) T {
	if p.set {
		return p.value
	}
	return fallback
}
