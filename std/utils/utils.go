package utils

// IdPtr returns a pointer to the given value, useful for populating struct
// fields that hold an optional scalar (a pinned PAT interface id, a packet
// id filter) inline without an intermediate variable.
func IdPtr[T any](v T) *T {
	return &v
}

// HeaderEqual reports whether two slices share the same underlying array,
// length, and capacity, i.e. whether one is an exact alias of the other's
// backing storage.
func HeaderEqual[T any](a, b []T) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	if len(a) == 0 {
		return len(b) == 0
	}
	return &a[0] == &b[0]
}
