package utils

// Ptr returns a pointer to v. Used to populate optional fields in
// partial-update payloads.
func Ptr[T any](v T) *T {
	return &v
}
