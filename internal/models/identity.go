package models

// Identity is the caller as proven by a verified bearer token.
// It lives for a single request and is never persisted.
type Identity struct {
	UID   string
	Email string
	Name  string
}
