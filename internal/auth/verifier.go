// Package auth turns bearer tokens into verified caller identities.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"homenest/internal/models"
)

// Verifier validates a raw token with an identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

const bearerPrefix = "Bearer "

// BearerToken extracts the token from the Authorization header.
// A header without the Bearer prefix counts as no token at all.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", models.ErrUnauthenticated
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", models.ErrUnauthenticated
	}
	return token, nil
}

// Authenticate reads the bearer token off r and verifies it within timeout.
// Provider failures are reported as ErrInvalidToken; the cause stays in the wrapped chain
// for logging only.
func Authenticate(r *http.Request, v Verifier, timeout time.Duration) (models.Identity, error) {
	token, err := BearerToken(r)
	if err != nil {
		return models.Identity{}, err
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	id, err := v.Verify(ctx, token)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	return id, nil
}
