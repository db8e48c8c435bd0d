package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"homenest/internal/models"
)

// JWTVerifier accepts HMAC-signed tokens issued with a shared secret.
// It stands in for the identity provider in development and tests.
type JWTVerifier struct {
	signingKey []byte
}

func NewJWTVerifier(signingKey string) (*JWTVerifier, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	return &JWTVerifier{signingKey: []byte(signingKey)}, nil
}

// Issue signs a token for id that expires after ttl.
func (v *JWTVerifier) Issue(id models.Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   id.UID,
		"email": id.Email,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}
	if id.Name != "" {
		claims["name"] = id.Name
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.signingKey)
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (models.Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return models.Identity{}, errors.New("invalid claims")
	}
	id := models.Identity{}
	id.UID, _ = claims["sub"].(string)
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	return id, nil
}
