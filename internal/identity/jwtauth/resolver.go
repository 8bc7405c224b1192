package jwtauth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Resolver turns an HS256 bearer token into an Actor. Tokens are issued by the
// external session service; this package only verifies them.
type Resolver struct {
	secret []byte
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret)}
}

func (r *Resolver) Resolve(req *http.Request) (identity.Actor, error) {
	raw, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return identity.Actor{}, fmt.Errorf("missing bearer token")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return identity.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	role := identity.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return identity.Actor{}, fmt.Errorf("token missing subject or role")
	}
	return identity.Actor{ID: claims.Subject, Role: role}, nil
}

// Issue signs a token for a; used by tests and local tooling.
func (r *Resolver) Issue(a identity.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(r.secret)
}
