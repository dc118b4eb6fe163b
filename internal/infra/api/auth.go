package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Service token primitives =====
//
// Callers of this API are trusted backend services (the LMS front end, the
// mobile gateway), never end users. Each call carries a short-lived HS256
// token naming the calling service.

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type ServiceClaims struct {
	Service string `json:"svc"`
	jwt.RegisteredClaims
}

func (m *TokenManager) Mint(service string) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   service,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) Verify(tok string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Guard rejects requests without a valid service token.
func (m *TokenManager) Guard() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hdr := r.Header.Get("Authorization")
			if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if _, err := m.Verify(strings.TrimSpace(hdr[7:])); err != nil {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
