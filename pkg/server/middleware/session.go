package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/piivault/pkg/identity"
)

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionAuthenticator issues and validates short-lived HMAC-signed session
// tokens. The authenticated identity is placed on the request context for
// handlers to consume.
type SessionAuthenticator struct {
	signingKey []byte
	ttl        time.Duration
}

// NewSessionAuthenticator creates a session authenticator over a signing key.
func NewSessionAuthenticator(signingKey []byte, ttl time.Duration) *SessionAuthenticator {
	return &SessionAuthenticator{signingKey: signingKey, ttl: ttl}
}

// TTL returns the session lifetime.
func (s *SessionAuthenticator) TTL() time.Duration {
	return s.ttl
}

// Issue mints a session token for a principal.
func (s *SessionAuthenticator) Issue(principalID, username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates a session token and returns the identity it carries.
func (s *SessionAuthenticator) Verify(tokenStr string) (*identity.Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(token *jwt.Token) (interface{}, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	return identity.New(
		claims.Subject,
		claims.Username,
		claims.IssuedAt.Time,
		claims.ExpiresAt.Time,
	), nil
}

// Middleware returns an HTTP middleware that authenticates requests with a
// bearer session token.
func (s *SessionAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization header"))
			return
		}

		id, err := s.Verify(tokenStr)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Invalid session token"))
			return
		}

		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			id = id.WithRemoteIP(net.ParseIP(host))
		}

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}
