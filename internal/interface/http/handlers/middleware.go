package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// APIKeyAuth checks an API key against a bcrypt hash.
// Only the hash is kept in configuration; the key itself never is.
type APIKeyAuth struct {
	headerName string
	hash       []byte
	onReject   func(w http.ResponseWriter, r *http.Request, code, message string)
}

// NewAPIKeyAuth creates a new API key authenticator.
// onReject writes the 401 response; nil falls back to a plain JSON body.
func NewAPIKeyAuth(headerName, bcryptHash string, onReject func(w http.ResponseWriter, r *http.Request, code, message string)) *APIKeyAuth {
	if onReject == nil {
		onReject = func(w http.ResponseWriter, _ *http.Request, code, message string) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			http.Error(w, `{"error":"`+code+`","message":"`+message+`"}`, http.StatusUnauthorized)
		}
	}
	return &APIKeyAuth{
		headerName: headerName,
		hash:       []byte(bcryptHash),
		onReject:   onReject,
	}
}

// HashKey returns the bcrypt hash to configure for key.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// IsValid checks if an API key matches the configured hash.
func (a *APIKeyAuth) IsValid(key string) bool {
	if key == "" || len(a.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(key)) == nil
}

// Middleware returns an HTTP middleware that checks for a valid API key.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(a.headerName)

		// Also check Authorization header with Bearer scheme
		if key == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			a.onReject(w, r, "missing_api_key", "API key is required")
			return
		}

		if !a.IsValid(key) {
			a.onReject(w, r, "invalid_api_key", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SECURITY HEADERS MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecurityHeadersMiddleware adds security-related headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SIZE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RequestSizeLimitMiddleware limits the size of request bodies.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				http.Error(w, `{"error":"payload_too_large","message":"Request body too large"}`,
					http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}
