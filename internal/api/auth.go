package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims represents the JWT payload of an admin session.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an admin token for username valid for ttl.
func IssueToken(secret []byte, username string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("empty signing secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// HashPassword returns the bcrypt hash stored in admin.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// requireAdmin checks the bearer token (or token cookie) when admin auth is
// configured and passes everything through otherwise.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	if !s.opts.Admin.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tokenString string
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
		if tokenString == "" {
			if cookie, err := r.Cookie("token"); err == nil {
				tokenString = cookie.Value
			}
		}
		if tokenString == "" {
			respondError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtKey, nil
		})
		if err != nil || !token.Valid || claims.Subject != s.opts.Admin.Username {
			respondError(w, http.StatusUnauthorized, "invalid authentication token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Username != s.opts.Admin.Username ||
			bcrypt.CompareHashAndPassword([]byte(s.opts.Admin.PasswordHash), []byte(req.Password)) != nil {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		token, err := IssueToken(s.jwtKey, req.Username, s.opts.Admin.TokenTTL)
		if err != nil {
			s.logger.Error("failed to issue token", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to generate token")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "token",
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		respondJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
