package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"coscribe/internal/document/model"
	"coscribe/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const IdentityKey contextKey = "identity"

// IdentityFrom returns the authenticated caller stored by
// AuthMiddleware. Only valid on requests that passed through it.
func IdentityFrom(r *http.Request) model.Identity {
	return r.Context().Value(IdentityKey).(model.Identity)
}

// AuthMiddleware validates the bearer token and attaches the caller's
// identity to the request context. Credentials are issued elsewhere;
// this layer only verifies them.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// For WebSockets, tokens are passed in the query string
		// because the browser's WebSocket API doesn't support custom
		// headers.
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			authHeader := r.Header.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			jwtSecret := os.Getenv("JWT_SECRET")
			if jwtSecret == "" {
				logger.Sugar.Error("JWT_SECRET environment variable not set")
				return nil, fmt.Errorf("server is not configured to validate JWTs")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			logger.Sugar.Infof("Invalid token: %v", err)
			http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "Unauthorized: Could not parse token claims", http.StatusUnauthorized)
			return
		}
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			http.Error(w, "Unauthorized: User ID (sub) claim is missing or invalid", http.StatusUnauthorized)
			return
		}
		identity := model.Identity{ID: sub}
		if username, ok := claims["username"].(string); ok {
			identity.Username = username
		}
		if email, ok := claims["email"].(string); ok {
			identity.Email = email
		}

		ctx := context.WithValue(r.Context(), IdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
