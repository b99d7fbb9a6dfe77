package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-appointment-portal/internal/domain/entity"
	"go-appointment-portal/pkg/jwt"
	"go-appointment-portal/pkg/response"
)

type contextKey string

const sessionKey contextKey = "session"

type AuthMiddleware struct {
	jwtService *jwt.JWTService
}

func NewAuthMiddleware(jwtService *jwt.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate validates the bearer token and builds the request Session.
// The session is the only place actor identity lives; nothing downstream
// reads the Authorization header again.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		tokenString := parts[1]

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		session := &entity.Session{
			UserID: claims.UserID,
			Role:   claims.Role,
			Token:  tokenString,
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionFromContext extracts the authenticated session
func GetSessionFromContext(ctx context.Context) (*entity.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*entity.Session)
	return session, ok
}
