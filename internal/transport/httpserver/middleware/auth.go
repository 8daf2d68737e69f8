package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"timebank-go/internal/config"
	"timebank-go/internal/domain/identity"
	"timebank-go/pkg/logger"
)

// Claims is the bearer token payload issued by the identity provider.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type ProfileSaver interface {
	UpsertProfile(ctx context.Context, principal identity.Principal, email, name string) error
}

type JWTAuth struct {
	secret   []byte
	profiles ProfileSaver
	skipAuth bool
	mock     Claims
	log      logger.Logger
}

func NewJWTAuth(cfg config.AuthConfig, profiles ProfileSaver, log logger.Logger) *JWTAuth {
	return &JWTAuth{
		secret:   []byte(cfg.JWTSecret),
		profiles: profiles,
		skipAuth: cfg.SkipAuth,
		mock: Claims{
			UserID: cfg.MockUserID,
			Role:   strings.TrimSpace(cfg.MockUserRole),
			Email:  strings.TrimSpace(cfg.MockUserEmail),
			Name:   strings.TrimSpace(cfg.MockUserName),
		},
		log: log,
	}
}

func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := a.mock
		if !a.skipAuth {
			if len(a.secret) == 0 {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			parsed, err := a.parse(token)
			if err != nil {
				a.log.Debug("auth: token rejected", "err", err)
				unauthorized(w)
				return
			}
			claims = *parsed
		}

		role, ok := identity.ParseRole(claims.Role)
		if !ok || claims.UserID <= 0 {
			unauthorized(w)
			return
		}
		principal := identity.Principal{ID: claims.UserID, Role: role}

		if a.profiles != nil {
			if err := a.profiles.UpsertProfile(r.Context(), principal, claims.Email, claims.Name); err != nil {
				a.log.InternalError("auth: upsert profile failed", err, "user_id", principal.ID)
			}
		}

		ctx := identity.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *JWTAuth) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// RequireAdmin rejects principals without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := identity.FromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !principal.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
