package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-food-course-suggestions/config"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

type contextKey string

const ownerKey contextKey = "owner"

// Authenticate verifies bearer access tokens issued by the auth service. The
// uid claim becomes the owner of every course and bookmark the request touches.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	secretKey := []byte(jwtCfg.SecretKey)
	if len(secretKey) == 0 {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if jwtCfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(jwtCfg.Issuer))
	}
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			raw, msg := bearerToken(r)
			if msg != "" {
				l.WarnContext(ctx, "Rejected Authorization header", slog.String("reason", msg))
				api.ErrorResponse(w, r, http.StatusUnauthorized, msg)
				return
			}

			claims := &types.Claims{}
			token, err := jwt.ParseWithClaims(raw, claims, keyFunc, parserOpts...)
			if err != nil || !token.Valid {
				l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, tokenErrorMessage(err))
				return
			}

			if !api.VerifyAudience(claims.Audience, jwtCfg.Audience) {
				l.WarnContext(ctx, "Token audience mismatch", slog.String("expected", jwtCfg.Audience), slog.Any("actual", claims.Audience))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token audience")
				return
			}

			owner, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.WarnContext(ctx, "Token user id is not a UUID", slog.String("userID", claims.UserID))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(ctx, owner)))
		})
	}
}

// bearerToken extracts the token from an Authorization header, or returns the
// message to reject the request with.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "Authorization header required"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
		return "", "Authorization header format must be Bearer {token}"
	}
	return token, ""
}

func tokenErrorMessage(err error) string {
	switch {
	case err == nil:
		return "Invalid token"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "Malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "Invalid token issuer"
	default:
		return "Invalid or expired token"
	}
}

// WithOwner returns a context carrying the authenticated owner id.
func WithOwner(ctx context.Context, owner uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// OwnerFromContext returns the authenticated owner id.
func OwnerFromContext(ctx context.Context) (uuid.UUID, bool) {
	owner, ok := ctx.Value(ownerKey).(uuid.UUID)
	if !ok || owner == uuid.Nil {
		return uuid.Nil, false
	}
	return owner, true
}
