package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"agritrust/pkg/requestcontext"
)

// ActorClaims is the resolved caller identity the core trusts verbatim:
// a stakeholder DID and its registered type.
type ActorClaims struct {
	ActorDID  string
	ActorType string
}

// TokenValidator turns a bearer token into actor claims. The JWT
// implementation below is the default; tests supply fakes.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ActorClaims, error)
}

// JWTValidator validates HS256 tokens carrying actor_did / actor_type claims.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

func (v *JWTValidator) ValidateToken(tokenString string) (*ActorClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	did, _ := claims["actor_did"].(string)
	actorType, _ := claims["actor_type"].(string)
	if did == "" {
		return nil, fmt.Errorf("token missing actor_did claim")
	}
	return &ActorClaims{ActorDID: did, ActorType: actorType}, nil
}

// RequireAuth resolves the bearer token into an (actor DID, actor type) pair
// and injects it into the request context. Requests without a valid token are
// rejected before reaching any handler.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "invalid or expired token")
				return
			}
			ctx = requestcontext.WithActor(ctx, claims.ActorDID, claims.ActorType)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActorType gates a route to the given stakeholder types. This is the
// authorization collaborator: role membership is enforced here, never inside
// the core services.
func RequireActorType(logger *slog.Logger, types ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorType := requestcontext.ActorType(ctx)
			if _, ok := allowed[actorType]; !ok {
				logger.WarnContext(ctx, "forbidden - actor type not permitted",
					"actor_type", actorType,
					"actor_did", requestcontext.ActorDID(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
