package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/jetemi/ng-pycon/internal/config"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
)

// Middleware authenticates bearer tokens on buyer endpoints. With an issuer
// configured, tokens are verified against the OIDC provider. Without one the
// claims are read unverified; identity then rests on the fronting proxy,
// which is where session mechanics live for this service.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	var verifier *oidc.IDTokenVerifier
	if cfg.Issuer != "" {
		provider, err := oidc.NewProvider(context.Background(), cfg.Issuer)
		if err != nil {
			panic(fmt.Sprintf("Failed to create OIDC provider: %v", err))
		}

		oidcConfig := &oidc.Config{SkipClientIDCheck: true}
		if cfg.ClientID != "" {
			oidcConfig = &oidc.Config{ClientID: cfg.ClientID}
		}
		verifier = provider.Verifier(oidcConfig)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			var claims TokenClaims
			if verifier != nil {
				idToken, err := verifier.Verify(r.Context(), rawToken)
				if err != nil {
					http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
					return
				}
				if err := idToken.Claims(&claims); err != nil {
					http.Error(w, "failed to parse claims", http.StatusUnauthorized)
					return
				}
			} else {
				claims, err = ExtractClaimsFromJWT(rawToken)
				if err != nil {
					http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
					return
				}
			}

			if claims.Sub == "" {
				http.Error(w, "subject claim not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Sub)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user ID in handlers.
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		return uid
	}
	return ""
}

// UserEmail extracts the authenticated user's email in handlers.
func UserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}

// WithUser injects identity into a context the way the middleware does.
// Intended for tests and internal tooling.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, emailKey, email)
}
