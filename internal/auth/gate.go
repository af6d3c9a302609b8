package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"CatalogHooks/pkg/kit"
)

var ErrMissingCredential = errors.New("token required")

type ctxKey string

const claimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// Gate rejects requests without a valid bearer token. A missing header is
// 401; anything present that does not verify is 403.
func Gate(tm *TokenMaker, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(tm, r.Header.Get("Authorization"))
			switch {
			case errors.Is(err, ErrMissingCredential):
				kit.WriteError(w, r, http.StatusUnauthorized, ErrMissingCredential.Error(), nil)
				return
			case err != nil:
				if log != nil {
					log.Debug("token rejected", zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusForbidden, ErrInvalidToken.Error(), nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func authenticate(tm *TokenMaker, authz string) (Claims, error) {
	if authz == "" {
		return Claims{}, ErrMissingCredential
	}

	tok, ok := kit.BearerToken(authz)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	return tm.Parse(tok)
}
