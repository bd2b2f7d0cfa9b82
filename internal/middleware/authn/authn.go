// Package authn gates protected routes behind a bearer access token and
// puts the resolved account into the request context.
package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"account_service/internal/auth"
	resp "account_service/internal/lib/api/response"
	"account_service/internal/models"

	"github.com/go-chi/render"
)

type ctxKey struct{}

// Authenticator resolves a bearer token to an active account.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (models.Account, error)
}

func New(authService Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Unauthorized"))

				return
			}

			acc, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrAccountInactive) {
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, resp.Error("Account is deactivated"))

					return
				}

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Unauthorized"))

				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxKey{}, acc),
			))
		})
	}
}

// AccountFromContext returns the account resolved by the middleware.
func AccountFromContext(ctx context.Context) (models.Account, bool) {
	acc, ok := ctx.Value(ctxKey{}).(models.Account)
	return acc, ok
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", false
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
