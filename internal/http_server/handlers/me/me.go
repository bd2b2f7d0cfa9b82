package me

import (
	"log/slog"
	"net/http"
	"time"

	resp "account_service/internal/lib/api/response"
	"account_service/internal/middleware/authn"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Account Account `json:"account"`
}

type Account struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// New returns the authenticated account's profile.
func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		acc, ok := authn.AccountFromContext(r.Context())
		if !ok {
			log.Warn("no account in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Account: Account{
				ID:          acc.ID,
				Email:       acc.LoginID,
				DisplayName: acc.DisplayName,
				Active:      acc.Active,
				CreatedAt:   acc.CreatedAt,
			},
		})
	}
}
