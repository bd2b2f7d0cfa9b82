package register

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"account_service/internal/auth"
	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=255"`
	Pass        string `json:"password" validate:"required,password"`
}

type Response struct {
	resp.Response
	Account Account `json:"account"`
}

// Account is the outward profile shape. The credential hash is never
// serialized.
type Account struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		req.DisplayName = strings.TrimSpace(req.DisplayName)

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		acc, err := authService.Register(r.Context(), req.Email, req.DisplayName, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrAccountExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Email is already registered"))

				return
			}

			log.Error("failed to register account", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Account registered", slog.Int64("id", acc.ID))

		ResponseOK(w, r, acc)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, acc models.Account) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Account: Account{
			ID:          acc.ID,
			Email:       acc.LoginID,
			DisplayName: acc.DisplayName,
			CreatedAt:   acc.CreatedAt,
		},
	})
}
