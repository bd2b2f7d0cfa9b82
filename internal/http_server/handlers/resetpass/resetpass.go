package resetpass

import (
	"errors"
	"log/slog"
	"net/http"

	"account_service/internal/auth"
	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

type Response struct {
	resp.Response
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authService *auth.Auth,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetpass.New"

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

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		err = authService.ResetPassword(r.Context(), req.Token, req.NewPassword)
		if err != nil {
			// Three distinct client outcomes; the token itself is the
			// secret, there is no enumeration risk in being specific.
			switch {
			case errors.Is(err, auth.ErrInvalidResetToken):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Invalid recovery token"))
			case errors.Is(err, auth.ErrResetTokenUsed):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Recovery token already used"))
			case errors.Is(err, auth.ErrResetTokenExpired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Recovery token expired"))
			default:
				log.Error("failed to reset password", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		log.Info("Password reset completed")

		render.JSON(w, r, Response{Response: resp.OK()})
	}
}
