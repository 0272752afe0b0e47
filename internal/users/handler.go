package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasktrack/tasktrack/internal/platform/httpx"
	"github.com/tasktrack/tasktrack/internal/shared"
)

// ProfileService is the subset of Service used by the handler.
type ProfileService interface {
	Profile(ctx context.Context, id string) (Profile, error)
}

// Handler manages user endpoints.
type Handler struct {
	logger  *slog.Logger
	service ProfileService
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ProfileService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes. The router is expected to be behind the authenticator.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	profile, err := h.service.Profile(r.Context(), actor.UserID)
	if err != nil {
		if shared.KindOf(err) == shared.KindInternal {
			h.logger.Error("load profile", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
