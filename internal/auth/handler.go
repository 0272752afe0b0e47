package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/tasktrack/tasktrack/internal/platform/httpx"
	"github.com/tasktrack/tasktrack/internal/shared"
	"github.com/tasktrack/tasktrack/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	authenticator *Authenticator
	validator     *validator.Validate
	loginLimit    int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts per IP per minute; zero disables it.
func NewHandler(logger *slog.Logger, service *Service, authenticator *Authenticator, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:        logger,
		service:       service,
		authenticator: authenticator,
		validator:     httpx.NewValidator(),
		loginLimit:    loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	if h.loginLimit > 0 {
		r.With(httprate.LimitByIP(h.loginLimit, time.Minute)).Post("/login", h.handleLogin)
	} else {
		r.Post("/login", h.handleLogin)
	}
	r.Post("/logout", h.handleLogout)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type registerResponse struct {
	Message string        `json:"message"`
	User    users.Profile `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	if len(req.Password) > MaxPasswordBytes {
		httpx.RespondError(w, errPasswordTooLong)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		if shared.KindOf(err) == shared.KindInternal {
			h.logger.Error("register user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user registered", slog.String("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully", User: user.Profile()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validationf("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if shared.KindOf(err) == shared.KindInternal {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user logged in", slog.String("user_id", session.UserID))
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if h.service.RevocationEnabled() {
		if identity, err := h.authenticator.Authenticate(r); err == nil {
			if err := h.service.Logout(r.Context(), &identity); err != nil {
				h.logger.Warn("revoke session", slog.Any("error", err))
			}
		}
	}
	httpx.Message(w, http.StatusOK, "Logged out successfully")
}
