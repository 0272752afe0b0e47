package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tasktrack/tasktrack/internal/platform/httpx"
	"github.com/tasktrack/tasktrack/internal/shared"
)

const bearerPrefix = "bearer "

// Authenticator validates bearer tokens on protected routes.
type Authenticator struct {
	logger   *slog.Logger
	tokens   *TokenManager
	sessions SessionStore
	// checkStore additionally requires the token to be the live session record.
	checkStore bool
}

// NewAuthenticator constructs an Authenticator. When checkStore is set, sessions must be non-nil.
func NewAuthenticator(logger *slog.Logger, tokens *TokenManager, sessions SessionStore, checkStore bool) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{logger: logger, tokens: tokens, sessions: sessions, checkStore: checkStore && sessions != nil}
}

// Require short-circuits requests without a valid token and stores the identity for the next handler.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Authenticate(r)
		if err != nil {
			switch shared.KindOf(err) {
			case shared.KindInternal:
				a.logger.Error("authenticate request", slog.Any("error", err))
			case shared.KindInvalidToken:
				a.logger.Debug("rejected token", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// Authenticate decodes the identity carried by the request's Authorization header.
func (a *Authenticator) Authenticate(r *http.Request) (shared.Identity, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return shared.Identity{}, shared.ErrUnauthenticated
	}
	raw := bearerToken(header)
	if raw == "" {
		return shared.Identity{}, shared.ErrInvalidToken
	}

	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return shared.Identity{}, err
	}

	if a.checkStore {
		rec, err := a.sessions.Active(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.Identity{}, shared.ErrInvalidToken
			}
			return shared.Identity{}, err
		}
		if subtle.ConstantTimeCompare([]byte(rec.Token), []byte(raw)) != 1 {
			return shared.Identity{}, shared.ErrInvalidToken
		}
	}

	identity := shared.Identity{UserID: claims.UserID}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// bearerToken strips an optional "Bearer " prefix.
func bearerToken(header string) string {
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return header
}
