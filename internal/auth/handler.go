package auth

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"accountapi/internal/httpx"
	"accountapi/internal/observability"
	"accountapi/internal/router"
)

const invalidSessionMessage = "Not valid Session"

type Handler struct {
	service *Service
	logger  *observability.Logger
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionData struct {
	Session string `json:"session"`
}

func (h *Handler) Login(r *http.Request, _ router.Match) httpx.Response {
	var body loginRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid json body")
	}

	result, err := h.service.Login(r.Context(), body.Username, body.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingUsername):
		return httpx.Error(http.StatusBadRequest, "need username")
	case errors.Is(err, ErrMissingPassword):
		return httpx.Error(http.StatusBadRequest, "need password")
	case errors.Is(err, ErrAccountQuota):
		return httpx.Error(http.StatusInternalServerError, "There are too many Account registered")
	case errors.Is(err, ErrSessionQuota):
		return httpx.Error(http.StatusInternalServerError, "There are too many Session Created")
	case errors.Is(err, ErrInvalidCredentials):
		return httpx.Error(http.StatusForbidden, "Wrong username or password")
	default:
		return h.internal(r, "login_failed", err)
	}

	message := "Create a new Session"
	if result.Created {
		message = "Create a new Account"
		h.logger.Info("account_created", map[string]any{"username": result.Username})
	}
	return httpx.OK(message, sessionData{Session: result.Session})
}

func (h *Handler) User(r *http.Request, _ router.Match) httpx.Response {
	identity, res, ok := h.Require(r)
	if !ok {
		return res
	}

	return httpx.OK("Success get user's data", identity)
}

// Require authenticates r for a protected handler. When ok is false the
// returned response must be sent as is.
func (h *Handler) Require(r *http.Request) (Identity, httpx.Response, bool) {
	identity, err := h.service.Authenticate(r.Context(), r)
	if err != nil {
		return Identity{}, h.internal(r, "authenticate_failed", err), false
	}
	if !identity.Authenticated() {
		return Identity{}, httpx.Error(http.StatusForbidden, invalidSessionMessage), false
	}
	return identity, httpx.Response{}, true
}

func (h *Handler) internal(r *http.Request, event string, err error) httpx.Response {
	sentry.CaptureException(err)
	h.logger.Error(event, map[string]any{
		"path":  r.URL.Path,
		"error": err.Error(),
	})
	return httpx.Internal()
}
