package maintenance

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"accountapi/internal/httpx"
	"accountapi/internal/observability"
)

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// CleanupHandler purges expired sessions on behalf of a scheduler. Expired
// sessions are also purged by every authentication attempt; this keeps the
// table small when traffic is quiet.
type CleanupHandler struct {
	purger     SessionPurger
	logger     *observability.Logger
	cronSecret string
	now        func() time.Time
}

func NewCleanupHandler(purger SessionPurger, logger *observability.Logger, cronSecret string) *CleanupHandler {
	return &CleanupHandler{
		purger:     purger,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type cleanupResult struct {
	DeletedSessions int64 `json:"deleted_sessions"`
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		httpx.Write(w, httpx.NotFound())
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httpx.Write(w, httpx.Error(http.StatusMethodNotAllowed, "method not allowed"))
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(h.cronSecret)) != 1 {
		httpx.Write(w, httpx.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	deleted, err := h.purger.PurgeExpiredSessions(r.Context(), h.now())
	if err != nil {
		h.logger.Error("session_cleanup_failed", map[string]any{"error": err.Error()})
		httpx.Write(w, httpx.Error(http.StatusInternalServerError, "cleanup failed"))
		return
	}

	h.logger.Info("session_cleanup_completed", map[string]any{"deleted_sessions": deleted})
	httpx.Write(w, httpx.OK("ok", cleanupResult{DeletedSessions: deleted}))
}
