package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"accountapi/internal/auth"
	"accountapi/internal/httpx"
	"accountapi/internal/observability"
	"accountapi/internal/router"
)

type Store interface {
	Get(ctx context.Context, username, bookID string) (Progress, error)
	Put(ctx context.Context, p Progress) error
}

// Guard authenticates a request for a protected handler.
type Guard interface {
	Require(r *http.Request) (auth.Identity, httpx.Response, bool)
}

type Handler struct {
	store  Store
	guard  Guard
	logger *observability.Logger
	now    func() time.Time
}

func NewHandler(store Store, guard Guard, logger *observability.Logger) *Handler {
	return &Handler{
		store:  store,
		guard:  guard,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type textData struct {
	Text float64 `json:"text"`
}

type textRequest struct {
	Text any `json:"text"`
}

func (h *Handler) GetText(r *http.Request, m router.Match) httpx.Response {
	identity, res, ok := h.guard.Require(r)
	if !ok {
		return res
	}

	bookID := strings.TrimSpace(m.Param(0))
	if bookID == "" {
		return httpx.Error(http.StatusBadRequest, "bookid can not be blank")
	}

	progress, err := h.store.Get(r.Context(), identity.Username, bookID)
	if err != nil {
		if errors.Is(err, ErrProgressNotFound) {
			return httpx.Error(http.StatusBadRequest, "Can not find text count")
		}
		return h.internal(r, "get_text_failed", err)
	}

	return httpx.OK(fmt.Sprintf("Get %s text count", bookID), textData{Text: progress.Text})
}

func (h *Handler) PutText(r *http.Request, m router.Match) httpx.Response {
	identity, res, ok := h.guard.Require(r)
	if !ok {
		return res
	}

	bookID := strings.TrimSpace(m.Param(0))
	if bookID == "" {
		return httpx.Error(http.StatusBadRequest, "bookid can not be blank")
	}

	var body textRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid json body")
	}
	number, ok := body.Text.(json.Number)
	if !ok {
		return httpx.Error(http.StatusBadRequest, "Text in body can not be blank")
	}
	text, err := number.Float64()
	if err != nil {
		return httpx.Error(http.StatusBadRequest, "Text in body can not be blank")
	}

	err = h.store.Put(r.Context(), Progress{
		Username:  identity.Username,
		BookID:    bookID,
		Text:      text,
		UpdatedAt: h.now(),
	})
	if err != nil {
		return h.internal(r, "put_text_failed", err)
	}

	return httpx.OK("Update text count", textData{Text: text})
}

func (h *Handler) internal(r *http.Request, event string, err error) httpx.Response {
	sentry.CaptureException(err)
	h.logger.Error(event, map[string]any{
		"path":  r.URL.Path,
		"error": err.Error(),
	})
	return httpx.Internal()
}
