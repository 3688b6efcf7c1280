// Package api exposes the account service under a single mount prefix.
package api

import (
	"net/http"

	"accountapi/internal/httpx"
	"accountapi/internal/router"
)

type AuthHandler interface {
	Login(r *http.Request, m router.Match) httpx.Response
	User(r *http.Request, m router.Match) httpx.Response
}

type BookHandler interface {
	GetText(r *http.Request, m router.Match) httpx.Response
	PutText(r *http.Request, m router.Match) httpx.Response
}

type Handler struct {
	prefix string
	auth   AuthHandler
	books  BookHandler
}

func NewHandler(prefix string, auth AuthHandler, books BookHandler) *Handler {
	return &Handler{prefix: prefix, auth: auth, books: books}
}

// ServeHTTP tries the routes in a fixed order and answers 404 when none of
// them matched.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt := router.New[httpx.Response](h.prefix, r)
	rt.Post("/login", h.auth.Login)
	rt.Get("/user", h.auth.User)
	rt.Get("/book/:/text", h.books.GetText)
	rt.Post("/book/:/text", h.books.PutText)

	res, ok := rt.Result()
	if !ok {
		res = httpx.NotFound()
	}
	httpx.Write(w, res)
}
