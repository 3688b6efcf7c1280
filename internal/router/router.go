// Package router dispatches a single request to the first registered
// handler whose method, mount prefix and segment pattern match.
//
// A Router is built per request. Registrations are evaluated in the order
// they are made and the first matching handler's result is held; every
// registration after that is a no-op.
package router

import (
	"net/http"
	"strings"
)

// ParamMarker is the pattern segment that captures a request segment.
const ParamMarker = ":"

// Match describes how a request path lined up with a pattern.
type Match struct {
	// Path is the request path with the mount prefix removed.
	Path string
	// Params holds the request segments found at ParamMarker positions, in
	// order. A position the request path does not reach yields "".
	Params []string
	// Rest holds the request segments beyond the pattern, with a leading
	// slash, or "" when the pattern consumed the whole path.
	Rest string
}

// Param returns the i-th captured segment or "" when there is none.
func (m Match) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

type HandlerFunc[T any] func(r *http.Request, m Match) T

type Router[T any] struct {
	prefix string
	req    *http.Request
	result *T
}

func New[T any](prefix string, r *http.Request) *Router[T] {
	return &Router[T]{prefix: prefix, req: r}
}

func (rt *Router[T]) Get(pattern string, handler HandlerFunc[T]) {
	rt.handle(http.MethodGet, pattern, handler)
}

// Post only considers requests declaring a JSON body.
func (rt *Router[T]) Post(pattern string, handler HandlerFunc[T]) {
	rt.handle(http.MethodPost, pattern, handler)
}

// Result reports the value produced by the matched handler, if any.
func (rt *Router[T]) Result() (T, bool) {
	if rt.result == nil {
		var zero T
		return zero, false
	}
	return *rt.result, true
}

func (rt *Router[T]) handle(method, pattern string, handler HandlerFunc[T]) {
	if rt.result != nil || rt.req == nil {
		return
	}
	if rt.req.Method != method {
		return
	}
	if method == http.MethodPost && !isJSON(rt.req) {
		return
	}

	path, ok := strings.CutPrefix(rt.req.URL.Path, rt.prefix)
	if !ok {
		return
	}

	m, ok := matchPattern(pattern, path)
	if !ok {
		return
	}

	result := handler(rt.req, m)
	rt.result = &result
}

func isJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func matchPattern(pattern, path string) (Match, bool) {
	want := strings.Split(pattern, "/")
	got := strings.Split(path, "/")

	m := Match{Path: path}
	for i, segment := range want {
		var actual string
		present := i < len(got)
		if present {
			actual = got[i]
		}

		switch segment {
		case ParamMarker:
			m.Params = append(m.Params, actual)
		case "":
		default:
			if !present || actual != segment {
				return Match{}, false
			}
		}
	}

	if len(got) > len(want) {
		m.Rest = "/" + strings.Join(got[len(want):], "/")
	}

	return m, true
}
