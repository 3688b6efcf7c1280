// Package httpx holds the JSON envelope every API response is written in.
package httpx

import (
	"encoding/json"
	"net/http"
)

const maxJSONBodyBytes = 1 << 20

type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(message string, data any) Response {
	return Response{Status: http.StatusOK, Message: message, Data: data}
}

func Error(status int, message string) Response {
	return Response{Status: status, Message: message}
}

func NotFound() Response {
	return Error(http.StatusNotFound, "Not Found")
}

func Internal() Response {
	return Error(http.StatusInternalServerError, "internal server error")
}

// Write sends the envelope with its status mirrored as the HTTP status code.
// Cross-origin access is allowed on every response.
func Write(w http.ResponseWriter, res Response) {
	status := res.Status
	if status == 0 {
		status = http.StatusOK
		res.Status = status
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// DecodeJSON reads a size-limited JSON body into dst. Numbers are kept as
// json.Number when dst holds interface values.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxJSONBodyBytes)
	defer body.Close()

	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	return decoder.Decode(dst)
}
