// Package shared holds the response helpers every HTTP handler uses so all
// endpoints speak the same JSON envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "guahh-connect/pkg/domain-errors"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Server
// errors carry only the code; their text stays in the logs.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := dErrors.CodeInternal
	message := ""

	var ce dErrors.ConnectError
	if errors.As(err, &ce) {
		status = dErrors.ToHTTPStatus(ce.Code)
		code = ce.Code
		message = ce.Message
	}

	body := map[string]string{"error": string(code)}
	if message != "" && status < http.StatusInternalServerError {
		body["message"] = message
	}
	WriteJSON(w, status, body)
}
