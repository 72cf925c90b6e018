package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serializes v as JSON into w with the given HTTP status code.
// Encoding errors after the header has been written cannot be reported to the
// client anymore; they are silently dropped and left to the access log.
func WriteJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
