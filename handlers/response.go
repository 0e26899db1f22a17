package handlers

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeJSON encodes v before touching the response, so an encoding failure
// becomes a 500 instead of a 200 with an empty body
func writeJSON(w http.ResponseWriter, status int, cacheControl string, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("Warning: failed to encode %T response: %v", v, err)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Failed to encode response",
			Details: map[string]interface{}{
				"internal": err.Error(),
			},
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Warning: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, "no-store", ErrorResponse{
		Error:   msg,
		Details: details,
	})
}
