package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteEnvelope writes v wrapped in a single-key object, e.g. {"bgpvpn": {...}}.
func WriteEnvelope(w http.ResponseWriter, status int, key string, v any) {
	WriteJSON(w, status, map[string]any{key: v})
}

// WritePaginated writes a list under key together with pagination metadata:
// {"<key>": [...], "next_cursor": "...", "has_more": bool}.
func WritePaginated(w http.ResponseWriter, status int, key string, items any, nextCursor string, hasMore bool) {
	body := map[string]any{
		key:        items,
		"has_more": hasMore,
	}
	if nextCursor != "" {
		body["next_cursor"] = nextCursor
	}
	WriteJSON(w, status, body)
}
