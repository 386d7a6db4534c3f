package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/edvin/keybroker/internal/core"
)

// ErrorResponse is the JSON envelope for failures.
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

// WriteDomainError maps a classified service error to its status code.
// Client-fault messages pass through verbatim; server faults are logged with
// their cause and the caller sees only a generic message.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := core.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	WriteError(w, status, core.PublicMessage(err))
}

// PaginatedResponse wraps a list with pagination metadata.
type PaginatedResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes a paginated JSON response.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, PaginatedResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}
