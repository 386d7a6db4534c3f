package request

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ListParams holds pagination plus the optional exact-match filters accepted
// by list endpoints. Filters an endpoint does not support are ignored.
type ListParams struct {
	Limit    int
	Cursor   string
	ClientID string
	UserID   string
	Host     string
}

// ParseList extracts limit, cursor, and filter parameters from the query
// string. Out-of-range limits fall back to the defaults.
func ParseList(r *http.Request) ListParams {
	q := r.URL.Query()
	p := ListParams{
		Limit:    DefaultLimit,
		Cursor:   q.Get("cursor"),
		ClientID: q.Get("client_id"),
		UserID:   q.Get("user_id"),
		Host:     q.Get("host"),
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			p.Limit = limit
		}
	}

	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	return p
}
