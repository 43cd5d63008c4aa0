package api

import (
	"net/http"
	"strconv"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
)

const maxLimit = 500

// parseLimit reads ?limit=, falling back to defaultLimit when absent and
// capping it at maxLimit.
func parseLimit(r *http.Request, defaultLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, newserrs.E(newserrs.KindInvalid, "limit must be a positive integer", newserrs.Detail{Field: "limit", Error: "must be a positive integer"})
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return limit, nil
}

// parseID reads an id out of a path or query value.
func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newserrs.E(newserrs.KindInvalid, field+" must be a positive integer", newserrs.Detail{Field: field, Error: "must be a positive integer"})
	}
	return id, nil
}
