package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amos-netizen/MotoTrack/internal/apperr"
)

// Decode reads the request body as JSON into dst. Unknown fields are
// rejected so typos surface as 400s instead of silently dropped input.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("invalid_json", "malformed request body: %v", err)
	}
	return nil
}

// PathID parses a numeric path segment.
func PathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid_id", "invalid %s %q", name, raw)
	}
	return uint(id), nil
}
