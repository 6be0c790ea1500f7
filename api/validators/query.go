package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// ParseQueryInt reads an optional integer in [min, max]; absent yields
// defaultVal.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer").WithDetail("field", key)
	case value < min || value > max:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseLimit reads the page size of a list endpoint. Zero means the list's
// default.
func ParseLimit(r *http.Request) (int, error) {
	return ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
}

// ParseQueryFlag reads an optional boolean where absence means false.
func ParseQueryFlag(r *http.Request, key string) (bool, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be true or false").WithDetail("field", key)
	}
	return value, nil
}

// QueryText returns a free-text parameter run through SanitizeString.
func QueryText(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
