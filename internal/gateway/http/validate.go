package http

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/reposcope/reposcope/pkg/httpx"
)

// fieldError is one per-field validation failure in an INVALID_PARAMS
// response.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func invalidParams(fields []fieldError) *httpx.APIError {
	return httpx.NewAPIError(http.StatusBadRequest, CodeInvalidParams,
		"request validation failed").WithDetails(fields)
}

// queryRules validates and canonicalizes forwarded list parameters. Unknown
// parameters are dropped rather than rejected, so upstream never sees
// anything this gateway did not vet.
type queryRules struct {
	// enums maps a parameter to its allowed values.
	enums map[string][]string
	// passthrough parameters are forwarded after a non-empty check only.
	passthrough []string
	// paged enables page and per_page handling.
	paged bool
}

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

// parse checks the raw query against the rules and returns the canonical
// values to forward upstream.
func (rules queryRules) parse(raw url.Values) (url.Values, []fieldError) {
	out := url.Values{}
	var fields []fieldError

	for param, allowed := range rules.enums {
		v := strings.TrimSpace(raw.Get(param))
		if v == "" {
			continue
		}
		if !slices.Contains(allowed, v) {
			fields = append(fields, fieldError{
				Field:   param,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
			})
			continue
		}
		out.Set(param, v)
	}

	for _, param := range rules.passthrough {
		if v := strings.TrimSpace(raw.Get(param)); v != "" {
			out.Set(param, v)
		}
	}

	if rules.paged {
		if v := strings.TrimSpace(raw.Get("page")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				fields = append(fields, fieldError{Field: "page", Message: "must be a positive integer"})
			} else {
				out.Set("page", strconv.Itoa(n))
			}
		}
		if v := strings.TrimSpace(raw.Get("per_page")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxPerPage {
				fields = append(fields, fieldError{
					Field:   "per_page",
					Message: fmt.Sprintf("must be an integer between 1 and %d", maxPerPage),
				})
			} else {
				out.Set("per_page", strconv.Itoa(n))
			}
		}
	}

	return out, fields
}

// pathSegment validates a path value like an owner or repo name. GitHub
// names never contain slashes or whitespace.
func pathSegment(field, v string) (string, *fieldError) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", &fieldError{Field: field, Message: "is required"}
	}
	if strings.ContainsAny(v, "/ \t") {
		return "", &fieldError{Field: field, Message: "contains invalid characters"}
	}
	return v, nil
}
