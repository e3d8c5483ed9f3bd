// Package http wires the gateway's public HTTP surface: the auth endpoints,
// the cached read-through proxy endpoints and the judgment endpoint. All
// responses use the shared envelope from pkg/httpx.
package http

import (
	"errors"
	"net/http"

	"github.com/reposcope/reposcope/internal/gateway/github"
	"github.com/reposcope/reposcope/internal/gateway/service"
	"github.com/reposcope/reposcope/pkg/httpx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// Gateway error codes. Session and inbound rate-limit codes live in
// pkg/httpx next to the middleware that emits them.
const (
	CodeInvalidParams           = "INVALID_PARAMS"
	CodeCredentialMissing       = "CREDENTIAL_MISSING"
	CodeCredentialInvalid       = "CREDENTIAL_INVALID"
	CodeCredentialExpired       = "CREDENTIAL_EXPIRED"
	CodeCredentialRefreshFailed = "CREDENTIAL_REFRESH_FAILED"
	CodeGitHubRateLimit         = "GITHUB_RATE_LIMIT"
	CodeGitHubUnauthorized      = "GITHUB_UNAUTHORIZED"
	CodeNotFound                = "NOT_FOUND"
	CodeGitHubError             = "GITHUB_ERROR"
	CodeGitHubFetchFailed       = "GITHUB_FETCH_FAILED"
	CodeJudgmentFailed          = "JUDGMENT_FAILED"
)

// credentialError maps credential resolution failures onto API errors.
// Anything unrecognized is a plain internal error.
func credentialError(r *http.Request, err error) *httpx.APIError {
	var refreshErr *service.RefreshFailedError
	switch {
	case errors.Is(err, service.ErrCredentialMissing):
		return httpx.NewAPIError(http.StatusUnauthorized, CodeCredentialMissing,
			"no upstream credential on file, please log in")
	case errors.Is(err, service.ErrCredentialInvalid):
		return httpx.NewAPIError(http.StatusUnauthorized, CodeCredentialInvalid,
			"stored upstream credential is unusable, please log in again")
	case errors.Is(err, service.ErrCredentialExpired):
		return httpx.NewAPIError(http.StatusUnauthorized, CodeCredentialExpired,
			"upstream credential expired and cannot be refreshed, please log in again")
	case errors.As(err, &refreshErr):
		apiErr := httpx.NewAPIError(http.StatusUnauthorized, CodeCredentialRefreshFailed,
			"upstream credential refresh was rejected, please log in again")
		if refreshErr.Provider != nil {
			apiErr = apiErr.WithDetails(refreshErr.Provider)
		}
		return apiErr
	default:
		slogx.FromContext(r.Context()).Error("credential resolution failed", "err", err)
		return httpx.ErrInternal
	}
}

// upstreamError maps a non-2xx executor result onto an API error, carrying
// the upstream quota snapshot as response metadata.
func upstreamError(res *github.Result) *httpx.APIError {
	meta := metaFromResult(res)

	switch {
	case res.RateLimited():
		return httpx.NewAPIError(http.StatusTooManyRequests, CodeGitHubRateLimit,
			"upstream rate limit exhausted").
			WithDetails(map[string]int{"retryAfterSec": res.RateLimit.RetryAfter}).
			WithMeta(meta)
	case res.StatusCode == http.StatusUnauthorized:
		return httpx.NewAPIError(http.StatusUnauthorized, CodeGitHubUnauthorized,
			"upstream rejected the credential").WithMeta(meta)
	case res.StatusCode == http.StatusNotFound:
		return httpx.NewAPIError(http.StatusNotFound, CodeNotFound,
			"upstream resource not found").WithMeta(meta)
	default:
		return httpx.NewAPIError(res.StatusCode, CodeGitHubError, res.ErrorMessage()).
			WithDetails(res.ErrorPayload()).
			WithMeta(meta)
	}
}

// fetchError maps a judgment context assembly failure onto an API error.
// Any upstream failure during assembly, a 404 target included, means the
// gateway could not build the context it needed, so the caller always sees
// a 502 with the failing path and upstream status in the details.
func fetchError(err *service.FetchError) *httpx.APIError {
	return httpx.NewAPIError(http.StatusBadGateway, CodeGitHubFetchFailed,
		"failed to assemble judgment context from upstream").
		WithDetails(map[string]any{
			"path":     err.Path,
			"status":   err.StatusCode,
			"upstream": err.Payload,
		})
}
