package github

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePaginationLinkHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Link",
		`<https://api.github.com/user/repos?page=3>; rel="next", `+
			`<https://api.github.com/user/repos?page=1>; rel="prev", `+
			`<https://api.github.com/user/repos?page=1>; rel="first", `+
			`<https://api.github.com/user/repos?page=9>; rel="last"`)

	query := url.Values{"page": []string{"2"}}
	p := parsePagination(h, query)

	require.Equal(t, 2, p.Page)
	require.Equal(t, "https://api.github.com/user/repos?page=3", p.Next)
	require.Equal(t, "https://api.github.com/user/repos?page=1", p.Prev)
	require.Equal(t, "https://api.github.com/user/repos?page=1", p.First)
	require.Equal(t, "https://api.github.com/user/repos?page=9", p.Last)
}

func TestParsePaginationDefaults(t *testing.T) {
	p := parsePagination(http.Header{}, nil)
	require.Equal(t, 1, p.Page)
	require.Empty(t, p.Next)
}

func TestRetryAfterFromReset(t *testing.T) {
	now := time.Unix(1000, 0)

	t.Run("future reset", func(t *testing.T) {
		require.Equal(t, 42, retryAfterFromReset(1042, now))
	})

	t.Run("past reset floors at zero", func(t *testing.T) {
		require.Equal(t, 0, retryAfterFromReset(900, now))
	})

	t.Run("missing reset", func(t *testing.T) {
		require.Equal(t, 0, retryAfterFromReset(0, now))
	})
}

func TestParseRateLimitDistinguishesAbsentRemaining(t *testing.T) {
	withHeader := http.Header{}
	withHeader.Set("X-RateLimit-Remaining", "0")
	require.True(t, parseRateLimit(withHeader).hasRemaining)

	require.False(t, parseRateLimit(http.Header{}).hasRemaining)
}
