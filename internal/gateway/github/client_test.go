package github

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testClient returns a client against the given server with deterministic
// timing: recorded sleeps and zero jitter.
func testClient(server *httptest.Server, sleeps *[]time.Duration) *Client {
	c := NewClient()
	c.BaseURL = server.URL
	c.Sleep = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	c.Jitter = func(int) time.Duration { return 0 }
	c.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return c
}

func TestDoSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		require.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"login":"octocat"}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"login":"octocat"}`, string(res.Data))
	require.Equal(t, 5000, res.RateLimit.Limit)
	require.Equal(t, 4999, res.RateLimit.Remaining)
	require.Empty(t, sleeps, "no retry should happen on success")
}

func TestDoRetriesServerErrorsWithExponentialBackoff(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{300 * time.Millisecond, 600 * time.Millisecond}, sleeps)
}

func TestDoExhaustsRetriesOnPersistentServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Equal(t, DefaultMaxRetries+1, calls)
	require.Len(t, sleeps, DefaultMaxRetries, "no sleep after the final attempt")
}

func TestDoRetriesRateLimitUsingRetryAfter(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []time.Duration{2 * time.Second}, sleeps)
}

func TestDoDerivesRetryAfterFromResetStamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(30*time.Second).Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)
	c.MaxRetries = 0

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 30, res.RateLimit.RetryAfter)
}

func TestDoTreatsForbiddenWithZeroRemainingAsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)
	c.MaxRetries = 0

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.True(t, res.RateLimited())
}

func TestDoPlainForbiddenIsNotRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	res, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok"})
	require.NoError(t, err)
	require.False(t, res.RateLimited())
	require.Equal(t, 1, calls, "permanent 4xx should not retry")
	require.Empty(t, sleeps)
}

func TestDoDoesNotRetryNotFound(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	res, err := c.Do(t.Context(), Request{Path: "/repos/a/b", Token: "tok"})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "Not Found", res.ErrorMessage())
}

func TestDoPerRequestRetryOverride(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	zero := 0
	_, err := c.Do(t.Context(), Request{Path: "/user", Token: "tok", MaxRetries: &zero})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDoDropsEmptyQueryValues(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	c := testClient(server, &sleeps)

	query := url.Values{}
	query.Set("state", "open")
	query.Set("sort", "")

	_, err := c.Do(t.Context(), Request{Path: "/repos/a/b/issues", Token: "tok", Query: query})
	require.NoError(t, err)
	require.Equal(t, "open", gotQuery.Get("state"))
	require.False(t, gotQuery.Has("sort"))
}
