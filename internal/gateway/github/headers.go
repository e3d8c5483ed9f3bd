package github

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RateLimit is the quota snapshot parsed from one upstream response. It is
// recomputed from the latest headers on every call, never persisted.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
	// RetryAfter is in seconds; zero means the upstream gave no advice.
	RetryAfter int `json:"retryAfter"`

	// hasRemaining distinguishes "remaining is 0" from "header absent",
	// which matters for the 403-as-rate-limit decision.
	hasRemaining bool
}

// Pagination holds the parsed Link-header relations plus the page number
// this request asked for.
type Pagination struct {
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Page  int    `json:"page"`
}

func parseRateLimit(h http.Header) RateLimit {
	rl := RateLimit{}

	if v := h.Get("X-RateLimit-Limit"); v != "" {
		rl.Limit, _ = strconv.Atoi(v)
	}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rl.Remaining = n
			rl.hasRemaining = true
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		rl.Reset, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := h.Get("Retry-After"); v != "" {
		rl.RetryAfter, _ = strconv.Atoi(v)
	}

	return rl
}

// retryAfterFromReset derives a wait in seconds from a reset timestamp,
// floored at zero.
func retryAfterFromReset(reset int64, now time.Time) int {
	if reset <= 0 {
		return 0
	}
	secs := reset - now.Unix()
	if secs < 0 {
		return 0
	}
	return int(secs)
}

// parsePagination extracts the RFC 5988 Link relations GitHub sends on list
// endpoints, e.g.
//
//	<https://api.github.com/user/repos?page=3>; rel="next", <...>; rel="last"
func parsePagination(h http.Header, query url.Values) Pagination {
	p := Pagination{Page: 1}
	if v := query.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}

	link := h.Get("Link")
	if link == "" {
		return p
	}

	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}

		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")

		for _, seg := range segments[1:] {
			seg = strings.TrimSpace(seg)
			rel, ok := strings.CutPrefix(seg, `rel="`)
			if !ok {
				continue
			}
			switch strings.TrimSuffix(rel, `"`) {
			case "next":
				p.Next = target
			case "prev":
				p.Prev = target
			case "first":
				p.First = target
			case "last":
				p.Last = target
			}
		}
	}

	return p
}
