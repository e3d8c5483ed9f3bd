package http

import (
	"net/http"
	"strconv"

	"github.com/reposcope/reposcope/internal/gateway/github"
)

// Meta is the envelope metadata block for proxied endpoints: the upstream
// quota snapshot and, on list endpoints, the parsed pagination links.
type Meta struct {
	Pagination *github.Pagination `json:"pagination,omitempty"`
	RateLimit  *github.RateLimit  `json:"rateLimit,omitempty"`
}

// Cache state header values.
const (
	headerCache = "X-Cache"
	cacheHit    = "HIT"
	cacheMiss   = "MISS"
)

func metaFromResult(res *github.Result) *Meta {
	rl := res.RateLimit
	m := &Meta{RateLimit: &rl}
	if res.Pagination.Next != "" || res.Pagination.Prev != "" ||
		res.Pagination.Last != "" || res.Pagination.Page > 1 {
		p := res.Pagination
		m.Pagination = &p
	}
	return m
}

// writeMetaHeaders mirrors the metadata block into response headers so
// clients that never parse the envelope still see quota and paging state.
func writeMetaHeaders(w http.ResponseWriter, meta *Meta) {
	if meta == nil {
		return
	}
	if rl := meta.RateLimit; rl != nil {
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(rl.Reset, 10))
		if rl.RetryAfter > 0 {
			h.Set("Retry-After", strconv.Itoa(rl.RetryAfter))
		}
	}
	if p := meta.Pagination; p != nil {
		h := w.Header()
		h.Set("X-Page", strconv.Itoa(p.Page))
		if p.Next != "" {
			h.Set("X-Next-Page", p.Next)
		}
		if p.Prev != "" {
			h.Set("X-Prev-Page", p.Prev)
		}
	}
}
