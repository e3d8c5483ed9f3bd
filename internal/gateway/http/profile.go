package http

import (
	"net/http"
	"net/url"

	"github.com/reposcope/reposcope/internal/gateway/cache"
)

// ProfileHandler proxies the authenticated user's own profile. It uses the
// tighter profile TTL since clients poll it to render identity state.
type ProfileHandler struct {
	Proxy *Proxy
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Proxy.Serve(w, r, "me", "/user", url.Values{}, cache.ProfileTTL)
}
