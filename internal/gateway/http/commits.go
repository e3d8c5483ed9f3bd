package http

import (
	"fmt"
	"net/http"

	"github.com/reposcope/reposcope/internal/gateway/cache"
)

// CommitsHandler proxies a repository's commit listing.
type CommitsHandler struct {
	Proxy *Proxy
}

var commitListRules = queryRules{
	passthrough: []string{"sha", "path", "author", "since", "until"},
	paged:       true,
}

func (h *CommitsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner, repo, fields := ownerRepo(r)
	query, queryFields := commitListRules.parse(r.URL.Query())
	fields = append(fields, queryFields...)
	if len(fields) > 0 {
		invalidParams(fields).Write(w)
		return
	}

	path := fmt.Sprintf("/repos/%s/%s/commits", owner, repo)
	h.Proxy.Serve(w, r, repoNamespace("commits", owner, repo), path, query, cache.DefaultTTL)
}
