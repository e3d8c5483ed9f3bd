package http

import (
	"fmt"
	"net/http"

	"github.com/reposcope/reposcope/internal/gateway/cache"
)

// PullsHandler proxies a repository's pull request listing.
type PullsHandler struct {
	Proxy *Proxy
}

var pullListRules = queryRules{
	enums: map[string][]string{
		"state":     {"open", "closed", "all"},
		"sort":      {"created", "updated", "popularity", "long-running"},
		"direction": {"asc", "desc"},
	},
	passthrough: []string{"head", "base"},
	paged:       true,
}

func (h *PullsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner, repo, fields := ownerRepo(r)
	query, queryFields := pullListRules.parse(r.URL.Query())
	fields = append(fields, queryFields...)
	if len(fields) > 0 {
		invalidParams(fields).Write(w)
		return
	}

	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, repo)
	h.Proxy.Serve(w, r, repoNamespace("pulls", owner, repo), path, query, cache.DefaultTTL)
}
