package http

import (
	"fmt"
	"net/http"

	"github.com/reposcope/reposcope/internal/gateway/cache"
)

// IssuesHandler proxies a repository's issue listing.
type IssuesHandler struct {
	Proxy *Proxy
}

var issueListRules = queryRules{
	enums: map[string][]string{
		"state":     {"open", "closed", "all"},
		"sort":      {"created", "updated", "comments"},
		"direction": {"asc", "desc"},
	},
	passthrough: []string{"labels", "creator", "assignee", "since"},
	paged:       true,
}

func (h *IssuesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner, repo, fields := ownerRepo(r)
	query, queryFields := issueListRules.parse(r.URL.Query())
	fields = append(fields, queryFields...)
	if len(fields) > 0 {
		invalidParams(fields).Write(w)
		return
	}

	path := fmt.Sprintf("/repos/%s/%s/issues", owner, repo)
	h.Proxy.Serve(w, r, repoNamespace("issues", owner, repo), path, query, cache.DefaultTTL)
}
