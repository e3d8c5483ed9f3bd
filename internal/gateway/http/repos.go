package http

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/reposcope/reposcope/internal/gateway/cache"
)

// ReposHandler proxies the caller's repository listing.
type ReposHandler struct {
	Proxy *Proxy
}

var repoListRules = queryRules{
	enums: map[string][]string{
		"visibility": {"all", "public", "private"},
		"type":       {"all", "owner", "public", "private", "member"},
		"sort":       {"created", "updated", "pushed", "full_name"},
		"direction":  {"asc", "desc"},
	},
	paged: true,
}

func (h *ReposHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query, fields := repoListRules.parse(r.URL.Query())
	if len(fields) > 0 {
		invalidParams(fields).Write(w)
		return
	}

	h.Proxy.Serve(w, r, "me/repos", "/user/repos", query, cache.DefaultTTL)
}

// RepoHandler proxies a single repository lookup.
type RepoHandler struct {
	Proxy *Proxy
}

func (h *RepoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner, repo, fields := ownerRepo(r)
	if len(fields) > 0 {
		invalidParams(fields).Write(w)
		return
	}

	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	h.Proxy.Serve(w, r, repoNamespace("repo", owner, repo), path, url.Values{}, cache.DefaultTTL)
}

// repoNamespace scopes a cache namespace to one repository so entries for
// different repositories never share a key.
func repoNamespace(kind, owner, repo string) string {
	return fmt.Sprintf("%s:%s/%s", kind, owner, repo)
}

// ownerRepo pulls and validates the {owner} and {repo} path values.
func ownerRepo(r *http.Request) (owner, repo string, fields []fieldError) {
	owner, ownerErr := pathSegment("owner", r.PathValue("owner"))
	if ownerErr != nil {
		fields = append(fields, *ownerErr)
	}
	repo, repoErr := pathSegment("repo", r.PathValue("repo"))
	if repoErr != nil {
		fields = append(fields, *repoErr)
	}
	return owner, repo, fields
}
