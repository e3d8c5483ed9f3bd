package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/cache"
	"github.com/reposcope/reposcope/internal/gateway/github"
	"github.com/reposcope/reposcope/internal/gateway/service"
	"github.com/reposcope/reposcope/pkg/httpx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// Proxy is the shared read-through pipeline behind every GET endpoint:
// resolve the caller's upstream credential, consult the response cache,
// execute upstream on a miss and memoize the successful result.
type Proxy struct {
	Credentials *service.CredentialService
	Client      *github.Client
	Cache       *cache.Cache
}

// cachedResponse is what one cache entry holds. Only successful responses
// are stored; failures always pass through live.
type cachedResponse struct {
	Data json.RawMessage
	Meta *Meta
}

// Serve handles one proxied GET. namespace scopes the cache key, query must
// already be validated and canonical.
func (p *Proxy) Serve(
	w http.ResponseWriter,
	r *http.Request,
	namespace, upstreamPath string,
	query url.Values,
	ttl time.Duration,
) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)
	if userID == 0 {
		httpx.ErrInternal.Write(w)
		return
	}

	token, err := p.Credentials.Resolve(ctx, userID)
	if err != nil {
		credentialError(r, err).Write(w)
		return
	}

	key := cache.Key(namespace, userID, query)
	if v, ok := p.Cache.Get(key); ok {
		cached := v.(cachedResponse)
		writeMetaHeaders(w, cached.Meta)
		w.Header().Set(headerCache, cacheHit)
		httpx.WriteSuccess(w, http.StatusOK, cached.Data, cached.Meta)
		return
	}

	res, err := p.Client.Do(ctx, github.Request{Path: upstreamPath, Token: token, Query: query})
	if err != nil {
		slogx.FromContext(ctx).Error("upstream request failed", "path", upstreamPath, "err", err)
		httpx.NewAPIError(http.StatusBadGateway, CodeGitHubFetchFailed,
			"upstream request failed").Write(w)
		return
	}

	meta := metaFromResult(res)
	if !res.Success {
		writeMetaHeaders(w, meta)
		upstreamError(res).Write(w)
		return
	}

	p.Cache.Set(key, cachedResponse{Data: res.Data, Meta: meta}, ttl)

	writeMetaHeaders(w, meta)
	w.Header().Set(headerCache, cacheMiss)
	httpx.WriteSuccess(w, http.StatusOK, res.Data, meta)
}
