package http

import (
	"net/http"
	"strings"

	"github.com/reposcope/reposcope/internal/gateway/service"
	"github.com/reposcope/reposcope/pkg/httpx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// LoginHandler starts the OAuth flow by handing the client the upstream
// authorize URL plus the state nonce it must send back.
type LoginHandler struct {
	LoginService *service.LoginService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.LoginService.LoginRedirectURL()
	if err != nil {
		slogx.FromContext(r.Context()).Error("build login redirect", "err", err)
		httpx.ErrInternal.Write(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, redirect, nil)
}

// CallbackHandler completes the OAuth flow: it exchanges the authorization
// code and returns a session token plus the upstream profile.
type CallbackHandler struct {
	LoginService *service.LoginService
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		invalidParams([]fieldError{{Field: "code", Message: "is required"}}).Write(w)
		return
	}

	session, err := h.LoginService.HandleCallback(ctx, code)
	if err != nil {
		log.Error("oauth callback failed", "err", err)
		httpx.NewAPIError(http.StatusUnauthorized, CodeCredentialInvalid,
			"authorization code exchange failed").Write(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteSuccess(w, http.StatusOK, session, nil)
}
