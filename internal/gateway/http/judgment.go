package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/reposcope/reposcope/internal/gateway/domain"
	"github.com/reposcope/reposcope/internal/gateway/service"
	"github.com/reposcope/reposcope/pkg/httpx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// judgmentRequest is the POST /v1/judgment body.
type judgmentRequest struct {
	Target domain.JudgmentTarget `json:"target"`
	Limits domain.ContextLimits  `json:"limits"`
}

// JudgmentHandler assembles a normalized context for the target and asks
// the model for a structured verdict.
type JudgmentHandler struct {
	Credentials *service.CredentialService
	Contexts    *service.ContextService
	Judge       *service.JudgeService
}

func (h *JudgmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req judgmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		invalidParams([]fieldError{{Field: "body", Message: "must be valid JSON"}}).Write(w)
		return
	}
	if fields := validateTarget(req.Target); len(fields) > 0 {
		invalidParams(fields).Write(w)
		return
	}

	userID := httpx.UserIDFromContext(ctx)
	if userID == 0 {
		httpx.ErrInternal.Write(w)
		return
	}

	token, err := h.Credentials.Resolve(ctx, userID)
	if err != nil {
		credentialError(r, err).Write(w)
		return
	}

	jctx, err := h.Contexts.Build(ctx, token, req.Target, req.Limits)
	if err != nil {
		var fetchErr *service.FetchError
		if errors.As(err, &fetchErr) {
			fetchError(fetchErr).Write(w)
			return
		}
		log.Error("judgment context assembly failed", "target", req.Target.String(), "err", err)
		httpx.NewAPIError(http.StatusBadGateway, CodeGitHubFetchFailed,
			"failed to assemble judgment context from upstream").Write(w)
		return
	}

	verdict, err := h.Judge.Judge(ctx, jctx)
	if err != nil {
		log.Error("judgment failed", "target", req.Target.String(), "err", err)
		httpx.NewAPIError(http.StatusBadGateway, CodeJudgmentFailed,
			"model judgment did not produce a valid verdict").Write(w)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, verdict, nil)
}

// validateTarget checks the target's type-specific required fields.
func validateTarget(t domain.JudgmentTarget) []fieldError {
	var fields []fieldError

	switch t.Type {
	case domain.TargetPullRequest, domain.TargetIssue:
		if t.Number <= 0 {
			fields = append(fields, fieldError{
				Field:   "target.number",
				Message: "must be a positive integer",
			})
		}
	case domain.TargetCommit:
		if strings.TrimSpace(t.SHA) == "" {
			fields = append(fields, fieldError{Field: "target.sha", Message: "is required"})
		}
	default:
		fields = append(fields, fieldError{
			Field:   "target.type",
			Message: "must be one of: pull_request, issue, commit",
		})
	}

	if _, err := pathSegment("target.owner", t.Owner); err != nil {
		fields = append(fields, *err)
	}
	if _, err := pathSegment("target.repo", t.Repo); err != nil {
		fields = append(fields, *err)
	}

	return fields
}
