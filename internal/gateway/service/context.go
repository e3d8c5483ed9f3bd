package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/reposcope/reposcope/internal/gateway/domain"
	"github.com/reposcope/reposcope/internal/gateway/github"
	"golang.org/x/sync/errgroup"
)

// FetchError is an upstream failure while assembling a judgment context. It
// carries the failing path plus the upstream status and payload so the
// caller can report exactly what broke.
type FetchError struct {
	Path       string
	StatusCode int
	Payload    any
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("upstream fetch %s returned status %d", e.Path, e.StatusCode)
}

// ContextService builds normalized, size-bounded judgment contexts. All
// upstream access goes through the shared executor so retry and rate-limit
// behavior is uniform.
type ContextService struct {
	Client *github.Client
}

// Build fetches the target and its related objects and flattens them into
// one bounded record. Collections are truncated to the configured caps and
// diff patches to the character limit.
func (s *ContextService) Build(
	ctx context.Context,
	token string,
	target domain.JudgmentTarget,
	limits domain.ContextLimits,
) (*domain.JudgmentContext, error) {
	limits = limits.WithDefaults()

	switch target.Type {
	case domain.TargetPullRequest:
		return s.buildPullRequest(ctx, token, target, limits)
	case domain.TargetIssue:
		return s.buildIssue(ctx, token, target, limits)
	case domain.TargetCommit:
		return s.buildCommit(ctx, token, target, limits)
	default:
		return nil, fmt.Errorf("unsupported target type %q", target.Type)
	}
}

func (s *ContextService) buildPullRequest(
	ctx context.Context,
	token string,
	target domain.JudgmentTarget,
	limits domain.ContextLimits,
) (*domain.JudgmentContext, error) {
	base := fmt.Sprintf("/repos/%s/%s/pulls/%d", target.Owner, target.Repo, target.Number)

	var pull rawPullRequest
	if err := s.fetch(ctx, token, base, nil, &pull); err != nil {
		return nil, err
	}

	// The four auxiliary fetches are independent once the target is known.
	var (
		reviews  []rawReview
		files    []rawFile
		comments []rawComment
		commits  []rawCommit
	)

	listQuery := url.Values{"per_page": []string{"100"}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.fetch(gctx, token, base+"/reviews", listQuery, &reviews)
	})
	g.Go(func() error {
		return s.fetch(gctx, token, base+"/files", listQuery, &files)
	})
	g.Go(func() error {
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", target.Owner, target.Repo, target.Number)
		return s.fetch(gctx, token, path, listQuery, &comments)
	})
	g.Go(func() error {
		return s.fetch(gctx, token, base+"/commits", listQuery, &commits)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	jctx := &domain.JudgmentContext{
		Target:      target,
		PullRequest: pull.normalize(),
	}
	for _, r := range truncate(reviews, limits.MaxReviews) {
		jctx.Reviews = append(jctx.Reviews, r.normalize())
	}
	for _, f := range truncate(files, limits.MaxFiles) {
		jctx.Files = append(jctx.Files, f.normalize(limits.PatchCharLimit))
	}
	for _, c := range truncate(comments, limits.MaxComments) {
		jctx.Comments = append(jctx.Comments, c.normalize())
	}
	for _, c := range truncate(commits, limits.MaxCommits) {
		jctx.Commits = append(jctx.Commits, c.normalize(0, 0))
	}

	return jctx, nil
}

func (s *ContextService) buildIssue(
	ctx context.Context,
	token string,
	target domain.JudgmentTarget,
	limits domain.ContextLimits,
) (*domain.JudgmentContext, error) {
	base := fmt.Sprintf("/repos/%s/%s/issues/%d", target.Owner, target.Repo, target.Number)

	var issue rawIssue
	if err := s.fetch(ctx, token, base, nil, &issue); err != nil {
		return nil, err
	}

	var comments []rawComment
	listQuery := url.Values{"per_page": []string{"100"}}
	if err := s.fetch(ctx, token, base+"/comments", listQuery, &comments); err != nil {
		return nil, err
	}

	jctx := &domain.JudgmentContext{
		Target: target,
		Issue:  issue.normalize(),
	}
	for _, c := range truncate(comments, limits.MaxComments) {
		jctx.Comments = append(jctx.Comments, c.normalize())
	}

	return jctx, nil
}

func (s *ContextService) buildCommit(
	ctx context.Context,
	token string,
	target domain.JudgmentTarget,
	limits domain.ContextLimits,
) (*domain.JudgmentContext, error) {
	base := fmt.Sprintf("/repos/%s/%s/commits/%s", target.Owner, target.Repo, target.SHA)

	var commit rawCommit
	if err := s.fetch(ctx, token, base, nil, &commit); err != nil {
		return nil, err
	}

	var comments []rawComment
	listQuery := url.Values{"per_page": []string{"100"}}
	if err := s.fetch(ctx, token, base+"/comments", listQuery, &comments); err != nil {
		return nil, err
	}

	normalized := commit.normalize(limits.MaxFiles, limits.PatchCharLimit)
	jctx := &domain.JudgmentContext{
		Target: target,
		Commit: &normalized,
	}
	for _, c := range truncate(comments, limits.MaxCommitComments) {
		jctx.Comments = append(jctx.Comments, c.normalize())
	}

	return jctx, nil
}

// fetch runs one executor call and decodes a successful JSON body into out.
// Upstream failures become FetchErrors; transport failures pass through.
func (s *ContextService) fetch(
	ctx context.Context,
	token, path string,
	query url.Values,
	out any,
) error {
	res, err := s.Client.Do(ctx, github.Request{Path: path, Token: token, Query: query})
	if err != nil {
		return err
	}
	if !res.Success {
		return &FetchError{Path: path, StatusCode: res.StatusCode, Payload: res.ErrorPayload()}
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func truncate[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}

// truncatePatch cuts a diff patch at the character limit, appending the
// marker so the model knows the diff is partial.
func truncatePatch(patch string, limit int) string {
	if len(patch) <= limit {
		return patch
	}
	return patch[:limit] + domain.PatchTruncationMarker
}
