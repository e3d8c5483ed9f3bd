package service

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/reposcope/reposcope/internal/gateway/domain"
)

type fakeMessageAPI struct {
	response string
	err      error

	gotParams anthropic.MessageNewParams
}

func (f *fakeMessageAPI) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	f.gotParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.response}},
	}, nil
}

func testJudgmentContext() *domain.JudgmentContext {
	return &domain.JudgmentContext{
		Target: domain.JudgmentTarget{
			Type:   domain.TargetPullRequest,
			Owner:  "octo",
			Repo:   "widgets",
			Number: 7,
		},
		PullRequest: &domain.NormalizedPullRequest{Number: 7, Title: "Add frobnicator", State: "open"},
	}
}

func TestJudgeParsesVerdict(t *testing.T) {
	api := &fakeMessageAPI{response: `{
		"decision": "approve",
		"confidence": 0.9,
		"summary": "Small, well-tested change.",
		"findings": ["adds one function"],
		"risks": [],
		"recommendations": ["merge"]
	}`}
	svc := &JudgeService{API: api, Model: "test-model", MaxTokens: 1024}

	verdict, err := svc.Judge(t.Context(), testJudgmentContext())
	require.NoError(t, err)
	require.Equal(t, domain.DecisionApprove, verdict.Decision)
	require.InDelta(t, 0.9, verdict.Confidence, 1e-9)
	require.Equal(t, "octo", verdict.Target.Owner, "verdict echoes the requested target")

	require.Equal(t, anthropic.Model("test-model"), api.gotParams.Model)
	require.Equal(t, int64(1024), api.gotParams.MaxTokens)
}

func TestJudgeStripsMarkdownFences(t *testing.T) {
	api := &fakeMessageAPI{response: "```json\n" +
		`{"decision":"request_changes","confidence":0.5,"summary":"needs tests"}` +
		"\n```"}
	svc := &JudgeService{API: api, Model: "test-model", MaxTokens: 1024}

	verdict, err := svc.Judge(t.Context(), testJudgmentContext())
	require.NoError(t, err)
	require.Equal(t, domain.DecisionRequestChanges, verdict.Decision)
}

func TestJudgeRejectsInvalidDecision(t *testing.T) {
	api := &fakeMessageAPI{response: `{"decision":"maybe","confidence":0.5,"summary":"?"}`}
	svc := &JudgeService{API: api, Model: "test-model", MaxTokens: 1024}

	_, err := svc.Judge(t.Context(), testJudgmentContext())
	require.ErrorIs(t, err, ErrJudgmentFailed)
}

func TestJudgeRejectsConfidenceOutOfRange(t *testing.T) {
	api := &fakeMessageAPI{response: `{"decision":"approve","confidence":1.5,"summary":"x"}`}
	svc := &JudgeService{API: api, Model: "test-model", MaxTokens: 1024}

	_, err := svc.Judge(t.Context(), testJudgmentContext())
	require.ErrorIs(t, err, ErrJudgmentFailed)
}

func TestJudgeRejectsNonJSONResponse(t *testing.T) {
	api := &fakeMessageAPI{response: "I think this looks good overall!"}
	svc := &JudgeService{API: api, Model: "test-model", MaxTokens: 1024}

	_, err := svc.Judge(t.Context(), testJudgmentContext())
	require.ErrorIs(t, err, ErrJudgmentFailed)
}

func TestJudgeWrapsInvocationError(t *testing.T) {
	api := &fakeMessageAPI{err: errors.New("boom")}
	svc := &JudgeService{API: api, Model: "test-model", MaxTokens: 1024}

	_, err := svc.Judge(t.Context(), testJudgmentContext())
	require.ErrorIs(t, err, ErrJudgmentFailed)
}

func TestNewJudgeServiceRequiresConfig(t *testing.T) {
	_, err := NewJudgeService("", "model")
	require.Error(t, err)

	_, err = NewJudgeService("key", "")
	require.Error(t, err)
}
