package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/reposcope/reposcope/internal/gateway/domain"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// ErrJudgmentFailed wraps every model-side failure: transport errors,
// empty responses, unparseable output and verdicts outside the closed
// decision set. Callers never see partial or malformed verdicts.
var ErrJudgmentFailed = errors.New("judgment_failed")

const (
	// DefaultJudgmentMaxTokens bounds the verdict response size.
	DefaultJudgmentMaxTokens = 2048

	// judgmentTemperature keeps verdicts near-deterministic for the same
	// context.
	judgmentTemperature = 0.1
)

const judgmentSystemPrompt = `You are a senior code reviewer judging a GitHub artifact. You receive a JSON context describing a pull request, issue, or commit, including diffs, reviews, and discussion. Return ONLY a JSON object with these fields:
- "decision": one of "approve", "request_changes", "reject"
- "confidence": a number between 0 and 1
- "summary": a 1-3 sentence overall assessment
- "findings": array of strings, concrete observations about the change
- "risks": array of strings, potential problems or regressions
- "recommendations": array of strings, actionable next steps

Rules:
- Base the judgment only on the provided context, never invent details
- Diff patches may be truncated; a "[patch truncated]" marker means the full diff was larger
- "approve" means the change is safe to merge or close as-is
- "request_changes" means the change is salvageable but needs work
- "reject" means the change should not proceed in its current form
- Return valid JSON only, no markdown fencing or explanation`

// messageAPI is the slice of the Anthropic client the judge needs,
// satisfied by anthropic.MessageService.
type messageAPI interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// JudgeService sends a normalized judgment context to the model and
// validates the structured verdict it returns.
type JudgeService struct {
	API       messageAPI
	Model     anthropic.Model
	MaxTokens int64
}

// NewJudgeService builds a judge backed by the Anthropic API.
func NewJudgeService(apiKey, model string) (*JudgeService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("judge: api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("judge: model is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &JudgeService{
		API:       &client.Messages,
		Model:     anthropic.Model(model),
		MaxTokens: DefaultJudgmentMaxTokens,
	}, nil
}

// Judge invokes the model once and returns the validated verdict. Any
// failure comes back wrapped in ErrJudgmentFailed.
func (s *JudgeService) Judge(ctx context.Context, jctx *domain.JudgmentContext) (*domain.Verdict, error) {
	log := slogx.FromContext(ctx)

	userPrompt, err := buildJudgmentPrompt(jctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgmentFailed, err)
	}

	msg, err := s.API.New(ctx, anthropic.MessageNewParams{
		Model:       s.Model,
		MaxTokens:   s.MaxTokens,
		Temperature: anthropic.Float(judgmentTemperature),
		System: []anthropic.TextBlockParam{
			{Text: judgmentSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: model invocation: %v", ErrJudgmentFailed, err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: no text content in model response", ErrJudgmentFailed)
	}

	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(stripFences(text)), &verdict); err != nil {
		return nil, fmt.Errorf("%w: parse model response: %v", ErrJudgmentFailed, err)
	}
	if err := verdict.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgmentFailed, err)
	}

	// The model may echo a partial target; the request's is authoritative.
	verdict.Target = jctx.Target

	log.Info("judgment completed",
		"target", jctx.Target.String(),
		"decision", verdict.Decision,
		"confidence", verdict.Confidence,
	)

	return &verdict, nil
}

// buildJudgmentPrompt serializes the context deterministically so repeated
// requests over identical contexts produce identical prompts.
func buildJudgmentPrompt(jctx *domain.JudgmentContext) (string, error) {
	raw, err := json.MarshalIndent(jctx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize judgment context: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("Judge the following ")
	sb.WriteString(jctx.Target.Type)
	sb.WriteString(" (")
	sb.WriteString(jctx.Target.String())
	sb.WriteString("):\n\n")
	sb.Write(raw)
	return sb.String(), nil
}

// stripFences removes a markdown code fence wrapper if the model added one
// despite the prompt.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
