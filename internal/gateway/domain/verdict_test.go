package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerdictValidate(t *testing.T) {
	base := Verdict{Decision: DecisionApprove, Confidence: 0.5}

	t.Run("valid decisions", func(t *testing.T) {
		for _, d := range []string{DecisionApprove, DecisionRequestChanges, DecisionReject} {
			v := base
			v.Decision = d
			require.NoError(t, v.Validate())
		}
	})

	t.Run("unknown decision", func(t *testing.T) {
		v := base
		v.Decision = "maybe"
		require.Error(t, v.Validate())
	})

	t.Run("confidence bounds", func(t *testing.T) {
		for _, c := range []float64{0, 0.5, 1} {
			v := base
			v.Confidence = c
			require.NoError(t, v.Validate())
		}
		for _, c := range []float64{-0.1, 1.1} {
			v := base
			v.Confidence = c
			require.Error(t, v.Validate())
		}
	})
}

func TestContextLimitsWithDefaults(t *testing.T) {
	t.Run("zero values get defaults", func(t *testing.T) {
		l := ContextLimits{}.WithDefaults()
		require.Equal(t, DefaultMaxReviews, l.MaxReviews)
		require.Equal(t, DefaultMaxComments, l.MaxComments)
		require.Equal(t, DefaultMaxFiles, l.MaxFiles)
		require.Equal(t, DefaultMaxCommits, l.MaxCommits)
		require.Equal(t, DefaultMaxCommitComments, l.MaxCommitComments)
		require.Equal(t, DefaultPatchCharLimit, l.PatchCharLimit)
	})

	t.Run("explicit values survive", func(t *testing.T) {
		l := ContextLimits{MaxFiles: 3, PatchCharLimit: 100}.WithDefaults()
		require.Equal(t, 3, l.MaxFiles)
		require.Equal(t, 100, l.PatchCharLimit)
		require.Equal(t, DefaultMaxReviews, l.MaxReviews)
	})
}

func TestJudgmentTargetString(t *testing.T) {
	pr := JudgmentTarget{Type: TargetPullRequest, Owner: "octo", Repo: "widgets", Number: 7}
	require.Equal(t, "octo/widgets#7", pr.String())

	commit := JudgmentTarget{Type: TargetCommit, Owner: "octo", Repo: "widgets", SHA: "deadbeef"}
	require.Equal(t, "octo/widgets@deadbeef", commit.String())
}
