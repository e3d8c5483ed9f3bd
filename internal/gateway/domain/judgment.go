package domain

import "fmt"

// Target types accepted by the judgment endpoint.
const (
	TargetPullRequest = "pull_request"
	TargetIssue       = "issue"
	TargetCommit      = "commit"
)

// JudgmentTarget identifies the object to be judged.
type JudgmentTarget struct {
	Type   string `json:"type"`
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number,omitempty"`
	SHA    string `json:"sha,omitempty"`
}

func (t JudgmentTarget) String() string {
	if t.Type == TargetCommit {
		return fmt.Sprintf("%s/%s@%s", t.Owner, t.Repo, t.SHA)
	}
	return fmt.Sprintf("%s/%s#%d", t.Owner, t.Repo, t.Number)
}

// ContextLimits bound the size of a judgment context. Zero values fall back
// to the defaults below.
type ContextLimits struct {
	MaxReviews        int `json:"maxReviews,omitempty"`
	MaxComments       int `json:"maxComments,omitempty"`
	MaxFiles          int `json:"maxFiles,omitempty"`
	MaxCommits        int `json:"maxCommits,omitempty"`
	MaxCommitComments int `json:"maxCommitComments,omitempty"`
	PatchCharLimit    int `json:"patchCharacterLimit,omitempty"`
}

// Default collection caps and patch truncation bound.
const (
	DefaultMaxReviews        = 40
	DefaultMaxComments       = 50
	DefaultMaxFiles          = 60
	DefaultMaxCommits        = 50
	DefaultMaxCommitComments = 30
	DefaultPatchCharLimit    = 8000

	// PatchTruncationMarker is appended to any patch cut at the limit.
	PatchTruncationMarker = "\n... [patch truncated]"
)

// WithDefaults fills unset limits with their defaults.
func (l ContextLimits) WithDefaults() ContextLimits {
	if l.MaxReviews <= 0 {
		l.MaxReviews = DefaultMaxReviews
	}
	if l.MaxComments <= 0 {
		l.MaxComments = DefaultMaxComments
	}
	if l.MaxFiles <= 0 {
		l.MaxFiles = DefaultMaxFiles
	}
	if l.MaxCommits <= 0 {
		l.MaxCommits = DefaultMaxCommits
	}
	if l.MaxCommitComments <= 0 {
		l.MaxCommitComments = DefaultMaxCommitComments
	}
	if l.PatchCharLimit <= 0 {
		l.PatchCharLimit = DefaultPatchCharLimit
	}
	return l
}

// JudgmentContext is the normalized, size-bounded bundle sent to the model.
// Field names are stable and decoupled from the upstream API's raw shape.
type JudgmentContext struct {
	Target JudgmentTarget `json:"target"`

	PullRequest *NormalizedPullRequest `json:"pullRequest,omitempty"`
	Issue       *NormalizedIssue       `json:"issue,omitempty"`
	Commit      *NormalizedCommit      `json:"commit,omitempty"`

	Reviews  []NormalizedReview  `json:"reviews,omitempty"`
	Files    []NormalizedFile    `json:"files,omitempty"`
	Comments []NormalizedComment `json:"comments,omitempty"`
	Commits  []NormalizedCommit  `json:"commits,omitempty"`
}

// NormalizedPullRequest flattens the upstream pull request shape.
type NormalizedPullRequest struct {
	Number       int    `json:"number"`
	Title        string `json:"title"`
	Body         string `json:"body,omitempty"`
	State        string `json:"state"`
	AuthorLogin  string `json:"authorLogin"`
	BaseRef      string `json:"baseRef"`
	HeadRef      string `json:"headRef"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	ChangedFiles int    `json:"changedFiles"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
	MergedAt     string `json:"mergedAt,omitempty"`
}

// NormalizedIssue flattens the upstream issue shape.
type NormalizedIssue struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Body        string   `json:"body,omitempty"`
	State       string   `json:"state"`
	AuthorLogin string   `json:"authorLogin"`
	Labels      []string `json:"labels,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// NormalizedCommit flattens one commit, optionally with its file list.
type NormalizedCommit struct {
	SHA         string           `json:"sha"`
	Message     string           `json:"message"`
	AuthorLogin string           `json:"authorLogin,omitempty"`
	AuthorName  string           `json:"authorName,omitempty"`
	AuthoredAt  string           `json:"authoredAt,omitempty"`
	CommittedAt string           `json:"committedAt,omitempty"`
	Files       []NormalizedFile `json:"files,omitempty"`
}

// NormalizedReview is one pull request review.
type NormalizedReview struct {
	AuthorLogin string `json:"authorLogin"`
	State       string `json:"state"`
	Body        string `json:"body,omitempty"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}

// NormalizedFile is one changed file with a possibly truncated diff patch.
type NormalizedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch,omitempty"`
}

// NormalizedComment is one issue/commit comment.
type NormalizedComment struct {
	AuthorLogin string `json:"authorLogin"`
	Body        string `json:"body"`
	CreatedAt   string `json:"createdAt,omitempty"`
}
