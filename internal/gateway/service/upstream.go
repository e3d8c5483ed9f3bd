package service

import (
	"strings"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/domain"
)

// Raw upstream shapes, decoded only at this boundary. Everything the rest
// of the system sees is the normalized domain form, so upstream schema
// drift stays contained here.

type rawActor struct {
	Login string `json:"login"`
}

type rawRef struct {
	Ref string `json:"ref"`
}

type rawPullRequest struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	State        string     `json:"state"`
	User         rawActor   `json:"user"`
	Base         rawRef     `json:"base"`
	Head         rawRef     `json:"head"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at"`
}

func (p *rawPullRequest) normalize() *domain.NormalizedPullRequest {
	out := &domain.NormalizedPullRequest{
		Number:       p.Number,
		Title:        p.Title,
		Body:         p.Body,
		State:        p.State,
		AuthorLogin:  p.User.Login,
		BaseRef:      p.Base.Ref,
		HeadRef:      p.Head.Ref,
		Additions:    p.Additions,
		Deletions:    p.Deletions,
		ChangedFiles: p.ChangedFiles,
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
	if p.MergedAt != nil {
		out.MergedAt = formatTime(*p.MergedAt)
	}
	return out
}

type rawIssue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	State     string     `json:"state"`
	User      rawActor   `json:"user"`
	Labels    []rawLabel `json:"labels"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type rawLabel struct {
	Name string `json:"name"`
}

func (i *rawIssue) normalize() *domain.NormalizedIssue {
	out := &domain.NormalizedIssue{
		Number:      i.Number,
		Title:       i.Title,
		Body:        i.Body,
		State:       i.State,
		AuthorLogin: i.User.Login,
		CreatedAt:   formatTime(i.CreatedAt),
		UpdatedAt:   formatTime(i.UpdatedAt),
	}
	for _, l := range i.Labels {
		if strings.TrimSpace(l.Name) != "" {
			out.Labels = append(out.Labels, l.Name)
		}
	}
	return out
}

type rawReview struct {
	User        rawActor  `json:"user"`
	State       string    `json:"state"`
	Body        string    `json:"body"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (r *rawReview) normalize() domain.NormalizedReview {
	return domain.NormalizedReview{
		AuthorLogin: r.User.Login,
		State:       r.State,
		Body:        r.Body,
		SubmittedAt: formatTime(r.SubmittedAt),
	}
}

type rawFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

func (f *rawFile) normalize(patchLimit int) domain.NormalizedFile {
	return domain.NormalizedFile{
		Filename:  f.Filename,
		Status:    f.Status,
		Additions: f.Additions,
		Deletions: f.Deletions,
		Patch:     truncatePatch(f.Patch, patchLimit),
	}
}

type rawComment struct {
	User      rawActor  `json:"user"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *rawComment) normalize() domain.NormalizedComment {
	return domain.NormalizedComment{
		AuthorLogin: c.User.Login,
		Body:        c.Body,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

type rawCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
	Author rawActor  `json:"author"`
	Files  []rawFile `json:"files"`
}

// normalize flattens one commit. maxFiles <= 0 drops the file list, which
// is what the pull request commit listing wants.
func (c *rawCommit) normalize(maxFiles, patchLimit int) domain.NormalizedCommit {
	out := domain.NormalizedCommit{
		SHA:         c.SHA,
		Message:     c.Commit.Message,
		AuthorLogin: c.Author.Login,
		AuthorName:  c.Commit.Author.Name,
		AuthoredAt:  formatTime(c.Commit.Author.Date),
		CommittedAt: formatTime(c.Commit.Committer.Date),
	}
	if maxFiles > 0 {
		for _, f := range truncate(c.Files, maxFiles) {
			out.Files = append(out.Files, f.normalize(patchLimit))
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
