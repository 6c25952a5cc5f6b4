package strategy

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"yomu/internal/model"
)

// githubRepoStrategy maps repository pages onto the official JSON API.
// Pure API proxy: no HTML is ever fetched from github.com itself.
type githubRepoStrategy struct {
	deps    *Deps
	apiBase string
}

func newGitHubRepoStrategy(deps *Deps) *githubRepoStrategy {
	return &githubRepoStrategy{deps: deps, apiBase: "https://api.github.com"}
}

func (s *githubRepoStrategy) Name() string { return "github" }

func (s *githubRepoStrategy) Matches(u *url.URL) bool {
	if u.Hostname() != "github.com" && u.Hostname() != "www.github.com" {
		return false
	}
	return len(pathSegments(u)) >= 2
}

type githubRepo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	OpenIssues  int    `json:"open_issues_count"`
	Owner       struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
}

func (s *githubRepoStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	segs := pathSegments(req.URL)
	if len(segs) < 2 {
		return webviewResult(req.URL, "", 0.3, model.NewParseError(model.ErrParseFailed, "not a repository path"))
	}

	var repo githubRepo
	apiURL := fmt.Sprintf("%s/repos/%s/%s", s.apiBase, segs[0], segs[1])
	if ferr := fetchJSON(ctx, s.deps, apiURL, req.ClientID, &repo); ferr != nil {
		return webviewResult(req.URL, segs[0]+"/"+segs[1], 0.3, parseErrorFromFetch(ferr))
	}
	if repo.FullName == "" {
		return webviewResult(req.URL, segs[0]+"/"+segs[1], 0.3,
			model.NewParseError(model.ErrParseFailed, "empty repository response"))
	}

	res := &model.ParseResult{
		Type:        model.TypeCode,
		Title:       repo.FullName,
		Excerpt:     repo.Description,
		CoverImage:  repo.Owner.AvatarURL,
		Domain:      domainOf(req.URL),
		FetchMethod: model.MethodAPI,
		Confidence:  0.9,
		Metadata: map[string]string{
			"stars":       strconv.Itoa(repo.Stars),
			"forks":       strconv.Itoa(repo.Forks),
			"open_issues": strconv.Itoa(repo.OpenIssues),
		},
	}
	if repo.Language != "" {
		res.Metadata["language"] = repo.Language
	}
	return res.Normalize()
}

// githubIssueStrategy handles the issue product area. It must be
// registered before githubRepoStrategy: both match issue URLs, and the
// path-qualified pattern has to win.
type githubIssueStrategy struct {
	deps    *Deps
	apiBase string
}

func newGitHubIssueStrategy(deps *Deps) *githubIssueStrategy {
	return &githubIssueStrategy{deps: deps, apiBase: "https://api.github.com"}
}

func (s *githubIssueStrategy) Name() string { return "github-issue" }

func (s *githubIssueStrategy) Matches(u *url.URL) bool {
	if u.Hostname() != "github.com" && u.Hostname() != "www.github.com" {
		return false
	}
	segs := pathSegments(u)
	return len(segs) >= 4 && (segs[2] == "issues" || segs[2] == "pull")
}

type githubIssue struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	State    string `json:"state"`
	Comments int    `json:"comments"`
	User     struct {
		Login string `json:"login"`
	} `json:"user"`
}

func (s *githubIssueStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	segs := pathSegments(req.URL)
	kind := "issues"
	if segs[2] == "pull" {
		kind = "pulls"
	}

	var issue githubIssue
	apiURL := fmt.Sprintf("%s/repos/%s/%s/%s/%s", s.apiBase, segs[0], segs[1], kind, segs[3])
	if ferr := fetchJSON(ctx, s.deps, apiURL, req.ClientID, &issue); ferr != nil {
		return webviewResult(req.URL, "", 0.3, parseErrorFromFetch(ferr))
	}
	if issue.Title == "" {
		return webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrParseFailed, "empty issue response"))
	}

	res := &model.ParseResult{
		Type:               model.TypeCode,
		Title:              issue.Title,
		Excerpt:            firstSentenceOf(issue.Body, 300),
		Domain:             domainOf(req.URL),
		ReadingTimeMinutes: readingTime(issue.Body, s.deps.WordsPerMinute),
		FetchMethod:        model.MethodAPI,
		Confidence:         0.9,
		Metadata: map[string]string{
			"repo":     segs[0] + "/" + segs[1],
			"state":    issue.State,
			"comments": strconv.Itoa(issue.Comments),
			"author":   issue.User.Login,
		},
	}
	return res.Normalize()
}

// gitlabStrategy proxies the GitLab projects API.
type gitlabStrategy struct {
	deps    *Deps
	apiBase string
}

func newGitLabStrategy(deps *Deps) *gitlabStrategy {
	return &gitlabStrategy{deps: deps, apiBase: "https://gitlab.com/api/v4"}
}

func (s *gitlabStrategy) Name() string { return "gitlab" }

func (s *gitlabStrategy) Matches(u *url.URL) bool {
	return hostMatches(u, "gitlab.com") && len(pathSegments(u)) >= 2
}

type gitlabProject struct {
	NameWithNamespace string `json:"name_with_namespace"`
	Description       string `json:"description"`
	StarCount         int    `json:"star_count"`
	ForksCount        int    `json:"forks_count"`
	AvatarURL         string `json:"avatar_url"`
}

func (s *gitlabStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	projectPath := strings.TrimPrefix(strings.TrimSuffix(req.URL.Path, "/"), "/")

	var project gitlabProject
	apiURL := s.apiBase + "/projects/" + url.PathEscape(projectPath)
	if ferr := fetchJSON(ctx, s.deps, apiURL, req.ClientID, &project); ferr != nil {
		return webviewResult(req.URL, "", 0.3, parseErrorFromFetch(ferr))
	}
	if project.NameWithNamespace == "" {
		return webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrParseFailed, "empty project response"))
	}

	res := &model.ParseResult{
		Type:        model.TypeCode,
		Title:       project.NameWithNamespace,
		Excerpt:     project.Description,
		CoverImage:  project.AvatarURL,
		Domain:      domainOf(req.URL),
		FetchMethod: model.MethodAPI,
		Confidence:  0.9,
		Metadata: map[string]string{
			"stars": strconv.Itoa(project.StarCount),
			"forks": strconv.Itoa(project.ForksCount),
		},
	}
	return res.Normalize()
}

// stackOverflowStrategy proxies the Stack Exchange questions API.
type stackOverflowStrategy struct {
	deps    *Deps
	apiBase string
}

func newStackOverflowStrategy(deps *Deps) *stackOverflowStrategy {
	return &stackOverflowStrategy{deps: deps, apiBase: "https://api.stackexchange.com/2.3"}
}

func (s *stackOverflowStrategy) Name() string { return "stackoverflow" }

func (s *stackOverflowStrategy) Matches(u *url.URL) bool {
	if !hostMatches(u, "stackoverflow.com") {
		return false
	}
	segs := pathSegments(u)
	return len(segs) >= 2 && (segs[0] == "questions" || segs[0] == "q")
}

type stackQuestion struct {
	Items []struct {
		Title       string `json:"title"`
		Score       int    `json:"score"`
		AnswerCount int    `json:"answer_count"`
		IsAnswered  bool   `json:"is_answered"`
	} `json:"items"`
}

func (s *stackOverflowStrategy) Parse(ctx context.Context, req *Request) *model.ParseResult {
	segs := pathSegments(req.URL)

	var q stackQuestion
	apiURL := fmt.Sprintf("%s/questions/%s?site=stackoverflow", s.apiBase, segs[1])
	if ferr := fetchJSON(ctx, s.deps, apiURL, req.ClientID, &q); ferr != nil {
		return webviewResult(req.URL, "", 0.3, parseErrorFromFetch(ferr))
	}
	if len(q.Items) == 0 {
		return webviewResult(req.URL, "", 0.3,
			model.NewParseError(model.ErrNotFound, "question not found"))
	}

	item := q.Items[0]
	res := &model.ParseResult{
		Type:        model.TypeCode,
		Title:       item.Title,
		Domain:      domainOf(req.URL),
		FetchMethod: model.MethodAPI,
		Confidence:  0.85,
		Metadata: map[string]string{
			"score":    strconv.Itoa(item.Score),
			"answers":  strconv.Itoa(item.AnswerCount),
			"answered": strconv.FormatBool(item.IsAnswered),
		},
	}
	return res.Normalize()
}

func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func firstSentenceOf(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
