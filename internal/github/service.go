// Package github implements the OAuth token exchange, repository listing,
// and the five-step branch/commit/pull-request workflow.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/errs"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
	"github.com/aireviewmate/aireviewmate/internal/ulid"
)

const (
	// baseBranch is the branch pull requests are opened against.
	baseBranch = "main"

	// branchPrefix is the prefix of generated branch names.
	branchPrefix = "aireviewmate-update-"

	// OAuthScope is the scope requested during authorization.
	OAuthScope = "repo"
)

const (
	msgUnauthorized   = "Invalid or expired token. Please re-authenticate with GitHub."
	msgBranchConflict = "A branch with this name already exists. Please try again."
	msgOAuthFailed    = "GitHub OAuth failed"
	msgPRFailed       = "Failed to create pull request"
)

// Service provides GitHub integration functionality
type Service struct {
	cfg    config.GitHubConfig
	logger *loggy.Logger
}

// NewService creates a new GitHub service
func NewService(cfg config.GitHubConfig, logger *loggy.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// oauthConfig assembles the OAuth2 authorization-code configuration.
func (s *Service) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  s.cfg.RedirectURI,
		Scopes:       []string{OAuthScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.cfg.OAuthAuthURL,
			TokenURL: s.cfg.OAuthTokenURL,
		},
	}
}

// AuthURL returns the provider authorization URL the browser is redirected to.
func (s *Service) AuthURL() (string, error) {
	if s.cfg.ClientID == "" || s.cfg.RedirectURI == "" {
		return "", errs.E(errs.KindAuthConfig,
			"GitHub OAuth not configured. Missing GITHUB_CLIENT_ID or GITHUB_REDIRECT_URI.")
	}

	return s.oauthConfig().AuthCodeURL("",
		oauth2.SetAuthURLParam("allow_signup", "true")), nil
}

// ExchangeCode trades an authorization code for an access token. The token is
// returned to the client and never persisted server-side.
func (s *Service) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errs.E(errs.KindInvalidInput, "Missing authorization code")
	}

	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return "", errs.E(errs.KindAuthConfig, "GitHub OAuth not configured")
	}

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		s.logger.Error("OAuth code exchange failed", "error", err)
		return "", errs.Wrap(errs.KindOAuthExchangeFailed, msgOAuthFailed, err)
	}

	if token.AccessToken == "" {
		return "", errs.E(errs.KindOAuthExchangeFailed, msgOAuthFailed)
	}

	return token.AccessToken, nil
}

// ListRepositories fetches the repositories accessible to the token's user.
func (s *Service) ListRepositories(ctx context.Context, token string) ([]RepoSummary, error) {
	if token == "" {
		return nil, errs.E(errs.KindUnauthorized, "Missing access token")
	}

	client := newAPIClient(s.cfg, token)

	repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Sort: "updated",
	})
	if err != nil {
		return nil, s.classifyAPIError(err, resp, "Failed to fetch repositories")
	}

	summaries := make([]RepoSummary, 0, len(repos))
	for _, repo := range repos {
		summaries = append(summaries, RepoSummary{
			Name:          repo.GetName(),
			FullName:      repo.GetFullName(),
			Owner:         repo.GetOwner().GetLogin(),
			DefaultBranch: repo.GetDefaultBranch(),
			URL:           repo.GetHTMLURL(),
		})
	}

	return summaries, nil
}

// OpenPullRequest runs the five-step workflow: fetch the base ref, create a
// branch, read the target file, commit the improved code, and open the pull
// request. Steps are strictly sequential; the first failure aborts the
// remainder. A branch already created is deleted best-effort on a later
// failure.
func (s *Service) OpenPullRequest(ctx context.Context, token string, draft PullRequestDraft) (*PullRequestResult, error) {
	if token == "" || !draft.Complete() {
		return nil, errs.E(errs.KindInvalidInput, "Missing required fields")
	}

	client := newAPIClient(s.cfg, token)
	branch := newBranchName()

	log := s.logger.With(
		"repo", fmt.Sprintf("%s/%s", draft.Owner, draft.Repo),
		"branch", branch)

	// Step 1: fetch the SHA of the base branch
	ref, resp, err := client.Git.GetRef(ctx, draft.Owner, draft.Repo, "heads/"+baseBranch)
	if err != nil {
		log.Error("Failed to fetch base branch ref", "error", err)
		return nil, s.classifyAPIError(err, resp, msgPRFailed)
	}
	baseSHA := ref.GetObject().GetSHA()

	// Step 2: create the working branch at that SHA
	_, resp, err = client.Git.CreateRef(ctx, draft.Owner, draft.Repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(baseSHA)},
	})
	if err != nil {
		log.Error("Failed to create branch", "error", err)
		if statusOf(resp, err) == http.StatusConflict || statusOf(resp, err) == http.StatusUnprocessableEntity {
			return nil, errs.Wrap(errs.KindBranchConflict, msgBranchConflict, err)
		}
		return nil, s.classifyAPIError(err, resp, msgPRFailed)
	}

	// Step 3: read the current file to obtain its blob SHA for the
	// optimistic-concurrency check in step 4
	fileContent, _, resp, err := client.Repositories.GetContents(ctx, draft.Owner, draft.Repo, draft.FilePath,
		&github.RepositoryContentGetOptions{Ref: baseBranch})
	if err != nil || fileContent == nil {
		if err == nil {
			err = fmt.Errorf("path %q is not a file", draft.FilePath)
		}
		log.Error("Failed to fetch target file", "error", err, "path", draft.FilePath)
		s.cleanupBranch(ctx, client, draft.Owner, draft.Repo, branch, log)
		return nil, s.classifyAPIError(err, resp, msgPRFailed)
	}

	// Step 4: commit the improved code to the new branch
	_, resp, err = client.Repositories.UpdateFile(ctx, draft.Owner, draft.Repo, draft.FilePath,
		&github.RepositoryContentFileOptions{
			Message: github.String("AIReviewMate: " + draft.Category),
			Content: []byte(draft.ImprovedCode),
			SHA:     github.String(fileContent.GetSHA()),
			Branch:  github.String(branch),
		})
	if err != nil {
		log.Error("Failed to commit improved code", "error", err, "path", draft.FilePath)
		s.cleanupBranch(ctx, client, draft.Owner, draft.Repo, branch, log)
		return nil, s.classifyAPIError(err, resp, msgPRFailed)
	}

	// Step 5: open the pull request against the base branch
	pr, resp, err := client.PullRequests.Create(ctx, draft.Owner, draft.Repo, &github.NewPullRequest{
		Title: github.String("AI Review Suggestion: " + draft.Category),
		Head:  github.String(branch),
		Base:  github.String(baseBranch),
		Body:  github.String(draft.Explanation),
	})
	if err != nil {
		log.Error("Failed to open pull request", "error", err)
		s.cleanupBranch(ctx, client, draft.Owner, draft.Repo, branch, log)
		return nil, s.classifyAPIError(err, resp, msgPRFailed)
	}

	log.Info("Opened pull request",
		"pr_url", pr.GetHTMLURL(),
		"pr_number", pr.GetNumber())

	return &PullRequestResult{
		URL:    pr.GetHTMLURL(),
		Number: pr.GetNumber(),
		Branch: branch,
	}, nil
}

// cleanupBranch deletes a branch left behind by a failed later step. Best
// effort: the original failure is what the caller sees either way.
func (s *Service) cleanupBranch(ctx context.Context, client *github.Client, owner, repo, branch string, log *loggy.Logger) {
	if _, err := client.Git.DeleteRef(ctx, owner, repo, "heads/"+branch); err != nil {
		log.Warn("Failed to delete branch after aborted workflow; manual cleanup may be needed", "error", err)
		return
	}
	log.Info("Deleted branch after aborted workflow")
}

// classifyAPIError maps a GitHub API failure to a domain error, preferring
// the HTTP status over the error text.
func (s *Service) classifyAPIError(err error, resp *github.Response, message string) error {
	if statusOf(resp, err) == http.StatusUnauthorized {
		return errs.Wrap(errs.KindUnauthorized, msgUnauthorized, err)
	}
	return errs.Wrap(errs.KindUpstream, message, err)
}

// statusOf extracts the HTTP status from the response or the wrapped
// go-github error, whichever is available.
func statusOf(resp *github.Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	if errResp, ok := err.(*github.ErrorResponse); ok && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

// newBranchName builds a branch name from the current timestamp plus a short
// entropy suffix so concurrent requests in the same millisecond cannot
// collide.
func newBranchName() string {
	return fmt.Sprintf("%s%d-%s", branchPrefix, time.Now().UnixMilli(), ulid.Suffix())
}
