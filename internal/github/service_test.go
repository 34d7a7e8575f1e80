package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/errs"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub is an httptest server standing in for the GitHub REST API,
// recording the method and path of every call it receives.
type fakeGitHub struct {
	server   *httptest.Server
	mux      *http.ServeMux
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()

	f := &fakeGitHub{
		mux:    http.NewServeMux(),
		bodies: map[string]string{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		f.requests = append(f.requests, key)
		f.bodies[key] = string(body)
		f.mu.Unlock()

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGitHub) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeGitHub) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

// handle registers a JSON responder. go-github prefixes enterprise base URLs
// with /api/v3, so registrations do the same.
func (f *fakeGitHub) handle(pattern string, status int, payload string) {
	f.mux.HandleFunc("/api/v3"+pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, payload)
	})
}

func newTestService(f *fakeGitHub) *Service {
	cfg := config.GitHubConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:3000/api/github/callback",
		OAuthAuthURL: "https://github.com/login/oauth/authorize",
	}
	if f != nil {
		cfg.APIURL = f.server.URL
		cfg.OAuthTokenURL = f.server.URL + "/login/oauth/access_token"
	}
	return NewService(cfg, loggy.NewNoopLogger())
}

func TestAuthURL(t *testing.T) {
	t.Run("builds the authorization URL", func(t *testing.T) {
		svc := newTestService(nil)

		url, err := svc.AuthURL()

		require.NoError(t, err)
		assert.Contains(t, url, "https://github.com/login/oauth/authorize")
		assert.Contains(t, url, "client_id=client-id")
		assert.Contains(t, url, "scope=repo")
		assert.Contains(t, url, "allow_signup=true")
	})

	t.Run("fails when OAuth is not configured", func(t *testing.T) {
		svc := NewService(config.GitHubConfig{}, loggy.NewNoopLogger())

		_, err := svc.AuthURL()

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindAuthConfig))
	})
}

func TestExchangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("empty code is rejected", func(t *testing.T) {
		svc := newTestService(nil)

		_, err := svc.ExchangeCode(ctx, "")

		assert.True(t, errs.Is(err, errs.KindInvalidInput))
		assert.Equal(t, "Missing authorization code", errs.MessageOf(err))
	})

	t.Run("missing secrets are rejected", func(t *testing.T) {
		svc := NewService(config.GitHubConfig{ClientID: "id"}, loggy.NewNoopLogger())

		_, err := svc.ExchangeCode(ctx, "abc123")

		assert.True(t, errs.Is(err, errs.KindAuthConfig))
	})

	t.Run("successful exchange returns the token", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "gho_testtoken", "token_type": "bearer", "scope": "repo"}`)
		})
		svc := newTestService(f)

		token, err := svc.ExchangeCode(ctx, "abc123")

		require.NoError(t, err)
		assert.Equal(t, "gho_testtoken", token)
	})

	t.Run("provider rejection maps to exchange failure", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "bad_verification_code"}`, http.StatusBadRequest)
		})
		svc := newTestService(f)

		_, err := svc.ExchangeCode(ctx, "expired")

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindOAuthExchangeFailed))
		assert.Equal(t, "GitHub OAuth failed", errs.MessageOf(err))
	})

	t.Run("empty token in response maps to exchange failure", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token": "", "token_type": "bearer"}`)
		})
		svc := newTestService(f)

		_, err := svc.ExchangeCode(ctx, "abc123")

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindOAuthExchangeFailed))
	})
}

func TestListRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token is rejected without a call", func(t *testing.T) {
		f := newFakeGitHub(t)
		svc := newTestService(f)

		_, err := svc.ListRepositories(ctx, "")

		assert.True(t, errs.Is(err, errs.KindUnauthorized))
		assert.Empty(t, f.calls())
	})

	t.Run("maps repositories to summaries", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.handle("/user/repos", http.StatusOK, `[
			{
				"name": "widget",
				"full_name": "octocat/widget",
				"owner": {"login": "octocat"},
				"default_branch": "main",
				"html_url": "https://github.com/octocat/widget"
			},
			{
				"name": "gadget",
				"full_name": "octocat/gadget",
				"owner": {"login": "octocat"},
				"default_branch": "master",
				"html_url": "https://github.com/octocat/gadget"
			}
		]`)
		svc := newTestService(f)

		repos, err := svc.ListRepositories(ctx, "gho_token")

		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, RepoSummary{
			Name:          "widget",
			FullName:      "octocat/widget",
			Owner:         "octocat",
			DefaultBranch: "main",
			URL:           "https://github.com/octocat/widget",
		}, repos[0])
		assert.Equal(t, "master", repos[1].DefaultBranch)
	})

	t.Run("expired token maps to unauthorized", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.handle("/user/repos", http.StatusUnauthorized, `{"message": "Bad credentials"}`)
		svc := newTestService(f)

		_, err := svc.ListRepositories(ctx, "gho_expired")

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindUnauthorized))
		assert.Equal(t, "Invalid or expired token. Please re-authenticate with GitHub.", errs.MessageOf(err))
	})
}

func validDraft() PullRequestDraft {
	return PullRequestDraft{
		Owner:        "octocat",
		Repo:         "widget",
		FilePath:     "src/main.js",
		ImprovedCode: "const x = 1;\n",
		Category:     "Performance",
		Explanation:  "Replaced var with const.",
	}
}

func TestOpenPullRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("incomplete draft is rejected without a call", func(t *testing.T) {
		f := newFakeGitHub(t)
		svc := newTestService(f)

		draft := validDraft()
		draft.FilePath = ""

		_, err := svc.OpenPullRequest(ctx, "gho_token", draft)

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindInvalidInput))
		assert.Equal(t, "Missing required fields", errs.MessageOf(err))
		assert.Empty(t, f.calls())
	})

	t.Run("missing token is rejected without a call", func(t *testing.T) {
		f := newFakeGitHub(t)
		svc := newTestService(f)

		_, err := svc.OpenPullRequest(ctx, "", validDraft())

		assert.True(t, errs.Is(err, errs.KindInvalidInput))
		assert.Empty(t, f.calls())
	})

	t.Run("runs all five steps and returns the pull request", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.handle("/repos/octocat/widget/git/ref/heads/main", http.StatusOK,
			`{"ref": "refs/heads/main", "object": {"sha": "base-sha-123"}}`)
		f.handle("/repos/octocat/widget/git/refs", http.StatusCreated,
			`{"ref": "refs/heads/new-branch", "object": {"sha": "base-sha-123"}}`)
		f.handle("/repos/octocat/widget/contents/src/main.js", http.StatusOK,
			`{"type": "file", "name": "main.js", "path": "src/main.js", "sha": "file-sha-456"}`)
		f.handle("/repos/octocat/widget/pulls", http.StatusCreated,
			`{"number": 42, "html_url": "https://github.com/octocat/widget/pull/42"}`)
		svc := newTestService(f)

		result, err := svc.OpenPullRequest(ctx, "gho_token", validDraft())

		require.NoError(t, err)
		assert.Equal(t, "https://github.com/octocat/widget/pull/42", result.URL)
		assert.Equal(t, 42, result.Number)
		assert.True(t, strings.HasPrefix(result.Branch, branchPrefix))

		calls := f.calls()
		require.Len(t, calls, 5)
		assert.Equal(t, "GET /api/v3/repos/octocat/widget/git/ref/heads/main", calls[0])
		assert.Equal(t, "POST /api/v3/repos/octocat/widget/git/refs", calls[1])
		assert.Equal(t, "GET /api/v3/repos/octocat/widget/contents/src/main.js", calls[2])
		assert.Equal(t, "PUT /api/v3/repos/octocat/widget/contents/src/main.js", calls[3])
		assert.Equal(t, "POST /api/v3/repos/octocat/widget/pulls", calls[4])

		var refBody map[string]any
		require.NoError(t, json.Unmarshal([]byte(f.body(calls[1])), &refBody))
		assert.Equal(t, "refs/heads/"+result.Branch, refBody["ref"])

		var commitBody map[string]any
		require.NoError(t, json.Unmarshal([]byte(f.body(calls[3])), &commitBody))
		assert.Equal(t, "AIReviewMate: Performance", commitBody["message"])
		assert.Equal(t, "file-sha-456", commitBody["sha"])
		assert.Equal(t, result.Branch, commitBody["branch"])

		var prBody map[string]any
		require.NoError(t, json.Unmarshal([]byte(f.body(calls[4])), &prBody))
		assert.Equal(t, "AI Review Suggestion: Performance", prBody["title"])
		assert.Equal(t, "main", prBody["base"])
		assert.Equal(t, result.Branch, prBody["head"])
		assert.Equal(t, "Replaced var with const.", prBody["body"])
	})

	t.Run("branch collision maps to conflict and aborts", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.handle("/repos/octocat/widget/git/ref/heads/main", http.StatusOK,
			`{"ref": "refs/heads/main", "object": {"sha": "base-sha-123"}}`)
		f.handle("/repos/octocat/widget/git/refs", http.StatusUnprocessableEntity,
			`{"message": "Reference already exists"}`)
		svc := newTestService(f)

		_, err := svc.OpenPullRequest(ctx, "gho_token", validDraft())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindBranchConflict))
		assert.Equal(t, "A branch with this name already exists. Please try again.", errs.MessageOf(err))
		assert.Len(t, f.calls(), 2)
	})

	t.Run("missing file triggers branch cleanup", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.handle("/repos/octocat/widget/git/ref/heads/main", http.StatusOK,
			`{"ref": "refs/heads/main", "object": {"sha": "base-sha-123"}}`)
		f.handle("/repos/octocat/widget/git/refs", http.StatusCreated,
			`{"ref": "refs/heads/b", "object": {"sha": "base-sha-123"}}`)
		f.handle("/repos/octocat/widget/contents/src/main.js", http.StatusNotFound,
			`{"message": "Not Found"}`)
		f.mux.HandleFunc("DELETE /api/v3/repos/octocat/widget/git/refs/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		svc := newTestService(f)

		_, err := svc.OpenPullRequest(ctx, "gho_token", validDraft())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindUpstream))

		calls := f.calls()
		require.Len(t, calls, 4)
		assert.True(t, strings.HasPrefix(calls[3],
			"DELETE /api/v3/repos/octocat/widget/git/refs/heads/"+branchPrefix))
	})

	t.Run("expired token maps to unauthorized", func(t *testing.T) {
		f := newFakeGitHub(t)
		f.handle("/repos/octocat/widget/git/ref/heads/main", http.StatusUnauthorized,
			`{"message": "Bad credentials"}`)
		svc := newTestService(f)

		_, err := svc.OpenPullRequest(ctx, "gho_expired", validDraft())

		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindUnauthorized))
		assert.Len(t, f.calls(), 1)
	})
}

func TestNewBranchName(t *testing.T) {
	first := newBranchName()
	second := newBranchName()

	assert.True(t, strings.HasPrefix(first, branchPrefix))
	assert.NotEqual(t, first, second)
}
