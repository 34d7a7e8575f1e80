package github

import (
	"context"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/aireviewmate/aireviewmate/internal/config"
)

const defaultAPIURL = "https://api.github.com"

// newAPIClient builds a go-github client authenticated with the caller's
// bearer token. Tokens are owned by the client and never stored here.
func newAPIClient(cfg config.GitHubConfig, token string) *github.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = timeout

	if cfg.APIURL != "" && cfg.APIURL != defaultAPIURL {
		client, err := github.NewEnterpriseClient(cfg.APIURL, cfg.APIURL, tc)
		if err == nil {
			return client
		}
		// Fall back to the default client if the custom base URL is unusable
	}

	return github.NewClient(tc)
}
