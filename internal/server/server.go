// Package server exposes the JSON API consumed by the UI: the review and fix
// endpoints, the GitHub OAuth flow, and the pull-request workflow.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/errs"
	"github.com/aireviewmate/aireviewmate/internal/extractor"
	"github.com/aireviewmate/aireviewmate/internal/github"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
	"github.com/aireviewmate/aireviewmate/internal/ratelimit"
)

// ReviewService is the review/fix surface the server depends on.
type ReviewService interface {
	Review(ctx context.Context, code, language string) (*extractor.ReviewResult, error)
	Fix(ctx context.Context, code, language string) (string, error)
}

// GitHubService is the OAuth and pull-request surface the server depends on.
type GitHubService interface {
	AuthURL() (string, error)
	ExchangeCode(ctx context.Context, code string) (string, error)
	ListRepositories(ctx context.Context, token string) ([]github.RepoSummary, error)
	OpenPullRequest(ctx context.Context, token string, draft github.PullRequestDraft) (*github.PullRequestResult, error)
}

// Server is the HTTP front of the application.
type Server struct {
	cfg     config.ServerConfig
	reviews ReviewService
	gh      GitHubService
	limiter *ratelimit.Limiter
	logger  *loggy.Logger
	httpSrv *http.Server
	ln      net.Listener
}

// New creates a server wired to the given services.
func New(cfg config.ServerConfig, reviews ReviewService, gh GitHubService, limiter *ratelimit.Limiter, logger *loggy.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		reviews: reviews,
		gh:      gh,
		limiter: limiter,
		logger:  logger,
	}

	s.httpSrv = &http.Server{Handler: s.Router()}
	return s
}

// Router returns the http.Handler for all API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/review", s.rateLimited(s.handleReview))
	mux.HandleFunc("POST /api/fix", s.rateLimited(s.handleFix))

	mux.HandleFunc("GET /api/github/login", s.handleGitHubLogin)
	mux.HandleFunc("GET /api/github/callback", s.handleGitHubCallback)
	mux.HandleFunc("GET /api/github/repos", s.handleGitHubRepos)
	mux.HandleFunc("POST /api/github/pull-request", s.handlePullRequest)

	mux.HandleFunc("/", s.handleNotFound)

	return s.corsMiddleware(s.requestLogMiddleware(mux))
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.ln = ln

	s.logger.Info("Server listening",
		"addr", addr,
		"client_url", s.cfg.ClientURL)

	if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Addr returns the bound listener address, useful when Port is 0 in tests.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a domain error to its HTTP status and stable message.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	writeError(w, statusOfKind(kind), errs.MessageOf(err))
}

// statusOfKind maps the error taxonomy onto HTTP statuses.
func statusOfKind(kind errs.Kind) int {
	switch kind {
	case errs.KindInvalidInput, errs.KindPayloadTooLarge:
		return http.StatusBadRequest
	case errs.KindRateLimited, errs.KindUpstreamThrottled:
		return http.StatusTooManyRequests
	case errs.KindUnauthorized:
		return http.StatusUnauthorized
	case errs.KindBranchConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
