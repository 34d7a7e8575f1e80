package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aireviewmate/aireviewmate/internal/github"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
)

type reviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type pullRequestRequest struct {
	AccessToken  string `json:"accessToken"`
	Owner        string `json:"owner"`
	Repo         string `json:"repo"`
	FilePath     string `json:"filePath"`
	ImprovedCode string `json:"improvedCode"`
	Category     string `json:"category"`
	Explanation  string `json:"explanation"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "AIReviewMate API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.reviews.Review(r.Context(), req.Code, req.Language)
	if err != nil {
		loggy.FromContext(r.Context()).Warn("Review failed", "error", err)
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	fixed, err := s.reviews.Fix(r.Context(), req.Code, req.Language)
	if err != nil {
		loggy.FromContext(r.Context()).Warn("Fix failed", "error", err)
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"fixedCode": fixed})
}

func (s *Server) handleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.gh.AuthURL()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (s *Server) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	token, err := s.gh.ExchangeCode(r.Context(), code)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	// Hand the token to the UI; the server keeps no copy
	redirectURL := fmt.Sprintf("%s/?token=%s", strings.TrimSuffix(s.cfg.ClientURL, "/"), token)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (s *Server) handleGitHubRepos(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing access token. Authorization header with Bearer token is required.")
		return
	}

	repos, err := s.gh.ListRepositories(r.Context(), token)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"repos": repos})
}

func (s *Server) handlePullRequest(w http.ResponseWriter, r *http.Request) {
	var req pullRequestRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.gh.OpenPullRequest(r.Context(), req.AccessToken, github.PullRequestDraft{
		Owner:        req.Owner,
		Repo:         req.Repo,
		FilePath:     req.FilePath,
		ImprovedCode: req.ImprovedCode,
		Category:     req.Category,
		Explanation:  req.Explanation,
	})
	if err != nil {
		loggy.FromContext(r.Context()).Warn("Pull request workflow failed", "error", err)
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     result.URL,
		"number":  result.Number,
		"branch":  result.Branch,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path),
		"message": "Available routes: POST /api/review, POST /api/fix, GET /api/health",
	})
}

// decodeBody parses a JSON request body, enforcing the configured size limit.
// It writes the error response itself and reports whether decoding succeeded.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusBadRequest, "Request body is too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
