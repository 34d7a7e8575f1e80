// Package review implements the code review and auto-fix use cases: input
// validation, prompt construction, the model call, and normalization of the
// model's output.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"golang.org/x/time/rate"

	"github.com/aireviewmate/aireviewmate/internal/config"
	"github.com/aireviewmate/aireviewmate/internal/errs"
	"github.com/aireviewmate/aireviewmate/internal/extractor"
	"github.com/aireviewmate/aireviewmate/internal/loggy"
)

// MaxCodeLength is the largest accepted code submission, in characters.
const MaxCodeLength = 10000

// ModelClient is the LLM call the service depends on.
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Service provides the review and fix operations
type Service struct {
	model      ModelClient
	normalizer *extractor.Normalizer
	limiter    *rate.Limiter
	logger     *loggy.Logger
}

// NewService creates a new review service. The limiter throttles outbound
// model calls process-wide, independent of the per-client admission limiter.
func NewService(model ModelClient, cfg config.GeminiConfig, logger *loggy.Logger) *Service {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstLimit
	if burst <= 0 {
		burst = 1
	}

	return &Service{
		model:      model,
		normalizer: extractor.NewNormalizer(logger),
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		logger:     logger,
	}
}

// Review validates the submission, asks the model for a structured critique,
// and returns the normalized result.
func (s *Service) Review(ctx context.Context, code, language string) (*extractor.ReviewResult, error) {
	if err := validateInput(code, language); err != nil {
		return nil, err
	}

	language = normalizeLanguage(language)

	prompt, err := BuildReviewPrompt(code, language)
	if err != nil {
		return nil, errs.Wrap(errs.KindUpstream, msgGenericFailure, err)
	}

	s.logger.Info("Review request",
		"language", language,
		"code_length", len(code),
		"model", s.model.Model())

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := s.normalizer.NormalizeReview(raw)
	if err != nil {
		// Raw model output never reaches the client
		s.logger.Error("Model response did not normalize", "error", err)
		return nil, errs.Wrap(errs.KindUpstream, msgParseFailure, err)
	}

	s.logger.Info("Review completed",
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"suggestions", len(result.Suggestions),
		"curse_level", result.CurseLevel)

	return result, nil
}

// Fix validates the submission and asks the model for corrected source only.
func (s *Service) Fix(ctx context.Context, code, language string) (string, error) {
	if err := validateInput(code, language); err != nil {
		return "", err
	}

	language = normalizeLanguage(language)

	prompt, err := BuildFixPrompt(code, language)
	if err != nil {
		return "", errs.Wrap(errs.KindUpstream, msgGenericFailure, err)
	}

	s.logger.Info("Fix request",
		"language", language,
		"code_length", len(code),
		"model", s.model.Model())

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	fixed, err := s.normalizer.NormalizeFix(raw)
	if err != nil {
		return "", errs.Wrap(errs.KindEmptyFixResult, msgEmptyFix, err)
	}

	s.logger.Info("Fix completed", "fixed_length", len(fixed))

	return fixed, nil
}

// generate throttles and issues the model call, translating failures into
// the domain taxonomy.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", errs.Wrap(errs.KindUpstreamThrottled, msgOverwhelmed, err)
	}

	raw, err := s.model.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Error("Model call failed", "error", err)
		return "", classifyModelError(err, s.model.Model())
	}

	return raw, nil
}

// validateInput applies the rejection conditions in their documented order:
// blank code, oversized code, then missing language. Nothing is sent upstream
// when any of them fails.
func validateInput(code, language string) error {
	if strings.TrimSpace(code) == "" {
		return errs.E(errs.KindInvalidInput, "Code is required and cannot be empty")
	}

	if len(code) > MaxCodeLength {
		return errs.E(errs.KindPayloadTooLarge,
			fmt.Sprintf("Code is too long (maximum %d characters)", MaxCodeLength))
	}

	if strings.TrimSpace(language) == "" {
		return errs.E(errs.KindInvalidInput, "Language is required")
	}

	return nil
}

// normalizeLanguage maps loose identifiers ("golang", "js") to canonical
// language names when recognized; unknown identifiers pass through untouched.
func normalizeLanguage(language string) string {
	if canonical, ok := enry.GetLanguageByAlias(language); ok {
		return canonical
	}
	return language
}
