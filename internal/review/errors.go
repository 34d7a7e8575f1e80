package review

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aireviewmate/aireviewmate/internal/errs"
	"github.com/aireviewmate/aireviewmate/internal/gemini"
)

// User-facing messages. Themed, but each names the actual condition.
const (
	msgBadAPIKey      = "The Reaper could not be summoned… check your API key."
	msgOverwhelmed    = "The Reaper is overwhelmed. Please wait a moment and try again."
	msgParseFailure   = "Failed to parse AI response. Please ensure your code is valid and try again."
	msgEmptyFix       = "Invalid response from AI service - no fixed code returned"
	msgGenericFailure = "The Reaper could not be summoned… internal server error"
)

// classifyModelError maps a provider failure onto the domain taxonomy. The
// structured API error code is consulted first; substring matching on the
// error text is the fallback for failures that carry no structure.
func classifyModelError(err error, model string) error {
	if errors.Is(err, gemini.ErrNoAPIKey) {
		return errs.Wrap(errs.KindAuthConfig, msgBadAPIKey, err)
	}

	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code() == http.StatusUnauthorized,
			apiErr.Code() == http.StatusForbidden,
			apiErr.Status() == "UNAUTHENTICATED",
			apiErr.Status() == "PERMISSION_DENIED":
			return errs.Wrap(errs.KindAuthConfig, msgBadAPIKey, err)
		case apiErr.Code() == http.StatusTooManyRequests,
			apiErr.Status() == "RESOURCE_EXHAUSTED":
			return errs.Wrap(errs.KindUpstreamThrottled, msgOverwhelmed, err)
		case apiErr.Code() == http.StatusNotFound,
			apiErr.Status() == "NOT_FOUND":
			return errs.Wrap(errs.KindModelUnavailable, modelUnavailableMessage(model), err)
		}
	}

	// The provider does not always expose a structured taxonomy; matching
	// known signal substrings in the error text is the acknowledged fallback.
	text := err.Error()
	switch {
	case containsAny(text, "API key", "API_KEY_INVALID", "GEMINI_API_KEY"):
		return errs.Wrap(errs.KindAuthConfig, msgBadAPIKey, err)
	case containsAny(text, "quota", "429", "Too Many Requests", "RESOURCE_EXHAUSTED", "rate limit", "overwhelmed"):
		return errs.Wrap(errs.KindUpstreamThrottled, msgOverwhelmed, err)
	case containsAny(text, "MODEL_NOT_FOUND", "404 Not Found", "is not found", "model"):
		return errs.Wrap(errs.KindModelUnavailable, modelUnavailableMessage(model), err)
	}

	return errs.Wrap(errs.KindUpstream,
		fmt.Sprintf("The Reaper could not be summoned: %s", text), err)
}

func modelUnavailableMessage(model string) string {
	return fmt.Sprintf("The Gemini model %q is not available for your API key. Please check your API key permissions.", model)
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
