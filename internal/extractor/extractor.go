// Package extractor normalizes LLM responses into well-formed results. The
// upstream model is instructed to emit bare JSON but routinely wraps it in
// markdown fencing or prose, so extraction tries several strategies before
// giving up.
package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aireviewmate/aireviewmate/internal/loggy"
)

// ErrNoJSON is returned when no brace-delimited object can be located at all.
var ErrNoJSON = errors.New("no JSON object found in response")

// ErrEmptyFix is returned when a fix response contains nothing but fencing
// and whitespace.
var ErrEmptyFix = errors.New("empty fix response")

var (
	fencedJSONRegex   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	leadingJunkRegex  = regexp.MustCompile(`^[^{]*`)
	trailingJunkRegex = regexp.MustCompile(`[^}]*$`)
	braceSpanRegex    = regexp.MustCompile(`(?s)\{.*\}`)
	fixFenceOpenRegex = regexp.MustCompile("^```[a-zA-Z0-9_+#.-]*[ \t]*\r?\n?")
	fixFenceEndRegex  = regexp.MustCompile("\\s*```$")
)

// Normalizer extracts and repairs structured review data from raw model output
type Normalizer struct {
	logger *loggy.Logger
}

// NewNormalizer creates a new Normalizer
func NewNormalizer(logger *loggy.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
	}
}

// NormalizeReview parses a raw model response into a ReviewResult. It fails
// only when no JSON object can be located or the candidate does not parse;
// every recognized object is repaired into a well-formed result.
func (n *Normalizer) NormalizeReview(raw string) (*ReviewResult, error) {
	candidate, err := extractJSON(raw)
	if err != nil {
		n.logger.Debug("Failed to locate JSON in model response",
			"error", err,
			"response_length", len(raw))
		return nil, err
	}

	var parsed rawReview
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		// A fallback object is assembled for the logs only; the caller
		// always sees a parse failure, never this placeholder.
		fallback := &ReviewResult{
			Errors:      []Issue{},
			Warnings:    []Issue{{Line: 1, Message: "Failed to parse AI response. Please check the code and try again."}},
			Suggestions: []Suggestion{},
			Verdict:     "The Reaper encountered an issue analyzing your code.",
			CurseLevel:  50,
		}
		n.logger.Error("Failed to parse model response as JSON",
			"error", err,
			"candidate_length", len(candidate),
			"fallback_verdict", fallback.Verdict)
		return nil, fmt.Errorf("parsing model response: %w", err)
	}

	result := &ReviewResult{
		Errors:      coerceIssues(parsed.Errors),
		Warnings:    coerceIssues(parsed.Warnings),
		Suggestions: coerceSuggestions(parsed.Suggestions),
		Verdict:     coerceVerdict(parsed.Verdict),
		UpdatedCode: coerceString(parsed.UpdatedCode),
		Changes:     coerceChanges(parsed.Changes),
	}
	result.CurseLevel = coerceCurseLevel(parsed.CurseLevel, len(result.Errors), len(result.Warnings))

	n.logger.Debug("Normalized review response",
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"suggestions", len(result.Suggestions),
		"curse_level", result.CurseLevel)

	return result, nil
}

// NormalizeFix trims a raw fix response and strips a single surrounding
// markdown fence. It fails when nothing remains.
func (n *Normalizer) NormalizeFix(raw string) (string, error) {
	fixed := strings.TrimSpace(raw)
	fixed = fixFenceOpenRegex.ReplaceAllString(fixed, "")
	fixed = fixFenceEndRegex.ReplaceAllString(fixed, "")
	fixed = strings.TrimSpace(fixed)

	if fixed == "" {
		return "", ErrEmptyFix
	}

	return fixed, nil
}

// rawReview accepts arbitrary field types so a misbehaving model cannot make
// the unmarshal fail after a valid object was located.
type rawReview struct {
	Errors      any `json:"errors"`
	Warnings    any `json:"warnings"`
	Suggestions any `json:"suggestions"`
	Verdict     any `json:"verdict"`
	CurseLevel  any `json:"curseLevel"`
	UpdatedCode any `json:"updatedCode"`
	Changes     any `json:"changes"`
}

// extractJSON locates the JSON object inside raw model output, in order of
// attempt: fenced block interior, leading/trailing junk stripping, then the
// first-to-last brace span.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)

	if match := fencedJSONRegex.FindStringSubmatch(content); len(match) > 1 {
		return strings.TrimSpace(match[1]), nil
	}

	cleaned := leadingJunkRegex.ReplaceAllString(content, "")
	cleaned = trailingJunkRegex.ReplaceAllString(cleaned, "")

	if strings.HasPrefix(cleaned, "{") {
		return cleaned, nil
	}

	if match := braceSpanRegex.FindString(content); match != "" {
		return match, nil
	}

	return "", ErrNoJSON
}

func coerceIssues(v any) []Issue {
	items, ok := v.([]any)
	if !ok {
		return []Issue{}
	}

	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		issues = append(issues, Issue{
			Line:    coerceLine(fields["line"]),
			Message: coerceString(fields["message"]),
		})
	}
	return issues
}

func coerceSuggestions(v any) []Suggestion {
	items, ok := v.([]any)
	if !ok {
		return []Suggestion{}
	}

	suggestions := make([]Suggestion, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Line: coerceLine(fields["line"]),
			Fix:  coerceString(fields["fix"]),
		})
	}
	return suggestions
}

func coerceChanges(v any) []Change {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	changes := make([]Change, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		changes = append(changes, Change{
			Line: coerceLine(fields["line"]),
			Old:  coerceString(fields["old"]),
			New:  coerceString(fields["new"]),
		})
	}
	return changes
}

// coerceLine parses a line number from number or string forms; line numbers
// are 1-based, so anything below 1 becomes 1.
func coerceLine(v any) int {
	line := 0
	switch value := v.(type) {
	case float64:
		line = int(value)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			line = parsed
		}
	}

	if line < 1 {
		return 1
	}
	return line
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func coerceVerdict(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return DefaultVerdict
}

// coerceCurseLevel rounds and clamps a numeric curseLevel into [0,100], or
// derives it from the issue counts when absent or mis-typed.
func coerceCurseLevel(v any, errorCount, warningCount int) int {
	value, ok := v.(float64)
	if !ok {
		return CurseLevelFromCounts(errorCount, warningCount)
	}

	level := int(math.Round(value))
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
