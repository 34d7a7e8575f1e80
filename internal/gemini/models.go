package gemini

import "fmt"

// GenerateRequest represents a generateContent request to the Gemini API
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content represents content in a chat message
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents a part of content in a chat message
type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig carries the generation parameters for a request
type GenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
}

// GenerateResponse represents a generateContent response from the Gemini API
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Candidate represents a candidate response from the Gemini API
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// Text returns the concatenated text parts of the first candidate.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}

	var text string
	for _, part := range r.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}

// APIError represents an error returned by the Gemini API
type APIError struct {
	ErrorDetail *ErrorDetails `json:"error,omitempty"`
}

// ErrorDetails contains details about an API error
type ErrorDetails struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	if e.ErrorDetail == nil {
		return "gemini: unknown API error"
	}
	return fmt.Sprintf("gemini: %d %s: %s", e.ErrorDetail.Code, e.ErrorDetail.Status, e.ErrorDetail.Message)
}

// Code returns the HTTP status code of the API error, or 0 when absent.
func (e *APIError) Code() int {
	if e.ErrorDetail == nil {
		return 0
	}
	return e.ErrorDetail.Code
}

// Status returns the canonical status string of the API error.
func (e *APIError) Status() string {
	if e.ErrorDetail == nil {
		return ""
	}
	return e.ErrorDetail.Status
}
