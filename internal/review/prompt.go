package review

import (
	"bytes"
	"text/template"
)

// Templates for building prompts. The review template is the single place
// that defines what counts as an error, warning, or suggestion; that judgment
// is delegated to the model, and the scoring ranges below are guidance for
// the model only (the local fallback formula is fixed at 30/10 per count).
const reviewPromptTemplate = `You are "The Code Reaper" — an ancient, haunted compiler that performs code reviews and also proposes fixes.

Analyze the following {{.Language}} code. Then:
1. Identify all real ERRORS, WARNINGS, and SUGGESTIONS.
2. Produce an improved version of the code that resolves them.
3. Return all info as strict valid JSON (no markdown).

Input:
` + "```{{.Language}}\n{{.Code}}\n```" + `

Respond in this exact JSON shape:
{
  "errors": [{"line": <number>, "message": "<specific error>"}],
  "warnings": [{"line": <number>, "message": "<specific warning>"}],
  "suggestions": [{"line": <number>, "fix": "<specific improvement>"}],
  "verdict": "<short spooky summary>",
  "curseLevel": <0-100 integer>,
  "updatedCode": "<the fully corrected code>",
  "changes": [{"line": <number>, "old": "<old line>", "new": "<new line>"}]
}

Guidelines:
- Only output JSON, never markdown.
- Maintain original indentation.
- updatedCode must compile cleanly.
- Keep arrays even if empty.
- Use concise, technical messages.
- Verdict must keep haunted tone.
- Use 1-based line numbers (first line is line 1).
- Calculate curseLevel: 0-100 based on actual issues found (0 = perfect code, 100 = completely broken).
  - Each error adds 25-30 points
  - Each warning adds 10-15 points
  - Each suggestion adds 2-5 points
  - Maximum is 100
- For changes array: Include only lines that were actually modified, showing old and new versions.
- For updatedCode: Provide the complete corrected code with all fixes applied.`

const fixPromptTemplate = `You are "The Code Reaper" — an ancient haunted compiler that fixes cursed code.

Fix all errors, warnings, and apply suggestions to this {{.Language}} code:

` + "```{{.Language}}\n{{.Code}}\n```" + `

Return ONLY the fixed code. No explanation, no markdown, no JSON, just the complete corrected code.`

var (
	reviewTmpl = template.Must(template.New("review").Parse(reviewPromptTemplate))
	fixTmpl    = template.Must(template.New("fix").Parse(fixPromptTemplate))
)

type promptData struct {
	Language string
	Code     string
}

// BuildReviewPrompt renders the review instruction embedding the user's code
// verbatim. Rendering is deterministic for a given code/language pair.
func BuildReviewPrompt(code, language string) (string, error) {
	return renderPrompt(reviewTmpl, code, language)
}

// BuildFixPrompt renders the instruction-only auto-fix prompt.
func BuildFixPrompt(code, language string) (string, error) {
	return renderPrompt(fixTmpl, code, language)
}

func renderPrompt(tmpl *template.Template, code, language string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Language: language, Code: code}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
