package extractor

// DefaultVerdict is used when the model omits or mis-types the verdict field.
const DefaultVerdict = "The code has been analyzed by The Code Reaper."

// Issue is a single error or warning reported by the model.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Suggestion is a line-scoped improvement reported by the model.
type Suggestion struct {
	Line int    `json:"line"`
	Fix  string `json:"fix"`
}

// Change describes one modified line in the model's corrected code.
type Change struct {
	Line int    `json:"line"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// ReviewResult is the normalized review response. The three lists are always
// non-nil, Verdict is always non-empty, and CurseLevel is always in [0,100].
type ReviewResult struct {
	Errors      []Issue      `json:"errors"`
	Warnings    []Issue      `json:"warnings"`
	Suggestions []Suggestion `json:"suggestions"`
	Verdict     string       `json:"verdict"`
	CurseLevel  int          `json:"curseLevel"`
	UpdatedCode string       `json:"updatedCode,omitempty"`
	Changes     []Change     `json:"changes,omitempty"`
}

// CurseLevelFromCounts computes the fallback severity score used when the
// model omits or mis-types curseLevel: 30 points per error plus 10 per
// warning, capped at 100.
func CurseLevelFromCounts(errorCount, warningCount int) int {
	level := errorCount*30 + warningCount*10
	if level > 100 {
		return 100
	}
	return level
}
