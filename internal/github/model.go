package github

// RepoSummary is the trimmed repository listing returned to the UI.
type RepoSummary struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         string `json:"owner"`
	DefaultBranch string `json:"default_branch"`
	URL           string `json:"url"`
}

// PullRequestDraft carries everything needed to open a PR with the
// AI-suggested code. Transient, one per request.
type PullRequestDraft struct {
	Owner        string
	Repo         string
	FilePath     string
	ImprovedCode string
	Category     string
	Explanation  string
}

// Complete reports whether every field of the draft is populated.
func (d PullRequestDraft) Complete() bool {
	return d.Owner != "" && d.Repo != "" && d.FilePath != "" &&
		d.ImprovedCode != "" && d.Category != "" && d.Explanation != ""
}

// PullRequestResult describes the opened pull request.
type PullRequestResult struct {
	URL    string `json:"url"`
	Number int    `json:"number"`
	Branch string `json:"branch"`
}
