package engine

import "strings"

// CompletionPhrases are the phrases that mark a reply as final. Matching is
// case-insensitive substring matching.
var CompletionPhrases = []string{
	"task completed",
	"execution complete",
	"goal achieved",
	"summary saved",
	"process finished",
	"done",
}

// CompletionDetector decides whether a run is finished.
type CompletionDetector interface {
	IsDone(reply string, results []ToolResult) bool
}

// KeywordDetector is the default detector. A reply is final if it contains a
// completion phrase, or if it mentions a summary while the last three results
// all succeeded.
type KeywordDetector struct {
	Phrases []string
}

// NewKeywordDetector returns a detector using CompletionPhrases.
func NewKeywordDetector() KeywordDetector {
	return KeywordDetector{Phrases: CompletionPhrases}
}

func (d KeywordDetector) IsDone(reply string, results []ToolResult) bool {
	lower := strings.ToLower(reply)
	phrases := d.Phrases
	if phrases == nil {
		phrases = CompletionPhrases
	}
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}

	if len(results) == 0 || !strings.Contains(lower, "summary") {
		return false
	}
	for _, r := range lastResults(results, 3) {
		if !r.Success {
			return false
		}
	}
	return true
}
