package registry

import (
	"strings"
)

// Strategy is one way a command token can match a descriptor. Strategies
// are tried in the order of Strategies; the first one with a match wins.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyExactID
	StrategyExactDisplayName
	StrategyDisplaySubstring
	StrategyFuzzy
)

// Strategies is the fixed resolution order.
var Strategies = []Strategy{
	StrategyExactID,
	StrategyExactDisplayName,
	StrategyDisplaySubstring,
	StrategyFuzzy,
}

func (s Strategy) String() string {
	switch s {
	case StrategyExactID:
		return "exact_id"
	case StrategyExactDisplayName:
		return "exact_display_name"
	case StrategyDisplaySubstring:
		return "display_substring"
	case StrategyFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// decorations are stripped from display names before exact comparison.
var decorations = []string{"[REAL]", "[MOCK]", "[SIMULATED]", "**", "__", "`"}

// roleSuffixes are generic role words dropped from a token before fuzzy matching.
var roleSuffixes = []string{"agent", "tool", "component", "service"}

// Match is the outcome of a resolution.
type Match struct {
	Descriptor Descriptor
	Strategy   Strategy
}

// Resolve finds the component a command token refers to. ok is false when no
// descriptor matches; callers treat that as a built-in command, not an error.
// Reserved tokens (see Reserve) only go through the exact strategies.
func (r *Registry) Resolve(token string) (Match, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Match{}, false
	}
	for _, s := range Strategies {
		if r.reserved[token] && s >= StrategyDisplaySubstring {
			break
		}
		// r.ordered is sorted by ID, which makes ties deterministic
		for _, d := range r.ordered {
			if Score(s, token, d) {
				return Match{Descriptor: d, Strategy: s}, true
			}
		}
	}
	return Match{}, false
}

// Score reports whether token matches d under strategy s.
func Score(s Strategy, token string, d Descriptor) bool {
	switch s {
	case StrategyExactID:
		return token == d.ID
	case StrategyExactDisplayName:
		return token == StripDecorations(d.DisplayName)
	case StrategyDisplaySubstring:
		return strings.Contains(d.DisplayName, token)
	case StrategyFuzzy:
		norm := NormalizeToken(token)
		if norm == "" {
			return false
		}
		return strings.Contains(strings.ToLower(d.DisplayName), norm)
	default:
		return false
	}
}

// StripDecorations removes status markers and markdown emphasis from a name.
func StripDecorations(name string) string {
	for _, dec := range decorations {
		name = strings.ReplaceAll(name, dec, "")
	}
	return strings.TrimSpace(name)
}

// NormalizeToken lowercases token and drops one trailing role word
// ("WebFetcherAgent" -> "webfetcher", "summarizer_tool" -> "summarizer").
func NormalizeToken(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	for _, suffix := range roleSuffixes {
		if strings.HasSuffix(t, suffix) && len(t) > len(suffix) {
			t = strings.TrimSuffix(t, suffix)
			break
		}
	}
	return strings.Trim(t, " _-.")
}
