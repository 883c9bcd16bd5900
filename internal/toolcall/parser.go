// Package toolcall turns a free-form model reply into structured tool invocations.
//
// The reply protocol is line based:
//
//	TOOL_CALL: curl
//	PARAMETERS: url=https://example.com, output_file=/workspace/page.html
//	REASONING: Fetch the page before summarising it
//
// A TOOL_CALL line opens an invocation. The lines that follow (at most
// LookaheadLines of them) are consumed while they are blank or carry a
// PARAMETERS or REASONING marker. Any other line ends the invocation.
package toolcall

import (
	"strings"
)

const (
	CommandMarker    = "TOOL_CALL:"
	ParametersMarker = "PARAMETERS:"
	ReasoningMarker  = "REASONING:"

	// LookaheadLines bounds how far past a TOOL_CALL line the parser looks
	// for its PARAMETERS and REASONING lines.
	LookaheadLines = 10
)

// Invocation is a parsed request to run a named capability.
type Invocation struct {
	Command       string
	Parameters    map[string]string
	Reasoning     string
	LinesConsumed int
}

// Param returns the named parameter or def when it is missing or empty.
func (inv Invocation) Param(key, def string) string {
	if v, ok := inv.Parameters[key]; ok && v != "" {
		return v
	}
	return def
}

// Parse extracts every invocation in text, in source order. It never fails:
// lines that cannot be read as an invocation are skipped one at a time.
func Parse(text string) []Invocation {
	lines := strings.Split(text, "\n")
	var calls []Invocation

	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], CommandMarker) {
			i++
			continue
		}
		inv, ok := parseAt(lines, i)
		if !ok {
			i++
			continue
		}
		calls = append(calls, inv)
		i += inv.LinesConsumed
	}
	return calls
}

// parseAt reads the invocation whose TOOL_CALL line is lines[start].
func parseAt(lines []string, start int) (Invocation, bool) {
	if start >= len(lines) {
		return Invocation{}, false
	}

	inv := Invocation{
		Command:       strings.TrimSpace(strings.TrimPrefix(lines[start], CommandMarker)),
		Parameters:    map[string]string{},
		LinesConsumed: 1,
	}

	for i := start + 1; i < len(lines) && i < start+LookaheadLines; i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, ParametersMarker):
			inv.Parameters = ParseParameters(strings.TrimPrefix(line, ParametersMarker))
			inv.LinesConsumed++
		case strings.HasPrefix(line, ReasoningMarker):
			inv.Reasoning = strings.TrimSpace(strings.TrimPrefix(line, ReasoningMarker))
			inv.LinesConsumed++
		case line == "":
			inv.LinesConsumed++
		default:
			// unrecognised line closes the block
			return inv, true
		}
	}
	return inv, true
}

// ParseParameters splits "a=1, b=2" into a map. Segments without '=' are
// dropped; a value may itself contain '=' since only the first one splits.
func ParseParameters(s string) map[string]string {
	params := map[string]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return params
	}
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params
}
