package toolcall

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleInvocation(t *testing.T) {
	reply := strings.Join([]string{
		"I will fetch the page first.",
		"TOOL_CALL: curl",
		"PARAMETERS: url=https://example.com/a?b=c, output_file=/workspace/page.html",
		"REASONING: Fetch web content",
	}, "\n")

	calls := Parse(reply)
	require.Len(t, calls, 1)

	inv := calls[0]
	assert.Equal(t, "curl", inv.Command)
	assert.Equal(t, "https://example.com/a?b=c", inv.Parameters["url"])
	assert.Equal(t, "/workspace/page.html", inv.Parameters["output_file"])
	assert.Equal(t, "Fetch web content", inv.Reasoning)
	assert.Equal(t, 3, inv.LinesConsumed)
}

func TestParseMultipleInvocationsInOrder(t *testing.T) {
	reply := `Plan:
TOOL_CALL: mkdir
PARAMETERS: path=/workspace/out
REASONING: make room

TOOL_CALL: echo
PARAMETERS: text=hello
TOOL_CALL: cat
PARAMETERS: file=/workspace/out/a.txt
REASONING: check`

	calls := Parse(reply)
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"mkdir", "echo", "cat"}, []string{calls[0].Command, calls[1].Command, calls[2].Command})
	assert.Equal(t, "hello", calls[1].Parameters["text"])
	assert.Empty(t, calls[1].Reasoning)
	assert.Equal(t, "check", calls[2].Reasoning)
}

func TestParseTrailingMarkerLine(t *testing.T) {
	calls := Parse("some text\nTOOL_CALL: ls")
	require.Len(t, calls, 1)
	assert.Equal(t, "ls", calls[0].Command)
	assert.NotNil(t, calls[0].Parameters)
	assert.Empty(t, calls[0].Parameters)
	assert.Empty(t, calls[0].Reasoning)
	assert.Equal(t, 1, calls[0].LinesConsumed)
}

func TestParseSkipsBlankLinesBetweenMarkers(t *testing.T) {
	reply := "TOOL_CALL: curl\n\nPARAMETERS: url=http://x/y\n\nREASONING: fetch\nDone."
	calls := Parse(reply)
	require.Len(t, calls, 1)
	assert.Equal(t, "http://x/y", calls[0].Parameters["url"])
	assert.Equal(t, "fetch", calls[0].Reasoning)
	assert.Equal(t, 5, calls[0].LinesConsumed)
}

func TestParseMarkerWithoutFollowingBlock(t *testing.T) {
	// the unrelated line ends the lookahead; the call still comes out with no params
	reply := "TOOL_CALL: ls\nthen I will think about it\nPARAMETERS: path=/tmp"
	calls := Parse(reply)
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Parameters)
}

func TestParseLookaheadIsBounded(t *testing.T) {
	lines := []string{"TOOL_CALL: generic"}
	for i := 0; i < 12; i++ {
		lines = append(lines, "REASONING: again")
	}
	lines = append(lines, "PARAMETERS: late=1")

	calls := Parse(strings.Join(lines, "\n"))
	require.NotEmpty(t, calls)
	assert.Equal(t, LookaheadLines, calls[0].LinesConsumed)
	_, ok := calls[0].Parameters["late"]
	assert.False(t, ok)
}

func TestParseIndentedMarkersAreNotCommands(t *testing.T) {
	reply := "Examples:\n  TOOL_CALL: curl\n  PARAMETERS: url=x"
	assert.Empty(t, Parse(reply))
}

func TestParseNoMarkers(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("ERROR: LLM call failed: boom"))
}

func TestParseParameters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "file=/a.txt", map[string]string{"file": "/a.txt"}},
		{"trimmed", "  a = 1 ,b= two words ", map[string]string{"a": "1", "b": "two words"}},
		{"first equals splits", "q=x=y", map[string]string{"q": "x=y"}},
		{"segment without equals dropped", "a=1, junk, b=2", map[string]string{"a": "1", "b": "2"}},
		{"empty value kept", "a=", map[string]string{"a": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseParameters(tt.in))
		})
	}
}

func TestInvocationParam(t *testing.T) {
	inv := Invocation{Parameters: map[string]string{"path": "/x", "empty": ""}}
	assert.Equal(t, "/x", inv.Param("path", "/def"))
	assert.Equal(t, "/def", inv.Param("empty", "/def"))
	assert.Equal(t, "/def", inv.Param("missing", "/def"))
}
