package engine

import "testing"

func TestKeywordDetector(t *testing.T) {
	ok := ToolResult{Success: true}
	bad := ToolResult{Success: false}

	tests := []struct {
		name    string
		reply   string
		results []ToolResult
		want    bool
	}{
		{"phrase", "Task completed, summary saved.", nil, true},
		{"case insensitive", "GOAL ACHIEVED", nil, true},
		{"empty", "", nil, false},
		{"plain progress", "Fetching the next page.", []ToolResult{ok}, false},
		{"summary after successes", "Here is the Summary of results", []ToolResult{bad, ok, ok, ok}, true},
		{"summary with recent failure", "Here is the summary", []ToolResult{ok, bad, ok}, false},
		{"summary without results", "Writing the summary next", nil, false},
	}
	d := NewKeywordDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsDone(tt.reply, tt.results); got != tt.want {
				t.Errorf("IsDone(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}
