package cli

import (
	"reflect"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty defaults to svg", in: "", want: []string{"svg"}},
		{name: "single", in: "png", want: []string{"png"}},
		{name: "multiple", in: "svg,json,dot", want: []string{"svg", "json", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{name: "from input", output: "", input: "notes.md", want: "notes"},
		{name: "from input with dir", output: "", input: "docs/plan.md", want: "docs/plan"},
		{name: "output with format ext", output: "out.svg", input: "notes.md", want: "out"},
		{name: "output with other ext", output: "out.backup", input: "notes.md", want: "out.backup"},
		{name: "output without ext", output: "dist/map", input: "notes.md", want: "dist/map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}
