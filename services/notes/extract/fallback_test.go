package extract

import (
	"reflect"
	"testing"
)

func TestFallbackKeyPoints(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "sentence boundaries",
			text: "We should launch Monday. Assign QA to Bob. Ship by Friday.",
			want: []string{"We should launch Monday", "Assign QA to Bob", "Ship by Friday"},
		},
		{
			name: "no boundary yields whole text",
			text: "just one running thought with no punctuation",
			want: []string{"just one running thought with no punctuation"},
		},
		{
			name: "question and exclamation boundaries",
			text: "Are we ready? Ship it! Done.",
			want: []string{"Are we ready", "Ship it", "Done"},
		},
		{
			name: "capped at five sentences",
			text: "One. Two. Three. Four. Five. Six. Seven.",
			want: []string{"One", "Two", "Three", "Four", "Five"},
		},
		{
			name: "blank fragments dropped",
			text: "First point.  . Second point.",
			want: []string{"First point", "Second point"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fallbackKeyPoints(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("fallbackKeyPoints(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDeriveTopic(t *testing.T) {
	tests := []struct {
		name      string
		keyPoints []string
		want      string
	}{
		{
			name:      "first three words",
			keyPoints: []string{"We should launch Monday", "Assign QA to Bob"},
			want:      "We should launch",
		},
		{
			name:      "short first point",
			keyPoints: []string{"Ship it"},
			want:      "Ship it",
		},
		{
			name:      "no key points",
			keyPoints: nil,
			want:      "Untitled",
		},
		{
			name:      "blank first point",
			keyPoints: []string{"   "},
			want:      "Untitled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveTopic(tt.keyPoints); got != tt.want {
				t.Fatalf("deriveTopic(%v) = %q, want %q", tt.keyPoints, got, tt.want)
			}
		})
	}
}
