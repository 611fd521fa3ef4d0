package cli

import (
	"testing"
)

func TestCleanVersions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil stays nil", in: nil, want: nil},
		{name: "whitespace trimmed", in: []string{" 0.4", "0.5 "}, want: []string{"0.4", "0.5"}},
		{name: "empty tokens dropped", in: []string{"", "0.4", "  "}, want: []string{"0.4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanVersions(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("cleanVersions(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("cleanVersions(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRegexpList(t *testing.T) {
	var l regexpList
	if err := l.Set(`^v0_4:`); err != nil {
		t.Fatalf("Set(valid pattern) failed: %v", err)
	}
	// Commas inside quantifiers must survive; a string-slice flag would
	// have split this value
	if err := l.Set(`label:[0-9]{1,3}`); err != nil {
		t.Fatalf("Set(pattern with comma) failed: %v", err)
	}
	if err := l.Set(`([unbalanced`); err == nil {
		t.Error("Set(invalid pattern) succeeded, want error")
	}

	patterns := l.Patterns()
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}
	if !patterns[1].MatchString("label:42") {
		t.Error("second pattern should match label:42")
	}
	if got, want := l.String(), "^v0_4:, label:[0-9]{1,3}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
