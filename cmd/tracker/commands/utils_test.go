// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate, point-file parsing and date flag resolution

package commands

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"very short maxLen", "hello", 2, "he"},
		{"empty string", "", 10, ""},
		{"unicode truncated with ellipsis", "你好世界你好世界", 5, "你好..."},
		{"unicode with very short maxLen", "你好世界", 2, "你好"},
		{"accented with very short maxLen", "éclair", 1, "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.input, tt.maxLen)
			}
		})
	}
}

func TestReadPoints(t *testing.T) {
	input := `- mitochondria make ATP

* nucleus holds DNA
   ribosomes build proteins
•  golgi packages proteins
`
	points, err := readPoints(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readPoints() error = %v", err)
	}
	want := []string{"mitochondria make ATP", "nucleus holds DNA", "ribosomes build proteins", "golgi packages proteins"}
	if strings.Join(points, "|") != strings.Join(want, "|") {
		t.Errorf("readPoints() = %q, want %q", points, want)
	}
}

func TestResolveDate(t *testing.T) {
	cfg := config.Defaults()

	d, err := resolveDate("2024-03-11", cfg)
	if err != nil || d != models.NewDate(2024, 3, 11) {
		t.Errorf("resolveDate() = %v, %v", d, err)
	}
	if _, err := resolveDate("11/03/2024", cfg); err == nil {
		t.Error("expected error for malformed date")
	}
	if d, err := resolveDate("", cfg); err != nil || d != models.Today(cfg.Location()) {
		t.Errorf("resolveDate(\"\") = %v, %v", d, err)
	}
}
