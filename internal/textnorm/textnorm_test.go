package textnorm

import (
	"regexp"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  ВВЕДЕНИЕ ", "введение"},
		{"Ёлка", "елка"},
		{"Воробьёва", "воробьева"},
		{"", ""},
		{"Conclusion", "conclusion"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello  world", "hello world"},
		{"\r\nline one\r\n\tline two  ", "line one line two"},
		{"   ", ""},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := Collapse(tt.in); got != tt.want {
			t.Errorf("Collapse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWordBoundaries(t *testing.T) {
	re := regexp.MustCompile(WordStart + "захаров[а-я]*" + WordEnd)

	matches := []string{"захарова", "руководитель: захаровой", "(захаров)", "захаров а.в."}
	for _, s := range matches {
		if !re.MatchString(s) {
			t.Errorf("expected %q to match", s)
		}
	}

	misses := []string{"назахарова", "захарова1", "захарова_x"}
	for _, s := range misses {
		if re.MatchString(s) {
			t.Errorf("expected %q not to match", s)
		}
	}
}
