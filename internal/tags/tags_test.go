package tags

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "two pairs",
			text: "[A*] hello  world [*A] text [B*]hi[*B]",
			want: []string{"hello world", "hi"},
		},
		{
			name: "no markup",
			text: "plain text without any tags",
			want: nil,
		},
		{
			name: "newline spanning content is collapsed",
			text: "[TERM*]нейронные\n  сети[*TERM]",
			want: []string{"нейронные сети"},
		},
		{
			name: "cyrillic marker names",
			text: "[МЕТОД*]градиентный спуск[*МЕТОД]",
			want: []string{"градиентный спуск"},
		},
		{
			name: "short tags dropped",
			text: "[A*]x[*A] [B*] y [*B] [C*]ok[*C]",
			want: []string{"ok"},
		},
		{
			name: "duplicates merged and sorted",
			text: "[B*]beta[*B] [A*]alpha[*A] [C*]beta[*C]",
			want: []string{"alpha", "beta"},
		},
		{
			name: "mismatched names do not pair",
			text: "[A*]left[*B] [C*]right[*C]",
			want: []string{"right"},
		},
		{
			name: "lowercase names are not markers",
			text: "[a*]nope[*a]",
			want: nil,
		},
		{
			name: "non-greedy match",
			text: "[A*]one[*A] middle [A*]two[*A]",
			want: []string{"one", "two"},
		},
		{
			name: "unclosed marker skipped",
			text: "[A*]dangling [B*]closed[*B]",
			want: []string{"closed"},
		},
		{
			name: "nested different name stays in outer span",
			text: "[A*]outer [B*]inner[*B] end[*A]",
			want: []string{"outer [B*]inner[*B] end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	spans := Spans("[X_1*] a [*X_1][Y*]b[*Y]")
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "X_1" || spans[0].Text != " a " {
		t.Errorf("unexpected first span: %+v", spans[0])
	}
	if spans[1].Name != "Y" || spans[1].Text != "b" {
		t.Errorf("unexpected second span: %+v", spans[1])
	}
}

func TestUnion(t *testing.T) {
	got := Union([]string{"b", "a"}, nil, []string{"c", "a"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Union() = %q, want %q", got, want)
	}
	if Union() != nil {
		t.Error("expected nil for empty union")
	}
}
