package chat

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Tell me about Go", "Tell me about Go"},
		{"collapses whitespace", "  hello\n\n  world\t!  ", "hello world !"},
		{"empty falls back", "   \n\t ", "New chat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveTitle(tc.in); got != tc.want {
				t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeriveTitle_TruncatesOnWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 30) // 150 chars
	got := DeriveTitle(long)
	if utf8.RuneCountInString(got) > 80 {
		t.Fatalf("title too long: %d runes", utf8.RuneCountInString(got))
	}
	if strings.HasSuffix(got, " ") || !strings.HasSuffix(got, "word") {
		t.Fatalf("expected cut on word boundary, got %q", got)
	}
}

func TestDeriveTitle_MultibyteSafe(t *testing.T) {
	long := strings.Repeat("héllo wörld ", 20)
	got := DeriveTitle(long)
	if !utf8.ValidString(got) {
		t.Fatalf("invalid utf8: %q", got)
	}
	if utf8.RuneCountInString(got) > 80 {
		t.Fatalf("title too long: %d runes", utf8.RuneCountInString(got))
	}
}
