package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTextStripsTagsAndCollapsesWhitespace(t *testing.T) {
	got := Text("  <b>silk</b>\n\t saree &amp; <script>x</script>dupatta ")
	if got != "silk saree & xdupatta" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	got := Truncate("éééé", 2)
	if got != "éé" {
		t.Fatalf("expected two runes, got %q", got)
	}
	if Truncate("abc", 10) != "abc" {
		t.Fatalf("short input must be unchanged")
	}
	if Truncate("abc", 0) != "" {
		t.Fatalf("zero cap must yield empty string")
	}
}

func TestQueryCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	if got := Query(long, 256); len(got) != 256 {
		t.Fatalf("expected 256 bytes, got %d", len(got))
	}
	if got := Query("   ", 256); got != "" {
		t.Fatalf("expected blank query to be empty, got %q", got)
	}
}

func TestQueryDropsInvalidUTF8(t *testing.T) {
	got := Query("ban\xffa \xc3", 256)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf-8, got %q", got)
	}
	if got != "bana" {
		t.Fatalf("expected invalid bytes dropped, got %q", got)
	}
}
