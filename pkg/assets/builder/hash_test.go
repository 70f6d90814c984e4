package builder

import (
	"strings"
	"testing"
)

func TestHashVersionStringsIsStableAndOrderSensitive(t *testing.T) {
	h1 := hashVersionStrings([]string{"a", "b"})
	h2 := hashVersionStrings([]string{"a", "b"})
	h3 := hashVersionStrings([]string{"b", "a"})

	if h1 != h2 {
		t.Fatalf("hashVersionStrings not stable across calls: %d != %d", h1, h2)
	}
	if h1 == h3 {
		t.Fatalf("hashVersionStrings should be sensitive to element order")
	}
}

func TestHashReaderMatchesFullContent(t *testing.T) {
	h1, err := hashReader(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("hashReader() error: %v", err)
	}
	h2, err := hashReader(strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("hashReader() error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hashReader not deterministic for identical input")
	}
	h3, _ := hashReader(strings.NewReader("hello worlD"))
	if h1 == h3 {
		t.Fatalf("hashReader should differ for different input")
	}
}
