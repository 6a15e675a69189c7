package main

import "testing"

func TestSplitRevPair(t *testing.T) {
	r1, r2, err := splitRevPair("abc:def")
	if err != nil || r1 != "abc" || r2 != "def" {
		t.Fatalf("unexpected result: %q %q %v", r1, r2, err)
	}
	// A second colon belongs to the right-hand side.
	r1, r2, err = splitRevPair("a:b:c")
	if err != nil || r1 != "a" || r2 != "b:c" {
		t.Fatalf("unexpected result: %q %q %v", r1, r2, err)
	}
	for _, bad := range []string{"", "abc", ":def", "abc:"} {
		if _, _, err := splitRevPair(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestResolveRev(t *testing.T) {
	history := []string{"aabbcc", "aaddee", "ffeedd", "ffeedd"}

	rev, err := resolveRev(history, "aab")
	if err != nil || rev != "aabbcc" {
		t.Fatalf("unexpected result: %q %v", rev, err)
	}
	// A duplicated history entry is still a unique revision.
	rev, err = resolveRev(history, "ff")
	if err != nil || rev != "ffeedd" {
		t.Fatalf("unexpected result: %q %v", rev, err)
	}
	if _, err := resolveRev(history, "aa"); err == nil {
		t.Fatalf("expected ambiguity error")
	}
	if _, err := resolveRev(history, "zz"); err == nil {
		t.Fatalf("expected no-match error")
	}
}

func TestCompressorByName(t *testing.T) {
	for _, name := range []string{"zstd", "snappy", "none"} {
		if _, err := compressorByName(name); err != nil {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
	}
	if _, err := compressorByName("lz77"); err == nil {
		t.Fatalf("expected error for unknown compressor")
	}
}

func TestShortRev(t *testing.T) {
	if got := shortRev("0123456789abcdefgh"); got != "0123456789ab" {
		t.Fatalf("unexpected short rev: %q", got)
	}
	if got := shortRev("abc"); got != "abc" {
		t.Fatalf("short ids pass through: %q", got)
	}
}
