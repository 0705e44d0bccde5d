package util

import "testing"

func TestDigestIsStableHex(t *testing.T) {
	req := map[string]any{"technologies": []string{"React", "Node.js"}}
	got := Digest(req)
	if got != Digest(map[string]any{"technologies": []string{"React", "Node.js"}}) {
		t.Fatalf("expected stable digest, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("digest contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestDigestDiffersByContent(t *testing.T) {
	if Digest([]string{"React"}) == Digest([]string{"Vue"}) {
		t.Fatalf("expected different digests")
	}
}

func TestDigestUnencodable(t *testing.T) {
	if got := Digest(make(chan int)); got != "" {
		t.Fatalf("expected empty digest, got %q", got)
	}
}
