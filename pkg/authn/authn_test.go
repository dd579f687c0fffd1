package authn

import "testing"

func TestParseBearerToken(t *testing.T) {
	if tok, ok := ParseBearerToken("Bearer abc123"); !ok || tok != "abc123" {
		t.Fatalf("expected abc123, got %q ok=%v", tok, ok)
	}
	if tok, ok := ParseBearerToken("Bearer   padded  "); !ok || tok != "padded" {
		t.Fatalf("expected trimmed token, got %q ok=%v", tok, ok)
	}
	for _, h := range []string{"", "Bearer ", "Basic abc", "bearer abc"} {
		if _, ok := ParseBearerToken(h); ok {
			t.Fatalf("header %q must not parse", h)
		}
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("token-1")
	b := HashToken("token-1")
	c := HashToken("token-2")
	if a != b {
		t.Fatalf("expected deterministic hash")
	}
	if a == c {
		t.Fatalf("expected different hashes for different tokens")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}
