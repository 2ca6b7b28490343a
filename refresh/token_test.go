package refresh

import "testing"

func TestGenerateShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(tok) != EncodedLen || !Valid(tok) {
			t.Fatalf("unexpected token shape %q", tok)
		}
		if _, dup := seen[tok]; dup {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = struct{}{}
	}
}

func TestDigestDeterministicAndDistinct(t *testing.T) {
	a, _ := Generate()
	b, _ := Generate()

	if Digest(a) != Digest(a) {
		t.Fatal("expected digest to be deterministic")
	}
	if Digest(a) == Digest(b) {
		t.Fatal("expected distinct tokens to have distinct digests")
	}
	if len(Digest(a)) != DigestLen {
		t.Fatalf("expected %d-char digest, got %d", DigestLen, len(Digest(a)))
	}
	if Digest(a) == a {
		t.Fatal("digest must not equal plaintext")
	}
}

func TestValidRejectsMalformed(t *testing.T) {
	tok, _ := Generate()
	cases := []string{
		"",
		"abc",
		tok[:EncodedLen-1],
		tok + "0",
		"Z" + tok[1:],
		"A" + tok[1:],
	}
	for _, c := range cases {
		if Valid(c) {
			t.Fatalf("expected %q to be rejected", c)
		}
	}
}
