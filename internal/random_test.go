package internal

import "testing"

func TestRandomBytesLengthAndVariance(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("random bytes: %v", err)
	}
	b, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("random bytes: %v", err)
	}
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if string(a) == string(b) {
		t.Fatal("expected two draws to differ")
	}
}

func TestSHA256HexKnownVector(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := SHA256Hex("abc"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
