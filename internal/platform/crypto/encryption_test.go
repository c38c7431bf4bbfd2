package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	svc, err := New(strings.Repeat("ab", 32)) // 64 hex chars
	if err != nil {
		t.Fatalf("new error: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}

	plain := []byte(`[{"id":"b1","plan":"pro"}]`)
	sealed, err := svc.Seal(plain)
	if err != nil {
		t.Fatalf("seal error: %v", err)
	}
	if bytes.Equal(sealed, plain) {
		t.Fatal("sealed payload must not equal plaintext")
	}

	opened, err := svc.Open(sealed)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatal("round trip mismatch")
	}
}

func TestUnconfiguredPassthrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new error: %v", err)
	}
	if svc.Configured() {
		t.Fatal("expected unconfigured service")
	}

	plain := []byte("payload")
	sealed, err := svc.Seal(plain)
	if err != nil {
		t.Fatalf("seal error: %v", err)
	}
	if !bytes.Equal(sealed, plain) {
		t.Fatal("unconfigured seal must pass through")
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("too-short"); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestOpenRejectsTruncatedCiphertext(t *testing.T) {
	svc, err := New(strings.Repeat("cd", 32))
	if err != nil {
		t.Fatalf("new error: %v", err)
	}
	if _, err := svc.Open([]byte("short")); err == nil {
		t.Fatal("expected ciphertext error")
	}
}
