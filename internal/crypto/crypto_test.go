package crypto

import (
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewCipherRejectsShortKey(t *testing.T) {
	if _, err := NewCipher("too-short"); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := NewCipher(testKey); err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	// Longer keys are truncated, not rejected.
	if _, err := NewCipher(testKey + "extra"); err != nil {
		t.Fatalf("NewCipher with long key: %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	for _, plaintext := range []string{
		"",
		"sk-abc123",
		`{"host":"db.internal","password":"p@ss/word"}`,
		strings.Repeat("x", 4096),
	} {
		sealed, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if sealed == plaintext && plaintext != "" {
			t.Fatalf("Encrypt(%q) returned plaintext", plaintext)
		}
		got, err := c.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c, _ := NewCipher(testKey)
	a, _ := c.Encrypt("secret")
	b, _ := c.Encrypt("secret")
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecryptRejectsBadInput(t *testing.T) {
	c, _ := NewCipher(testKey)

	if _, err := c.Decrypt("not base64 !!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := c.Decrypt("c2hvcnQ="); err == nil {
		t.Error("expected error for truncated ciphertext")
	}

	other, _ := NewCipher(strings.Repeat("k", 32))
	sealed, _ := c.Encrypt("secret")
	if _, err := other.Decrypt(sealed); err == nil {
		t.Error("expected error when decrypting under a different key")
	}
}
