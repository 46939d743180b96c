package utils

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	sealed, err := c.Encrypt("hey, call me later")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == "hey, call me later" {
		t.Fatal("ciphertext equals plaintext")
	}

	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "hey, call me later" {
		t.Fatalf("round trip mismatch: %q", plain)
	}
}

func TestCipher_EmptyPassthrough(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := c.Encrypt("")
	if err != nil || sealed != "" {
		t.Fatalf("empty encrypt: %q, %v", sealed, err)
	}
}

func TestCipher_BadKey(t *testing.T) {
	if _, err := NewCipher(""); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := NewCipher("not base64!!"); err == nil {
		t.Fatal("expected error for malformed key")
	}
	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	if _, err := NewCipher(short); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestCipher_TamperedCiphertext(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := c.Encrypt("secret")
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Fatal("tampered ciphertext must not decrypt")
	}
}

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword("s3cret-pass", hash)
	if err != nil || !ok {
		t.Fatalf("verify correct password: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	if _, err := VerifyPassword("x", "not-a-hash"); err == nil {
		t.Fatal("expected format error")
	}
}

func TestValidateUsername(t *testing.T) {
	for _, valid := range []string{"dana", "user_99", "A1b2c3"} {
		if err := ValidateUsername(valid); err != nil {
			t.Errorf("ValidateUsername(%q) = %v", valid, err)
		}
	}
	for _, invalid := range []string{"ab", "_leading", "has space", "way_too_long_username_here"} {
		if err := ValidateUsername(invalid); err == nil {
			t.Errorf("ValidateUsername(%q) accepted", invalid)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	got := NormalizePhone("+1 (555) 010-2030")
	if got != "+15550102030" {
		t.Fatalf("NormalizePhone = %q", got)
	}
	if err := ValidatePhone("+1 (555) 010-2030"); err != nil {
		t.Fatalf("ValidatePhone: %v", err)
	}
	if err := ValidatePhone("12ab34"); err == nil {
		t.Fatal("expected invalid phone")
	}
}
