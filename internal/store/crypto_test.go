package store

import "testing"

func TestNewCryptorReturnsNilForEmptyPassphrase(t *testing.T) {
	c, err := NewCryptor("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected a nil cryptor when encryption is disabled")
	}
}

func TestCryptorEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCryptor("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plaintext := []byte(`{"hello":"world"}`)

	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("unexpected encrypt error: %v", err)
	}
	if string(ciphertext) == string(plaintext) {
		t.Fatal("expected ciphertext to differ from plaintext")
	}

	decrypted, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("unexpected decrypt error: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Fatalf("expected round-tripped plaintext, got %q", decrypted)
	}
}

func TestCryptorDecryptRejectsWrongKey(t *testing.T) {
	c1, _ := NewCryptor("passphrase-one")
	c2, _ := NewCryptor("passphrase-two")

	ciphertext, err := c1.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c2.Decrypt(ciphertext); err == nil {
		t.Fatal("expected decryption with the wrong key to fail")
	}
}

func TestCryptorDecryptRejectsTruncatedCiphertext(t *testing.T) {
	c, _ := NewCryptor("passphrase")
	if _, err := c.Decrypt([]byte("short")); err == nil {
		t.Fatal("expected decryption of too-short ciphertext to fail")
	}
}
