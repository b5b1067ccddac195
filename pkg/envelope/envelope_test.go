package envelope

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secret := []byte("a shared call secret, 0123456789")
	for _, msg := range [][]byte{
		[]byte(""),
		[]byte("hello"),
		[]byte("a longer payload that spans more than one AES block of plaintext"),
	} {
		ciphertext, err := Encrypt(msg, secret)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", msg, err)
		}
		if len(ciphertext)%blockSize != 0 {
			t.Fatalf("Encrypt(%q): ciphertext length %d not block-aligned", msg, len(ciphertext))
		}
		got, err := Decrypt(ciphertext, secret)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", msg, err)
		}
		if !bytes.Equal(got, msg) {
			t.Errorf("round trip = %q, want %q", got, msg)
		}
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	secret := []byte("secret")
	msg := []byte("hello")
	a, err := Encrypt(msg, secret)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt(msg, secret)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same message must differ (random prefix)")
	}
}

func TestDeterministicPrefixIsReproducible(t *testing.T) {
	a := genDeterministicPrefix(5, minPadding)
	b := genDeterministicPrefix(5, minPadding)
	if !bytes.Equal(a, b) {
		t.Fatalf("genDeterministicPrefix must be reproducible for identical inputs: %x vs %x", a, b)
	}
	if len(a)+5 < blockSize || (len(a)+5)%blockSize != 0 {
		t.Fatalf("prefix+data length %d not block-aligned", len(a)+5)
	}
	if int(a[0]) != len(a) {
		t.Fatalf("prefix[0] = %d, want len(prefix) = %d", a[0], len(a))
	}
}

func TestDecryptRejectsWrongSecret(t *testing.T) {
	ciphertext, err := Encrypt([]byte("hello"), []byte("secret-a"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(ciphertext, []byte("secret-b")); err != ErrMacMismatch {
		t.Errorf("Decrypt(wrong secret) = %v, want ErrMacMismatch", err)
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	secret := []byte("secret")
	ciphertext, err := Encrypt([]byte("hello world, this spans a block"), secret)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := Decrypt(tampered, secret); err != ErrMacMismatch {
		t.Errorf("Decrypt(tampered) = %v, want ErrMacMismatch", err)
	}
}

func TestDecryptRejectsShortOrUnalignedInput(t *testing.T) {
	if _, err := Decrypt(make([]byte, 8), []byte("secret")); err != ErrInvalidLength {
		t.Errorf("short input: got %v, want ErrInvalidLength", err)
	}
	if _, err := Decrypt(make([]byte, 17), []byte("secret")); err != ErrInvalidLength {
		t.Errorf("unaligned input: got %v, want ErrInvalidLength", err)
	}
}

func TestHeaderEncryptDecryptRoundTrip(t *testing.T) {
	secret := []byte("an ECDH-derived shared secret")
	header := bytes.Repeat([]byte{0x09}, headerSize)
	// encryptedMessage only needs a stable first 16 bytes for this codec.
	encryptedMessage, err := Encrypt([]byte("group shared key payload"), []byte("unrelated-secret"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	wrapped, err := EncryptHeader(header, encryptedMessage, secret)
	if err != nil {
		t.Fatalf("EncryptHeader: %v", err)
	}
	if len(wrapped) != headerSize {
		t.Fatalf("len(wrapped) = %d, want %d", len(wrapped), headerSize)
	}

	recovered, err := DecryptHeader(wrapped, encryptedMessage, secret)
	if err != nil {
		t.Fatalf("DecryptHeader: %v", err)
	}
	if !bytes.Equal(recovered, header) {
		t.Errorf("recovered header = %x, want %x", recovered, header)
	}
}

func TestHeaderRejectsBadSizes(t *testing.T) {
	secret := []byte("secret")
	shortMsg := make([]byte, 4)
	fullMsg := make([]byte, 32)
	goodHeader := make([]byte, headerSize)

	if _, err := EncryptHeader(goodHeader, shortMsg, secret); err != ErrInvalidHeaderSize {
		t.Errorf("short message: got %v, want ErrInvalidHeaderSize", err)
	}
	if _, err := EncryptHeader(make([]byte, 10), fullMsg, secret); err != ErrInvalidHeaderSize {
		t.Errorf("short header: got %v, want ErrInvalidHeaderSize", err)
	}
}
