package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

// Key and signature sizes.
const (
	PublicKeySize  = 32
	PrivateKeySize = 32
	SignatureSize  = 64
)

// Facade errors.
var (
	// ErrBadSignature is returned by Verify when the signature does not
	// match the message under the given public key.
	ErrBadSignature = errors.New("crypto: bad signature")
	// ErrCryptoFailure wraps an unexpected failure from an underlying
	// primitive (e.g. a CSPRNG draw), per the CryptoFailure error kind.
	ErrCryptoFailure = errors.New("crypto: primitive failure")
)

// PublicKey is a 32-byte ed25519 verification key, also interpretable as an
// X25519 public key via the standard Curve25519 birational conversion.
type PublicKey [PublicKeySize]byte

// PrivateKey is a 32-byte ed25519 seed. It can sign messages and derive an
// X25519 shared secret with a peer's PublicKey.
type PrivateKey [PrivateKeySize]byte

// Signature is a 64-byte ed25519 signature.
type Signature [SignatureSize]byte

// GeneratePrivateKey draws a fresh ed25519 seed from the OS CSPRNG.
func GeneratePrivateKey() (PrivateKey, error) {
	var sk PrivateKey
	if err := SecureRandomInto(sk[:]); err != nil {
		return PrivateKey{}, err
	}
	return sk, nil
}

// Public derives the ed25519 public key for this private key.
func (sk PrivateKey) Public() PublicKey {
	edPriv := ed25519.NewKeyFromSeed(sk[:])
	var pk PublicKey
	copy(pk[:], edPriv[ed25519.PublicKeySize:])
	return pk
}

// Sign signs msg with sk, returning a 64-byte ed25519 signature.
func Sign(sk PrivateKey, msg []byte) Signature {
	edPriv := ed25519.NewKeyFromSeed(sk[:])
	var sig Signature
	copy(sig[:], ed25519.Sign(edPriv, msg))
	return sig
}

// Verify checks sig over msg under pk. Returns ErrBadSignature on mismatch.
func Verify(pk PublicKey, msg []byte, sig Signature) error {
	if !ed25519.Verify(ed25519.PublicKey(pk[:]), msg, sig[:]) {
		return ErrBadSignature
	}
	return nil
}

// SecureRandomBytes draws n cryptographically random bytes from the OS
// CSPRNG.
func SecureRandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := SecureRandomInto(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SecureRandomInto fills buf with CSPRNG output.
func SecureRandomInto(buf []byte) error {
	if _, err := rand.Read(buf); err != nil {
		return errors.Join(ErrCryptoFailure, err)
	}
	return nil
}
