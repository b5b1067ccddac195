package crypto

import (
	"crypto/sha512"
	"errors"
	"math/big"

	"golang.org/x/crypto/curve25519"
)

// fieldPrime is 2^255 - 19, the field modulus for Curve25519.
var fieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	return p.Sub(p, big.NewInt(19))
}()

// x25519Scalar derives the Curve25519 clamped scalar for an ed25519 seed,
// the same derivation ed25519 itself performs internally: hash the seed
// with SHA-512 and clamp the low half.
func x25519Scalar(sk PrivateKey) [32]byte {
	h := sha512.Sum512(sk[:])
	var scalar [32]byte
	copy(scalar[:], h[:32])
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64
	return scalar
}

// edwardsYToMontgomeryU converts a compressed Edwards y-coordinate (an
// ed25519 public key, sign bit of x discarded) to the Montgomery
// u-coordinate used by X25519: u = (1+y) / (1-y) mod p.
func edwardsYToMontgomeryU(pk PublicKey) [32]byte {
	yBytes := make([]byte, PublicKeySize)
	copy(yBytes, pk[:])
	yBytes[31] &= 0x7f // clear the sign-of-x bit

	// The encoding is little-endian; big.Int.SetBytes wants big-endian.
	reversed := make([]byte, PublicKeySize)
	for i, b := range yBytes {
		reversed[PublicKeySize-1-i] = b
	}
	y := new(big.Int).SetBytes(reversed)
	y.Mod(y, fieldPrime)

	one := big.NewInt(1)
	numerator := new(big.Int).Add(one, y)
	numerator.Mod(numerator, fieldPrime)
	denominator := new(big.Int).Sub(one, y)
	denominator.Mod(denominator, fieldPrime)
	denominator.ModInverse(denominator, fieldPrime)

	u := numerator.Mul(numerator, denominator)
	u.Mod(u, fieldPrime)

	uBytes := u.Bytes()
	var out [32]byte
	for i, b := range uBytes {
		out[len(uBytes)-1-i] = b
	}
	return out
}

// X25519SharedSecret derives a 32-byte ECDH shared secret between sk and a
// peer's ed25519 PublicKey, applying the standard Curve25519 conversion to
// both sides.
func X25519SharedSecret(sk PrivateKey, peer PublicKey) ([32]byte, error) {
	scalar := x25519Scalar(sk)
	u := edwardsYToMontgomeryU(peer)

	shared, err := curve25519.X25519(scalar[:], u[:])
	if err != nil {
		return [32]byte{}, errors.Join(ErrCryptoFailure, err)
	}
	var out [32]byte
	copy(out[:], shared)
	return out, nil
}
