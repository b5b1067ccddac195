package verification

import (
	"github.com/tde2e/callcore/pkg/crypto"
	"github.com/tde2e/callcore/pkg/tl"
)

// encodeNonceCommit serializes c as a boxed structure. If zeroSignature is
// true the signature field is written as all zeros; this is the form
// signed and the form whose hash is never taken (broadcasts are verified
// directly, not chained like blocks).
func encodeNonceCommit(c *NonceCommit, zeroSignature bool) []byte {
	w := tl.NewWriter()
	w.Magic(tl.MagicGroupBroadcastNonceCommit)
	if zeroSignature {
		var zero crypto.Signature
		w.Fixed(zero[:])
	} else {
		w.Fixed(c.Signature[:])
	}
	w.Fixed(c.PublicKey[:])
	w.Int32(c.ChainHeight)
	w.Fixed(c.NonceHash[:])
	return w.Bytes()
}

func decodeNonceCommit(r *tl.Reader) (*NonceCommit, error) {
	if err := r.Magic(tl.MagicGroupBroadcastNonceCommit); err != nil {
		return nil, ErrParseError
	}
	sigBytes, err := r.Fixed(crypto.SignatureSize)
	if err != nil {
		return nil, ErrParseError
	}
	pkBytes, err := r.Fixed(crypto.PublicKeySize)
	if err != nil {
		return nil, ErrParseError
	}
	height, err := r.Int32()
	if err != nil {
		return nil, ErrParseError
	}
	hashBytes, err := r.Fixed(crypto.Hash256Size)
	if err != nil {
		return nil, ErrParseError
	}
	if err := r.Done(); err != nil {
		return nil, ErrParseError
	}

	c := &NonceCommit{ChainHeight: height}
	copy(c.Signature[:], sigBytes)
	copy(c.PublicKey[:], pkBytes)
	copy(c.NonceHash[:], hashBytes)
	return c, nil
}

// encodeNonceReveal mirrors encodeNonceCommit for the reveal broadcast.
func encodeNonceReveal(c *NonceReveal, zeroSignature bool) []byte {
	w := tl.NewWriter()
	w.Magic(tl.MagicGroupBroadcastNonceReveal)
	if zeroSignature {
		var zero crypto.Signature
		w.Fixed(zero[:])
	} else {
		w.Fixed(c.Signature[:])
	}
	w.Fixed(c.PublicKey[:])
	w.Int32(c.ChainHeight)
	w.Fixed(c.Nonce[:])
	return w.Bytes()
}

func decodeNonceReveal(r *tl.Reader) (*NonceReveal, error) {
	if err := r.Magic(tl.MagicGroupBroadcastNonceReveal); err != nil {
		return nil, ErrParseError
	}
	sigBytes, err := r.Fixed(crypto.SignatureSize)
	if err != nil {
		return nil, ErrParseError
	}
	pkBytes, err := r.Fixed(crypto.PublicKeySize)
	if err != nil {
		return nil, ErrParseError
	}
	height, err := r.Int32()
	if err != nil {
		return nil, ErrParseError
	}
	nonceBytes, err := r.Fixed(crypto.Hash256Size)
	if err != nil {
		return nil, ErrParseError
	}
	if err := r.Done(); err != nil {
		return nil, ErrParseError
	}

	c := &NonceReveal{ChainHeight: height}
	copy(c.Signature[:], sigBytes)
	copy(c.PublicKey[:], pkBytes)
	copy(c.Nonce[:], nonceBytes)
	return c, nil
}

// decodeBroadcast peeks the leading magic to dispatch between the two
// broadcast kinds, returning either a *NonceCommit or a *NonceReveal.
func decodeBroadcast(data []byte) (interface{}, error) {
	r := tl.NewReader(data)
	magic, err := r.PeekMagic()
	if err != nil {
		return nil, ErrParseError
	}
	switch magic {
	case tl.MagicGroupBroadcastNonceCommit:
		return decodeNonceCommit(r)
	case tl.MagicGroupBroadcastNonceReveal:
		return decodeNonceReveal(r)
	default:
		return nil, ErrParseError
	}
}
