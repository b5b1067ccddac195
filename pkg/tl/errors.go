package tl

import "errors"

var (
	// ErrUnexpectedEOF is returned when the input ends before a field is
	// fully read.
	ErrUnexpectedEOF = errors.New("tl: unexpected end of input")

	// ErrBadMagic is returned when a boxed structure's magic constructor id
	// does not match what the reader expected.
	ErrBadMagic = errors.New("tl: unknown or unexpected magic")

	// ErrNegativeLength is returned when a vector header reports a negative
	// element count. Lengths are not otherwise bounded here; a length that
	// runs past the end of the input fails with ErrUnexpectedEOF instead.
	ErrNegativeLength = errors.New("tl: invalid length prefix")

	// ErrTrailingData is returned when a reader finishes parsing a
	// top-level structure but bytes remain in the input.
	ErrTrailingData = errors.New("tl: trailing data after structure")
)
