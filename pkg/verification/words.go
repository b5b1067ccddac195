package verification

import "github.com/tde2e/callcore/pkg/crypto"

const (
	wordBits  = 11
	wordCount = 4
)

// deriveWords reads four 11-bit indices from the high bits of digest and
// maps each to wordList, producing a short human-comparable rendering of
// a 32-byte hash.
func deriveWords(digest crypto.Hash256) []string {
	words := make([]string, wordCount)
	for i := 0; i < wordCount; i++ {
		idx := readBits(digest[:], i*wordBits, wordBits)
		words[i] = wordList[idx]
	}
	return words
}

// readBits reads the n-bit big-endian value starting at bit offset
// offset (0 = most significant bit of data[0]).
func readBits(data []byte, offset, n int) int {
	v := 0
	for i := 0; i < n; i++ {
		bitPos := offset + i
		byteIndex := bitPos / 8
		bitIndex := 7 - bitPos%8
		bit := (data[byteIndex] >> uint(bitIndex)) & 1
		v = (v << 1) | int(bit)
	}
	return v
}
