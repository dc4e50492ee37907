// Package bitpack reads fixed-width indices out of packed 64-bit word arrays
// in the layout used by block states before 1.16, where an index may straddle
// two adjacent words.
package bitpack

import "math/bits"

// MinPaletteBits is the smallest width used for section block state indices.
const MinPaletteBits = 4

// Extract returns index i of width bitsPerIndex from words.
// Bit position i*bitsPerIndex counts from the least significant bit of words[0].
// Caller guarantees 1 <= bitsPerIndex <= 32 and that the index lies inside words.
func Extract(words []uint64, i, bitsPerIndex int) uint64 {
	mask := uint64(1)<<uint(bitsPerIndex) - 1
	startBit := i * bitsPerIndex
	startWord := startBit >> 6
	endWord := ((i+1)*bitsPerIndex - 1) >> 6
	startOffset := uint(startBit & 63)
	if startWord == endWord {
		return (words[startWord] >> startOffset) & mask
	}
	endOffset := uint(64 - startOffset)
	return (words[startWord]>>startOffset | words[endWord]<<endOffset) & mask
}

// PaletteBits is the index width for a palette with n entries:
// ceil(log2(n)) but never below MinPaletteBits.
func PaletteBits(n int) int {
	if n <= 1 {
		return MinPaletteBits
	}
	b := bits.Len(uint(n - 1))
	if b < MinPaletteBits {
		return MinPaletteBits
	}
	return b
}

// WordsFor is the number of words needed to hold count indices of the given width.
func WordsFor(count, bitsPerIndex int) int {
	return (count*bitsPerIndex + 63) / 64
}

// Pack is the inverse of Extract, used to build block state arrays.
func Pack(values []uint64, bitsPerIndex int) []uint64 {
	words := make([]uint64, WordsFor(len(values), bitsPerIndex))
	mask := uint64(1)<<uint(bitsPerIndex) - 1
	for i, v := range values {
		v &= mask
		startBit := i * bitsPerIndex
		startWord := startBit >> 6
		startOffset := uint(startBit & 63)
		words[startWord] |= v << startOffset
		if startOffset+uint(bitsPerIndex) > 64 {
			words[startWord+1] |= v >> (64 - startOffset)
		}
	}
	return words
}
