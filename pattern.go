package vsyncio

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

const patternWordSize = 8

// the pattern is a stream of 8-byte words, each one the murmur3 hash of
// its own absolute file offset, so any range can be produced or checked
// without knowing how it was split into requests.
func patternWord(base uint64, seed uint32) [patternWordSize]byte {
	var key, word [patternWordSize]byte
	binary.LittleEndian.PutUint64(key[:], base)
	binary.LittleEndian.PutUint64(word[:], murmur3.Sum64WithSeed(key[:], seed))
	return word
}

func FillPattern(buf []byte, off uint64, seed uint32) {
	for idx := 0; idx < len(buf); {
		pos := off + uint64(idx)
		base := pos - pos%patternWordSize
		word := patternWord(base, seed)
		idx += copy(buf[idx:], word[pos-base:])
	}
}

// VerifyPattern returns the index of the first byte that does not match,
// or -1.
func VerifyPattern(buf []byte, off uint64, seed uint32) int {
	for idx := 0; idx < len(buf); {
		pos := off + uint64(idx)
		base := pos - pos%patternWordSize
		word := patternWord(base, seed)

		for _, b := range word[pos-base:] {
			if idx >= len(buf) {
				break
			}
			if buf[idx] != b {
				return idx
			}
			idx++
		}
	}
	return -1
}
