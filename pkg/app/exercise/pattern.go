package exercise

import (
	"encoding/binary"
	"math/rand"
)

// fillPattern writes the expected plaintext for sectors starting at sector into buf
func fillPattern(pattern string, sector uint64, sectorSize uint32, buf []byte) {
	size := int(sectorSize)
	for off := 0; off+size <= len(buf); off += size {
		fillSector(pattern, sector, buf[off:off+size])
		sector++
	}
}

func fillSector(pattern string, sector uint64, b []byte) {
	switch pattern {
	case PatternZero:
		for i := range b {
			b[i] = 0
		}

	case PatternOnes:
		for i := range b {
			b[i] = 0xFF
		}

	case PatternRandom:
		r := rand.New(rand.NewSource(int64(sector)))
		var word [8]byte
		for i := 0; i < len(b); i += 8 {
			binary.LittleEndian.PutUint64(word[:], r.Uint64())
			copy(b[i:], word[:])
		}

	default:
		for i := range b {
			b[i] = byte(sector) + byte(i)
		}
		if len(b) >= 8 {
			binary.BigEndian.PutUint64(b[:8], sector)
		}
	}
}
