package packet

import "fmt"

// HighByte returns the high byte of a 16-bit word.
func HighByte(w uint16) byte {
	return byte(w >> 8)
}

// LowByte returns the low byte of a 16-bit word.
func LowByte(w uint16) byte {
	return byte(w)
}

// Checksum computes the 16-bit checksum of b: the arithmetic sum of all
// unsigned byte values, truncated to 16 bits.
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}

	return sum
}

// HexDump renders b as space-separated lowercase hex pairs, e.g. "55 aa 01 00".
// It is meant for logging only.
func HexDump(b []byte) string {
	return fmt.Sprintf("% x", b)
}
