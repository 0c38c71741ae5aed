package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighLowByte(t *testing.T) {
	tests := []struct {
		name string
		word uint16
		high byte
		low  byte
	}{
		{name: "zero", word: 0x0000, high: 0x00, low: 0x00},
		{name: "low only", word: 0x0030, high: 0x00, low: 0x30},
		{name: "high only", word: 0x1000, high: 0x10, low: 0x00},
		{name: "mixed", word: 0x1009, high: 0x10, low: 0x09},
		{name: "max", word: 0xFFFF, high: 0xFF, low: 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.high, HighByte(tt.word))
			assert.Equal(t, tt.low, LowByte(tt.word))
		})
	}
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{name: "empty data", data: []byte{}, expected: 0x0000},
		{name: "nil data", data: nil, expected: 0x0000},
		{name: "open command header", data: []byte{0x55, 0xAA, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01}, expected: 0x0102},
		{name: "all 0xFF", data: []byte{0xFF, 0xFF, 0xFF, 0xFF}, expected: 0x03FC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Checksum(tt.data))
		})
	}
}

func TestChecksum_Wraps(t *testing.T) {
	// 258 bytes of 0xFF sum to 0x100FE, which truncates to 0x00FE.
	data := make([]byte, 258)
	for i := range data {
		data[i] = 0xFF
	}

	assert.Equal(t, uint16(0x00FE), Checksum(data))
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "", HexDump(nil))
	assert.Equal(t, "55", HexDump([]byte{0x55}))
	assert.Equal(t, "55 aa 01 00", HexDump([]byte{0x55, 0xAA, 0x01, 0x00}))
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(data)
	}
}
