package packet

import "encoding/binary"

// Frame layout constants.
const (
	// StartCode1 is the first byte of every command and response frame.
	StartCode1 byte = 0x55
	// StartCode2 is the second byte of every command and response frame.
	StartCode2 byte = 0xAA
	// DeviceID1 is the low byte of the device ID. It never changes in practice.
	DeviceID1 byte = 0x01
	// DeviceID2 is the high byte of the device ID.
	DeviceID2 byte = 0x00

	// FrameSize is the size of a command or response frame in bytes.
	FrameSize = 12

	// checksumOffset is where the 2-byte checksum starts; the checksum covers
	// every byte before it.
	checksumOffset = 10
	paramOffset    = 4
	cmdOffset      = 8

	// AckByte is the value of byte 8 in a positive response frame.
	AckByte = byte(Ack)
)

// Request is a 12-byte command frame ready to be written to the sensor.
type Request [FrameSize]byte

// Encode builds the command frame for cmd with the given parameter.
func Encode(cmd Command, param uint32) Request {
	var req Request

	req[0] = StartCode1
	req[1] = StartCode2
	req[2] = DeviceID1
	req[3] = DeviceID2

	p := ParameterBytes(param)
	copy(req[paramOffset:paramOffset+4], p[:])

	req[cmdOffset] = LowByte(uint16(cmd))
	req[cmdOffset+1] = HighByte(uint16(cmd))

	// covers bytes 0..8; the opcode high byte is zero for every defined command
	cs := Checksum(req[:cmdOffset+1])
	req[checksumOffset] = LowByte(cs)
	req[checksumOffset+1] = HighByte(cs)

	return req
}

// ParameterBytes splits n into 4 little-endian bytes.
func ParameterBytes(n uint32) [4]byte {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], n)

	return p
}

// ParameterValue reassembles 4 little-endian bytes into an integer.
func ParameterValue(p [4]byte) uint32 {
	return binary.LittleEndian.Uint32(p[:])
}

// Bytes returns the frame as a byte slice.
func (r Request) Bytes() []byte {
	return r[:]
}

// Command returns the opcode carried by the frame.
func (r Request) Command() Command {
	return Command(uint16(r[cmdOffset]) | uint16(r[cmdOffset+1])<<8)
}

// Parameter returns the 32-bit parameter carried by the frame.
func (r Request) Parameter() uint32 {
	return binary.LittleEndian.Uint32(r[paramOffset : paramOffset+4])
}

// Checksum returns the checksum stored in the last two bytes.
func (r Request) Checksum() uint16 {
	return uint16(r[checksumOffset]) | uint16(r[checksumOffset+1])<<8
}

// String returns the frame as a hex dump.
func (r Request) String() string {
	return HexDump(r[:])
}
