package packet

import (
	"encoding/binary"
	"fmt"
)

// Response is a decoded response frame, plus any trailing bytes drained after it.
//
// A Response built from fewer than FrameSize bytes is incomplete: ACK is false,
// Error is NoError and the parameter is zero. Callers must check Complete
// before acting on Error.
type Response struct {
	// ACK is true when byte 8 of the frame is the Ack code.
	ACK bool
	// ParameterBytes holds frame bytes 4..7.
	ParameterBytes [4]byte
	// ResponseBytes holds frame bytes 8..9, the raw response code.
	ResponseBytes [2]byte
	// Error is the decoded Nack reason. Meaningful only when HasError is true.
	Error ErrorCode
	// Raw holds every byte received for this exchange, including drained data.
	Raw []byte

	complete bool
}

// Decode parses buf into a Response. It never fails; see Response for how
// short input is represented.
func Decode(buf []byte) *Response {
	rsp := &Response{}
	if len(buf) > 0 {
		rsp.Raw = make([]byte, len(buf))
		copy(rsp.Raw, buf)
	}

	if len(buf) < FrameSize {
		return rsp
	}

	rsp.complete = true
	rsp.ACK = buf[cmdOffset] == AckByte
	copy(rsp.ParameterBytes[:], buf[paramOffset:paramOffset+4])
	copy(rsp.ResponseBytes[:], buf[cmdOffset:cmdOffset+2])

	if !rsp.ACK {
		rsp.Error = LookupError(binary.LittleEndian.Uint16(buf[paramOffset : paramOffset+2]))
	}

	return rsp
}

// Complete reports whether a full frame was decoded.
func (r *Response) Complete() bool {
	return r.complete
}

// HasError reports whether the sensor explicitly rejected the command.
func (r *Response) HasError() bool {
	return r.complete && !r.ACK
}

// Parameter returns the 32-bit parameter of the frame.
func (r *Response) Parameter() uint32 {
	return ParameterValue(r.ParameterBytes)
}

// ParameterSum returns the sum of the four parameter bytes.
func (r *Response) ParameterSum() int {
	return int(r.ParameterBytes[0]) + int(r.ParameterBytes[1]) +
		int(r.ParameterBytes[2]) + int(r.ParameterBytes[3])
}

// Append accumulates a drained chunk into Raw.
func (r *Response) Append(chunk []byte) {
	r.Raw = append(r.Raw, chunk...)
}

// Payload returns the bytes received after the response frame.
func (r *Response) Payload() []byte {
	if len(r.Raw) <= FrameSize {
		return nil
	}

	return r.Raw[FrameSize:]
}

// Verify checks the start code and checksum of the response frame.
func (r *Response) Verify() error {
	if !r.complete {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrIncompleteFrame, len(r.Raw), FrameSize)
	}

	if r.Raw[0] != StartCode1 || r.Raw[1] != StartCode2 {
		return fmt.Errorf("%w: 0x%02X 0x%02X", ErrInvalidStartCode, r.Raw[0], r.Raw[1])
	}

	wire := binary.LittleEndian.Uint16(r.Raw[checksumOffset:FrameSize])
	calc := Checksum(r.Raw[:checksumOffset])
	if wire != calc {
		return fmt.Errorf("%w: wire=0x%04X, computed=0x%04X", ErrChecksumMismatch, wire, calc)
	}

	return nil
}

// String returns a short description for logging.
func (r *Response) String() string {
	switch {
	case !r.complete:
		return fmt.Sprintf("incomplete(%d bytes)", len(r.Raw))
	case r.ACK:
		return fmt.Sprintf("ACK param=%d", r.Parameter())
	default:
		return fmt.Sprintf("NACK %s", r.Error)
	}
}
