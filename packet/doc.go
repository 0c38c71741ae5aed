// Package packet implements the GT-511C3 fingerprint sensor wire format.
//
// # Protocol Overview
//
// Every command is a fixed 12-byte frame sent from host to sensor:
//
//	[0x55][0xAA][DEV_ID_L][DEV_ID_H][PARAM(4)][CMD_L][CMD_H][CHECKSUM_L][CHECKSUM_H]
//
// where PARAM is a little-endian 32-bit argument (an ID 0–199, a flag or a baud
// rate) and CHECKSUM is the 16-bit sum of the first 9 bytes.
//
// The sensor answers with a response frame of the same shape whose command
// field carries Ack (0x30) or Nack (0x31). On Nack the low half of the parameter
// holds an error code (see ErrorCode). Commands such as Open or GetImage may
// follow the Ack with trailing data, which the decoder accumulates via
// Response.Append.
//
// # Encoding
//
//	req := packet.Encode(packet.CmosLed, 1)
//	_, err := port.Write(req.Bytes())
//
// # Decoding
//
// Decode never fails. A buffer shorter than a full frame yields a Response
// whose Complete method reports false; such a response carries neither an Ack
// nor an error and must be treated as "no answer yet":
//
//	rsp := packet.Decode(buf)
//	switch {
//	case !rsp.Complete():
//	    // timeout / incomplete
//	case rsp.ACK:
//	    n := rsp.Parameter()
//	default:
//	    code := rsp.Error
//	}
package packet
