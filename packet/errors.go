package packet

import (
	"errors"
	"fmt"
)

// Sentinel errors for response frame validation.
var (
	ErrInvalidStartCode = errors.New("packet: invalid start code")
	ErrChecksumMismatch = errors.New("packet: checksum mismatch")
	ErrIncompleteFrame  = errors.New("packet: incomplete frame")
)

// ErrorCode is a sensor error code carried in a Nack response.
type ErrorCode uint16

// Sensor error codes.
const (
	// NoError is the default value.
	NoError ErrorCode = 0x0000
	// NackTimeout is an obsolete capture timeout.
	NackTimeout ErrorCode = 0x1001
	// NackInvalidBaudrate is an obsolete invalid baud rate error.
	NackInvalidBaudrate ErrorCode = 0x1002
	// NackInvalidPos means the ID is not between 0 and 199.
	NackInvalidPos ErrorCode = 0x1003
	// NackIsNotUsed means the ID is not used.
	NackIsNotUsed ErrorCode = 0x1004
	// NackIsAlreadyUsed means the ID is already used.
	NackIsAlreadyUsed ErrorCode = 0x1005
	// NackCommErr is a communication error.
	NackCommErr ErrorCode = 0x1006
	// NackVerifyFailed is a 1:1 verification failure.
	NackVerifyFailed ErrorCode = 0x1007
	// NackIdentifyFailed is a 1:N identification failure.
	NackIdentifyFailed ErrorCode = 0x1008
	// NackDBIsFull means the database is full.
	NackDBIsFull ErrorCode = 0x1009
	// NackDBIsEmpty means the database is empty.
	NackDBIsEmpty ErrorCode = 0x100A
	// NackTurnErr is an obsolete enrollment order error.
	NackTurnErr ErrorCode = 0x100B
	// NackBadFinger means the fingerprint is too bad.
	NackBadFinger ErrorCode = 0x100C
	// NackEnrollFailed is an enrollment failure.
	NackEnrollFailed ErrorCode = 0x100D
	// NackIsNotSupported means the command is not supported.
	NackIsNotSupported ErrorCode = 0x100E
	// NackDevErr is a device error, typically the crypto chip.
	NackDevErr ErrorCode = 0x100F
	// NackCaptureCanceled is an obsolete capture-canceled error.
	NackCaptureCanceled ErrorCode = 0x1010
	// NackInvalidParam means the parameter is invalid.
	NackInvalidParam ErrorCode = 0x1011
	// NackFingerIsNotPressed means no finger is on the sensor.
	NackFingerIsNotPressed ErrorCode = 0x1012
	// Invalid marks a code that is not in the table.
	Invalid ErrorCode = 0xFFFF
)

var errorNames = map[ErrorCode]string{
	NoError:                "NO_ERROR",
	NackTimeout:            "NACK_TIMEOUT",
	NackInvalidBaudrate:    "NACK_INVALID_BAUDRATE",
	NackInvalidPos:         "NACK_INVALID_POS",
	NackIsNotUsed:          "NACK_IS_NOT_USED",
	NackIsAlreadyUsed:      "NACK_IS_ALREADY_USED",
	NackCommErr:            "NACK_COMM_ERR",
	NackVerifyFailed:       "NACK_VERIFY_FAILED",
	NackIdentifyFailed:     "NACK_IDENTIFY_FAILED",
	NackDBIsFull:           "NACK_DB_IS_FULL",
	NackDBIsEmpty:          "NACK_DB_IS_EMPTY",
	NackTurnErr:            "NACK_TURN_ERR",
	NackBadFinger:          "NACK_BAD_FINGER",
	NackEnrollFailed:       "NACK_ENROLL_FAILED",
	NackIsNotSupported:     "NACK_IS_NOT_SUPPORTED",
	NackDevErr:             "NACK_DEV_ERR",
	NackCaptureCanceled:    "NACK_CAPTURE_CANCELED",
	NackInvalidParam:       "NACK_INVALID_PARAM",
	NackFingerIsNotPressed: "NACK_FINGER_IS_NOT_PRESSED",
	Invalid:                "INVALID",
}

// LookupError maps a raw 16-bit code to an ErrorCode, returning Invalid for
// codes outside the table.
func LookupError(code uint16) ErrorCode {
	if _, ok := errorNames[ErrorCode(code)]; ok {
		return ErrorCode(code)
	}

	return Invalid
}

// IsKnown reports whether e is a table entry other than Invalid.
func (e ErrorCode) IsKnown() bool {
	_, ok := errorNames[e]
	return ok && e != Invalid
}

// String returns the datasheet name of the code.
func (e ErrorCode) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}

	return fmt.Sprintf("ErrorCode(0x%04X)", uint16(e))
}
