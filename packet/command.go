package packet

import "fmt"

// Command is a sensor command opcode. The set of commands is closed; the
// driver only issues the ones for which Issued reports true.
type Command uint16

// Command opcodes.
const (
	// NotSet is the zero value. The sensor rejects it.
	NotSet Command = 0x00
	// Open initializes the sensor.
	Open Command = 0x01
	// Close terminates the session. The sensor treats it as a no-op.
	Close Command = 0x02
	// UsbInternalCheck checks whether the connected USB device is valid.
	UsbInternalCheck Command = 0x03
	// ChangeBaudrate changes the UART baud rate.
	ChangeBaudrate Command = 0x04
	// SetIAPMode enters IAP mode for firmware upgrade.
	SetIAPMode Command = 0x05
	// CmosLed switches the CMOS backlight.
	CmosLed Command = 0x12
	// GetEnrollCount returns the number of enrolled fingerprints.
	GetEnrollCount Command = 0x20
	// CheckEnrolled checks whether an ID is enrolled.
	CheckEnrolled Command = 0x21
	// EnrollStart starts an enrollment for an ID.
	EnrollStart Command = 0x22
	// Enroll1 makes the first template of an enrollment.
	Enroll1 Command = 0x23
	// Enroll2 makes the second template of an enrollment.
	Enroll2 Command = 0x24
	// Enroll3 makes the third template, merges all three and stores the result.
	Enroll3 Command = 0x25
	// IsPressFinger checks whether a finger is on the sensor.
	IsPressFinger Command = 0x26
	// DeleteID deletes one enrolled fingerprint.
	DeleteID Command = 0x40
	// DeleteAll clears the fingerprint database.
	DeleteAll Command = 0x41
	// Verify1_1 verifies the captured image against one ID.
	Verify1_1 Command = 0x50
	// Identify1_N identifies the captured image against the database.
	Identify1_N Command = 0x51
	// VerifyTemplate1_1 verifies an uploaded template against one ID.
	VerifyTemplate1_1 Command = 0x52
	// IdentifyTemplate1_N identifies an uploaded template against the database.
	IdentifyTemplate1_N Command = 0x53
	// CaptureFinger captures a fingerprint image into sensor RAM.
	CaptureFinger Command = 0x60
	// MakeTemplate makes a template for transmission.
	MakeTemplate Command = 0x61
	// GetImage downloads the captured 258x202 image.
	GetImage Command = 0x62
	// GetRawImage captures and downloads a raw 160x120 image.
	GetRawImage Command = 0x63
	// GetTemplate downloads the template of an ID.
	GetTemplate Command = 0x70
	// SetTemplate uploads the template of an ID.
	SetTemplate Command = 0x71
	// GetDatabaseStart starts a database download. Obsolete.
	GetDatabaseStart Command = 0x72
	// GetDatabaseEnd ends a database download. Obsolete.
	GetDatabaseEnd Command = 0x73
	// UpgradeFirmware is not supported by the sensor.
	UpgradeFirmware Command = 0x80
	// UpgradeISOCDImage is not supported by the sensor.
	UpgradeISOCDImage Command = 0x81
	// Ack is the positive acknowledgement code carried in response frames.
	Ack Command = 0x30
	// Nack is the negative acknowledgement code carried in response frames.
	Nack Command = 0x31
)

type commandInfo struct {
	name       string
	issued     bool
	hasPayload bool
}

var commandTable = map[Command]commandInfo{
	NotSet:              {name: "NotSet"},
	Open:                {name: "Open", issued: true, hasPayload: true},
	Close:               {name: "Close", issued: true},
	UsbInternalCheck:    {name: "UsbInternalCheck"},
	ChangeBaudrate:      {name: "ChangeBaudrate", issued: true},
	SetIAPMode:          {name: "SetIAPMode"},
	CmosLed:             {name: "CmosLed", issued: true},
	GetEnrollCount:      {name: "GetEnrollCount", issued: true},
	CheckEnrolled:       {name: "CheckEnrolled", issued: true},
	EnrollStart:         {name: "EnrollStart", issued: true},
	Enroll1:             {name: "Enroll1", issued: true},
	Enroll2:             {name: "Enroll2", issued: true},
	Enroll3:             {name: "Enroll3", issued: true},
	IsPressFinger:       {name: "IsPressFinger", issued: true},
	DeleteID:            {name: "DeleteID", issued: true},
	DeleteAll:           {name: "DeleteAll", issued: true},
	Verify1_1:           {name: "Verify1_1", issued: true},
	Identify1_N:         {name: "Identify1_N", issued: true},
	VerifyTemplate1_1:   {name: "VerifyTemplate1_1"},
	IdentifyTemplate1_N: {name: "IdentifyTemplate1_N"},
	CaptureFinger:       {name: "CaptureFinger", issued: true},
	MakeTemplate:        {name: "MakeTemplate", hasPayload: true},
	GetImage:            {name: "GetImage", issued: true, hasPayload: true},
	GetRawImage:         {name: "GetRawImage", issued: true, hasPayload: true},
	GetTemplate:         {name: "GetTemplate", issued: true, hasPayload: true},
	SetTemplate:         {name: "SetTemplate"},
	GetDatabaseStart:    {name: "GetDatabaseStart"},
	GetDatabaseEnd:      {name: "GetDatabaseEnd"},
	UpgradeFirmware:     {name: "UpgradeFirmware"},
	UpgradeISOCDImage:   {name: "UpgradeISOCDImage"},
	Ack:                 {name: "Ack"},
	Nack:                {name: "Nack"},
}

// Commands returns every defined command, ordered by opcode.
func Commands() []Command {
	return []Command{
		NotSet, Open, Close, UsbInternalCheck, ChangeBaudrate, SetIAPMode,
		CmosLed, GetEnrollCount, CheckEnrolled, EnrollStart, Enroll1, Enroll2,
		Enroll3, IsPressFinger, Ack, Nack, DeleteID, DeleteAll, Verify1_1,
		Identify1_N, VerifyTemplate1_1, IdentifyTemplate1_N, CaptureFinger,
		MakeTemplate, GetImage, GetRawImage, GetTemplate, SetTemplate,
		GetDatabaseStart, GetDatabaseEnd, UpgradeFirmware, UpgradeISOCDImage,
	}
}

// IsValid reports whether c is a defined opcode.
func (c Command) IsValid() bool {
	_, ok := commandTable[c]
	return ok
}

// Issued reports whether the driver sends this command. Template upload,
// firmware upgrade, IAP mode and the obsolete database commands are defined
// but never issued.
func (c Command) Issued() bool {
	return commandTable[c].issued
}

// HasPayload reports whether an Ack to c may be followed by trailing data
// that the host should drain.
func (c Command) HasPayload() bool {
	return commandTable[c].hasPayload
}

// String returns the command name, or Command(0xNNNN) for undefined opcodes.
func (c Command) String() string {
	if info, ok := commandTable[c]; ok {
		return info.name
	}

	return fmt.Sprintf("Command(0x%04X)", uint16(c))
}
