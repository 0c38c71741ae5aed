package simulator

import (
	"slices"

	"github.com/arloliu/go-fps/packet"
)

// handle answers one request frame. It runs with d.mu held.
func (d *Device) handle(req packet.Request) [][]byte {
	raw := req.Bytes()
	if raw[0] != packet.StartCode1 || raw[1] != packet.StartCode2 ||
		packet.Checksum(raw[:packet.FrameSize-2]) != req.Checksum() {
		return [][]byte{nack(packet.NackCommErr)}
	}

	param := req.Parameter()
	switch req.Command() {
	case packet.Open:
		if param == 0 {
			return [][]byte{ack(0)}
		}
		return [][]byte{ack(0), dataPacket(pattern(DeviceInfoSize, 0x11))}

	case packet.Close:
		return [][]byte{ack(0)}

	case packet.ChangeBaudrate:
		if !slices.Contains(supportedBauds, int(param)) { //nolint:gosec
			return [][]byte{nack(packet.NackInvalidParam)}
		}
		// the ACK still goes out at the old rate
		d.baud = int(param) //nolint:gosec
		return [][]byte{ack(0)}

	case packet.CmosLed:
		d.led = param != 0
		return [][]byte{ack(0)}

	case packet.GetEnrollCount:
		return [][]byte{ack(uint32(d.enrolledCount()))} //nolint:gosec

	case packet.CheckEnrolled:
		if code, ok := d.checkUsed(param); !ok {
			return [][]byte{nack(code)}
		}
		return [][]byte{ack(0)}

	case packet.EnrollStart:
		return [][]byte{d.enrollStart(param)}

	case packet.Enroll1, packet.Enroll2, packet.Enroll3:
		return [][]byte{d.enrollStep(int(req.Command()-packet.Enroll1) + 1)}

	case packet.IsPressFinger:
		if d.finger == NoFinger || d.released {
			d.released = false
			return [][]byte{ack(uint32(packet.NackFingerIsNotPressed))}
		}
		return [][]byte{ack(0)}

	case packet.DeleteID:
		if code, ok := d.checkUsed(param); !ok {
			if code == packet.NackIsNotUsed {
				code = packet.NackInvalidPos
			}
			return [][]byte{nack(code)}
		}
		d.templates[param] = NoFinger
		return [][]byte{ack(0)}

	case packet.DeleteAll:
		if d.enrolledCount() == 0 {
			return [][]byte{nack(packet.NackDBIsEmpty)}
		}
		for i := range d.templates {
			d.templates[i] = NoFinger
		}
		return [][]byte{ack(0)}

	case packet.Verify1_1:
		if code, ok := d.checkUsed(param); !ok {
			return [][]byte{nack(code)}
		}
		if d.captured == NoFinger || d.templates[param] != d.captured {
			return [][]byte{nack(packet.NackVerifyFailed)}
		}
		return [][]byte{ack(0)}

	case packet.Identify1_N:
		if d.enrolledCount() == 0 {
			return [][]byte{nack(packet.NackDBIsEmpty)}
		}
		if id := d.lookup(d.captured); id >= 0 {
			return [][]byte{ack(uint32(id))} //nolint:gosec
		}
		return [][]byte{nack(packet.NackIdentifyFailed)}

	case packet.CaptureFinger:
		if d.finger == NoFinger {
			d.captured = NoFinger
			return [][]byte{nack(packet.NackFingerIsNotPressed)}
		}
		d.captured = d.finger
		d.released = d.autoRelease
		return [][]byte{ack(0)}

	case packet.GetImage:
		if d.captured == NoFinger {
			return [][]byte{nack(packet.NackFingerIsNotPressed)}
		}
		return [][]byte{ack(0), dataPacket(pattern(ImageSize, byte(d.captured)))}

	case packet.GetRawImage:
		return [][]byte{ack(0), dataPacket(pattern(RawImageSize, byte(d.finger)))}

	case packet.GetTemplate:
		if code, ok := d.checkUsed(param); !ok {
			return [][]byte{nack(code)}
		}
		return [][]byte{ack(0), dataPacket(pattern(TemplateSize, byte(d.templates[param])))}

	default:
		return [][]byte{nack(packet.NackIsNotSupported)}
	}
}

// checkUsed validates id and reports NackIsNotUsed for an empty slot.
func (d *Device) checkUsed(id uint32) (packet.ErrorCode, bool) {
	if id >= DatabaseSize {
		return packet.NackInvalidPos, false
	}
	if d.templates[id] == NoFinger {
		return packet.NackIsNotUsed, false
	}

	return packet.NoError, true
}

func (d *Device) enrolledCount() int {
	n := 0
	for _, t := range d.templates {
		if t != NoFinger {
			n++
		}
	}

	return n
}

// lookup returns the ID enrolled with identity, or -1.
func (d *Device) lookup(identity int) int {
	if identity == NoFinger {
		return -1
	}

	return slices.Index(d.templates[:], identity)
}

func (d *Device) enrollStart(id uint32) []byte {
	if id >= DatabaseSize {
		return nack(packet.NackInvalidPos)
	}
	if d.enrolledCount() == DatabaseSize {
		return nack(packet.NackDBIsFull)
	}
	if d.templates[id] != NoFinger {
		return nack(packet.NackIsAlreadyUsed)
	}

	d.enrollID = int(id)
	d.enrollStage = 1
	d.enrollFinger = NoFinger

	return ack(0)
}

func (d *Device) enrollStep(stage int) []byte {
	if d.enrollID < 0 || d.enrollStage != stage {
		return nack(packet.NackTurnErr)
	}

	captured := d.captured
	d.captured = NoFinger
	if captured == NoFinger {
		return nack(packet.NackBadFinger)
	}

	switch {
	case stage == 1:
		d.enrollFinger = captured
	case captured != d.enrollFinger:
		d.enrollID = -1
		return nack(packet.NackEnrollFailed)
	}

	if stage < 3 {
		d.enrollStage++
		return ack(0)
	}

	id := d.enrollID
	d.enrollID = -1
	if dup := d.lookup(captured); dup >= 0 {
		return duplicateNack(uint32(dup)) //nolint:gosec
	}
	d.templates[id] = captured

	return ack(0)
}

// duplicateNack is a NACK whose parameter is the already enrolled ID instead
// of an error code.
func duplicateNack(id uint32) []byte {
	rsp := packet.Encode(packet.Nack, id)
	return rsp.Bytes()
}
