package fps

import (
	"context"
	"fmt"
	"math"

	"github.com/arloliu/go-fps/packet"
)

func idParam(id int) (uint32, error) {
	if id < 0 || id > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	return uint32(id), nil
}

func boolParam(b bool) uint32 {
	if b {
		return 1
	}

	return 0
}

// ack runs cmd and reports whether the device acknowledged it.
func (s *Sensor) ack(ctx context.Context, cmd packet.Command, param uint32) (bool, error) {
	rsp, err := s.exchange(ctx, cmd, param)
	if err != nil {
		return false, err
	}

	return rsp.ACK, nil
}

// Open sends the Open command, asking the device for its info block.
func (s *Sensor) Open(ctx context.Context) (bool, error) {
	return s.ack(ctx, packet.Open, 1)
}

// SetLED switches the CMOS backlight on or off.
func (s *Sensor) SetLED(ctx context.Context, on bool) (bool, error) {
	return s.ack(ctx, packet.CmosLed, boolParam(on))
}

// EnrollCount returns the number of enrolled templates. A rejected request
// counts as zero.
func (s *Sensor) EnrollCount(ctx context.Context) (int, error) {
	rsp, err := s.exchange(ctx, packet.GetEnrollCount, 0)
	if err != nil {
		return 0, err
	}
	if !rsp.ACK {
		return 0, nil
	}

	return int(rsp.Parameter()), nil
}

// CheckEnrolled reports whether id holds a template.
func (s *Sensor) CheckEnrolled(ctx context.Context, id int) (bool, error) {
	param, err := idParam(id)
	if err != nil {
		return false, err
	}

	return s.ack(ctx, packet.CheckEnrolled, param)
}

// EnrollStart begins enrollment into id.
func (s *Sensor) EnrollStart(ctx context.Context, id int) (EnrollStartResult, error) {
	param, err := idParam(id)
	if err != nil {
		return EnrollStartUnknown, err
	}

	rsp, err := s.exchange(ctx, packet.EnrollStart, param)
	if err != nil {
		return EnrollStartUnknown, err
	}
	if rsp.ACK {
		return EnrollStartOK, nil
	}

	switch rsp.Error {
	case packet.NackDBIsFull:
		return EnrollStartDatabaseFull, nil
	case packet.NackInvalidPos:
		return EnrollStartInvalidPosition, nil
	case packet.NackIsAlreadyUsed:
		return EnrollStartAlreadyUsed, nil
	default:
		return EnrollStartUnknown, nil
	}
}

// Enroll1 merges the captured finger as the first enrollment template.
func (s *Sensor) Enroll1(ctx context.Context) (EnrollResult, error) {
	return s.enrollStep(ctx, packet.Enroll1)
}

// Enroll2 merges the captured finger as the second enrollment template.
func (s *Sensor) Enroll2(ctx context.Context) (EnrollResult, error) {
	return s.enrollStep(ctx, packet.Enroll2)
}

// Enroll3 merges the captured finger as the third template and, on success,
// stores the enrollment.
func (s *Sensor) Enroll3(ctx context.Context) (EnrollResult, error) {
	return s.enrollStep(ctx, packet.Enroll3)
}

func (s *Sensor) enrollStep(ctx context.Context, cmd packet.Command) (EnrollResult, error) {
	rsp, err := s.exchange(ctx, cmd, 0)
	if err != nil {
		return EnrollUnknown, err
	}

	return enrollResult(rsp), nil
}

func enrollResult(rsp *packet.Response) EnrollResult {
	if rsp.ACK {
		return EnrollOK
	}

	switch rsp.Error {
	case packet.NackEnrollFailed:
		return EnrollFailed
	case packet.NackBadFinger:
		return EnrollBadFinger
	}

	// a duplicate finger is reported with the matching ID as the parameter
	if rsp.Parameter() < DatabaseSize {
		return EnrollDuplicate
	}

	return EnrollUnknown
}

// IsPressFinger reports whether a finger is on the sensor.
func (s *Sensor) IsPressFinger(ctx context.Context) (bool, error) {
	rsp, err := s.exchange(ctx, packet.IsPressFinger, 0)
	if err != nil {
		return false, err
	}

	return rsp.ParameterSum() == 0, nil
}

// DeleteID removes the template stored under id.
func (s *Sensor) DeleteID(ctx context.Context, id int) (bool, error) {
	param, err := idParam(id)
	if err != nil {
		return false, err
	}

	return s.ack(ctx, packet.DeleteID, param)
}

// DeleteAll clears the template database.
func (s *Sensor) DeleteAll(ctx context.Context) (bool, error) {
	return s.ack(ctx, packet.DeleteAll, 0)
}

// Verify matches the captured finger against the template stored under id.
func (s *Sensor) Verify(ctx context.Context, id int) (VerifyResult, error) {
	param, err := idParam(id)
	if err != nil {
		return VerifyUnknown, err
	}

	rsp, err := s.exchange(ctx, packet.Verify1_1, param)
	if err != nil {
		return VerifyUnknown, err
	}
	if rsp.ACK {
		return VerifyOK, nil
	}

	switch rsp.Error {
	case packet.NackInvalidPos:
		return VerifyInvalidPosition, nil
	case packet.NackIsNotUsed:
		return VerifyNotUsed, nil
	case packet.NackVerifyFailed:
		return VerifyFailed, nil
	default:
		return VerifyUnknown, nil
	}
}

// Identify matches the captured finger against the whole database and
// returns the matching ID, or IdentifyNotFound.
func (s *Sensor) Identify(ctx context.Context) (int, error) {
	rsp, err := s.exchange(ctx, packet.Identify1_N, 0)
	if err != nil {
		return IdentifyNotFound, err
	}
	if !rsp.ACK {
		return IdentifyNotFound, nil
	}

	return int(min(rsp.Parameter(), IdentifyNotFound)), nil
}

// CaptureFinger captures a fingerprint image. highQuality selects the slower
// capture mode meant for enrollment.
func (s *Sensor) CaptureFinger(ctx context.Context, highQuality bool) (bool, error) {
	return s.ack(ctx, packet.CaptureFinger, boolParam(highQuality))
}

// GetImage downloads the captured fingerprint image. On success the image
// data packet is available as LastResponse().Payload().
func (s *Sensor) GetImage(ctx context.Context) (bool, error) {
	return s.ack(ctx, packet.GetImage, 0)
}

// GetRawImage captures and downloads a raw image without a finger check. On
// success the data packet is available as LastResponse().Payload().
func (s *Sensor) GetRawImage(ctx context.Context) (bool, error) {
	return s.ack(ctx, packet.GetRawImage, 0)
}

// GetTemplate downloads the template stored under id. On success the
// template data packet is available as LastResponse().Payload().
func (s *Sensor) GetTemplate(ctx context.Context, id int) (TemplateResult, error) {
	param, err := idParam(id)
	if err != nil {
		return TemplateUnknown, err
	}

	rsp, err := s.exchange(ctx, packet.GetTemplate, param)
	if err != nil {
		return TemplateUnknown, err
	}
	if rsp.ACK {
		return TemplateOK, nil
	}

	switch rsp.Error {
	case packet.NackInvalidPos:
		return TemplateInvalidPosition, nil
	case packet.NackIsNotUsed:
		return TemplateNotUsed, nil
	default:
		return TemplateUnknown, nil
	}
}
