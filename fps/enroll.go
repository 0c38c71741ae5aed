package fps

import (
	"context"
	"time"

	"github.com/arloliu/go-fps/internal/pool"
)

// DefaultFingerPollInterval is the finger polling period used by Enroll and
// WaitFinger when a non-positive interval is given.
const DefaultFingerPollInterval = 100 * time.Millisecond

// WaitFinger polls IsPressFinger every interval until the finger state equals
// pressed or ctx is done.
func (s *Sensor) WaitFinger(ctx context.Context, pressed bool, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFingerPollInterval
	}

	for {
		got, err := s.IsPressFinger(ctx)
		if err != nil {
			return err
		}
		if got == pressed {
			return nil
		}

		if err := pool.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// Enroll runs a complete enrollment of one finger into id: it turns the
// backlight on, starts the enrollment, and for each of the three rounds waits
// for the finger, captures it in high quality, merges it and waits for the
// finger to be lifted.
//
// A rejection by the device is reported as *EnrollError; transport problems
// and context cancellation are returned as is. The backlight is switched off
// before returning.
func (s *Sensor) Enroll(ctx context.Context, id int, poll time.Duration) error {
	if _, err := s.SetLED(ctx, true); err != nil {
		return err
	}
	defer func() { _, _ = s.SetLED(context.WithoutCancel(ctx), false) }()

	start, err := s.EnrollStart(ctx, id)
	if err != nil {
		return err
	}
	if start != EnrollStartOK {
		return &EnrollError{ID: id, Start: start}
	}

	steps := [...]func(context.Context) (EnrollResult, error){s.Enroll1, s.Enroll2, s.Enroll3}
	for i, step := range steps {
		stage := i + 1
		s.logger.Info("fps: enroll waiting for finger", "id", id, "stage", stage)

		if err := s.WaitFinger(ctx, true, poll); err != nil {
			return err
		}

		captured, err := s.CaptureFinger(ctx, true)
		if err != nil {
			return err
		}
		if !captured {
			return &EnrollError{ID: id, Stage: stage, CaptureFailed: true}
		}

		result, err := step(ctx)
		if err != nil {
			return err
		}
		if result != EnrollOK {
			return &EnrollError{ID: id, Stage: stage, Result: result}
		}

		if stage < len(steps) {
			s.logger.Info("fps: enroll remove finger", "id", id, "stage", stage)
			if err := s.WaitFinger(ctx, false, poll); err != nil {
				return err
			}
		}
	}

	s.logger.Info("fps: enroll completed", "id", id)

	return nil
}
