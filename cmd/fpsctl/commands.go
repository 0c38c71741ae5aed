package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-fps/fps"
	"github.com/arloliu/go-fps/packet"
	"github.com/arloliu/go-fps/simulator"
	"github.com/arloliu/go-fps/transport"
)

var errUsage = errors.New("invalid arguments")

// fingerPoll is the finger polling period of interactive commands.
const fingerPoll = 100 * time.Millisecond

// app holds what the shell commands operate on.
type app struct {
	sensor  *fps.Sensor
	sim     *simulator.Device // nil unless --simulate
	timeout time.Duration
	ports   func() ([]transport.PortDetails, error)
}

type command struct {
	name string
	help string
	run  func(ctx context.Context, args []string, out io.Writer) error
}

func (a *app) commands() []command {
	cmds := []command{
		{"ports", "list serial ports", a.cmdPorts},
		{"status", "show session state and counters", a.cmdStatus},
		{"led", "led on|off", a.cmdLED},
		{"watch", "watch [seconds] - report finger presses", a.cmdWatch},
		{"enroll", "enroll <id> - enroll a finger in three scans", a.cmdEnroll},
		{"verify", "verify <id> - match a finger against one template", a.cmdVerify},
		{"identify", "identify a finger against the whole database", a.cmdIdentify},
		{"count", "number of enrolled templates", a.cmdCount},
		{"delete", "delete <id>|all", a.cmdDelete},
		{"baud", "baud <rate> - change the sensor baud rate", a.cmdBaud},
		{"image", "image [file] - capture and download a fingerprint image", a.cmdImage},
		{"raw-image", "raw-image [file] - download a raw camera image", a.cmdRawImage},
		{"template", "template <id> [file] - download a template", a.cmdTemplate},
	}
	if a.sim != nil {
		cmds = append(cmds, command{"finger", "finger <identity>|lift - simulated finger", a.cmdFinger})
	}

	return cmds
}

func parseID(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: missing id", errUsage)
	}

	id, err := strconv.Atoi(args[0])
	if err != nil || id < 0 || id >= fps.DatabaseSize {
		return 0, fmt.Errorf("%w: id must be 0..%d", errUsage, fps.DatabaseSize-1)
	}

	return id, nil
}

func (a *app) cmdPorts(_ context.Context, _ []string, out io.Writer) error {
	ports, err := a.ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(out, p.String())
	}

	return nil
}

// statusReport is the YAML document printed by the status command.
type statusReport struct {
	Port       string            `yaml:"port"`
	Baud       int               `yaml:"baud"`
	State      string            `yaml:"state"`
	Counters   map[string]uint64 `yaml:"counters"`
	Commands   map[string]int64  `yaml:"commands,omitempty"`
	NackErrors map[string]int64  `yaml:"nack_errors,omitempty"`
}

func (a *app) cmdStatus(_ context.Context, _ []string, out io.Writer) error {
	m := a.sensor.Metrics()
	report := statusReport{
		Port:  a.sensor.PortName(),
		Baud:  a.sensor.BaudRate(),
		State: a.sensor.State().String(),
		Counters: map[string]uint64{
			"requests":         m.RequestCount.Load(),
			"acks":             m.AckCount.Load(),
			"nacks":            m.NackCount.Load(),
			"no_response":      m.NoResponseCount.Load(),
			"transport_errors": m.TransportErrCount.Load(),
			"sent_bytes":       m.BytesSent.Load(),
			"received_bytes":   m.BytesRecv.Load(),
			"drain_rounds":     m.DrainRoundCount.Load(),
			"reconnects":       m.ReconnectCount.Load(),
		},
		Commands:   map[string]int64{},
		NackErrors: map[string]int64{},
	}
	m.RangeCommands(func(cmd packet.Command, count int64) bool {
		report.Commands[cmd.String()] = count
		return true
	})
	m.RangeNackErrors(func(code packet.ErrorCode, count int64) bool {
		report.NackErrors[code.String()] = count
		return true
	})

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}

	return enc.Close()
}

func (a *app) cmdLED(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("%w: led on|off", errUsage)
	}

	ok, err := a.sensor.SetLED(ctx, args[0] == "on")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "led", args[0], okString(ok))

	return nil
}

func (a *app) cmdWatch(ctx context.Context, args []string, out io.Writer) error {
	d := 10 * time.Second
	if len(args) > 0 {
		secs, err := strconv.Atoi(args[0])
		if err != nil || secs <= 0 {
			return fmt.Errorf("%w: watch [seconds]", errUsage)
		}
		d = time.Duration(secs) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	if _, err := a.sensor.SetLED(ctx, true); err != nil {
		return err
	}
	defer func() { _, _ = a.sensor.SetLED(context.WithoutCancel(ctx), false) }()

	var last *bool
	ticker := time.NewTicker(fingerPoll)
	defer ticker.Stop()
	for {
		pressed, err := a.sensor.IsPressFinger(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if last == nil || *last != pressed {
			if pressed {
				fmt.Fprintln(out, "finger pressed")
			} else {
				fmt.Fprintln(out, "finger released")
			}
			last = &pressed
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *app) cmdEnroll(ctx context.Context, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "enrolling %d: place the same finger three times\n", id)
	if err := a.sensor.Enroll(ctx, id, fingerPoll); err != nil {
		return err
	}
	fmt.Fprintf(out, "enrolled %d\n", id)

	return nil
}

// captureFinger switches the backlight on, waits for a finger and captures it.
func (a *app) captureFinger(ctx context.Context, out io.Writer, highQuality bool) (func(), error) {
	if _, err := a.sensor.SetLED(ctx, true); err != nil {
		return nil, err
	}
	ledOff := func() { _, _ = a.sensor.SetLED(context.WithoutCancel(ctx), false) }

	fmt.Fprintln(out, "place a finger on the sensor")
	if err := a.sensor.WaitFinger(ctx, true, fingerPoll); err != nil {
		ledOff()
		return nil, err
	}

	ok, err := a.sensor.CaptureFinger(ctx, highQuality)
	if err == nil && !ok {
		err = errors.New("capture failed")
	}
	if err != nil {
		ledOff()
		return nil, err
	}

	return ledOff, nil
}

func (a *app) cmdVerify(ctx context.Context, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	done, err := a.captureFinger(ctx, out, false)
	if err != nil {
		return err
	}
	defer done()

	result, err := a.sensor.Verify(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "verify %d: %s\n", id, result)

	return nil
}

func (a *app) cmdIdentify(ctx context.Context, _ []string, out io.Writer) error {
	done, err := a.captureFinger(ctx, out, false)
	if err != nil {
		return err
	}
	defer done()

	id, err := a.sensor.Identify(ctx)
	if err != nil {
		return err
	}
	if id == fps.IdentifyNotFound {
		fmt.Fprintln(out, "no match")
	} else {
		fmt.Fprintf(out, "identified as %d\n", id)
	}

	return nil
}

func (a *app) cmdCount(ctx context.Context, _ []string, out io.Writer) error {
	n, err := a.sensor.EnrollCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d enrolled\n", n)

	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 1 && args[0] == "all" {
		ok, err := a.sensor.DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "delete all", okString(ok))

		return nil
	}

	id, err := parseID(args)
	if err != nil {
		return err
	}

	ok, err := a.sensor.DeleteID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "delete %d %s\n", id, okString(ok))

	return nil
}

func (a *app) cmdBaud(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: baud <rate>", errUsage)
	}
	baud, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: baud <rate>", errUsage)
	}

	ok, err := a.sensor.ChangeBaudRate(ctx, baud)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "baud rate unchanged (%d)\n", a.sensor.BaudRate())
		return nil
	}
	fmt.Fprintf(out, "baud rate now %d\n", a.sensor.BaudRate())

	return nil
}

func (a *app) cmdImage(ctx context.Context, args []string, out io.Writer) error {
	done, err := a.captureFinger(ctx, out, false)
	if err != nil {
		return err
	}
	defer done()

	ok, err := a.sensor.GetImage(ctx)
	if err != nil {
		return err
	}

	return a.savePayload(ok, args, out)
}

func (a *app) cmdRawImage(ctx context.Context, args []string, out io.Writer) error {
	ok, err := a.sensor.GetRawImage(ctx)
	if err != nil {
		return err
	}

	return a.savePayload(ok, args, out)
}

func (a *app) cmdTemplate(ctx context.Context, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	result, err := a.sensor.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if result != fps.TemplateOK {
		fmt.Fprintf(out, "template %d: %s\n", id, result)
		return nil
	}

	return a.savePayload(true, args[1:], out)
}

// savePayload reports the size of the last data packet and writes it to
// args[0] when given.
func (a *app) savePayload(ok bool, args []string, out io.Writer) error {
	if !ok {
		fmt.Fprintln(out, "rejected:", a.sensor.LastResponse().Error)
		return nil
	}

	payload := a.sensor.LastResponse().Payload()
	fmt.Fprintf(out, "received %d bytes\n", len(payload))
	if len(args) == 0 {
		return nil
	}

	if err := os.WriteFile(args[0], payload, 0o600); err != nil {
		return err
	}
	fmt.Fprintln(out, "saved to", args[0])

	return nil
}

func (a *app) cmdFinger(_ context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: finger <identity>|lift", errUsage)
	}
	if args[0] == "lift" {
		a.sim.LiftFinger()
		fmt.Fprintln(out, "finger lifted")

		return nil
	}

	identity, err := strconv.Atoi(args[0])
	if err != nil || identity < 0 {
		return fmt.Errorf("%w: identity must be a non-negative number", errUsage)
	}
	a.sim.PlaceFinger(identity)
	fmt.Fprintf(out, "finger %d placed\n", identity)

	return nil
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}

	return "rejected"
}
