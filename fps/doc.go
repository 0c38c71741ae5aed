/*
Package fps drives a GT-511C3 fingerprint sensor over a serial link.

A Sensor owns one transport.Port and runs one request/response exchange at a
time: it encodes a command frame, writes it, waits a settle interval, reads
whatever the device has pushed and decodes the 12-byte response frame. When
the command can be followed by a data packet (Open, GetImage, GetRawImage,
GetTemplate), the Sensor keeps polling until the device stops sending.

Every operation takes a context.Context that bounds its settle waits, and
returns a result together with an error. The result is the operation's
failure value whenever the error is non-nil, so callers that only care about
the outcome can ignore the error.

	cfg, err := fps.NewConfig("/dev/ttyUSB0", fps.WithBaudRate(9600))
	if err != nil {
		return err
	}

	sensor, err := fps.NewSensor(ctx, cfg)
	if err != nil {
		return err
	}
	defer sensor.Close(ctx)

	_, _ = sensor.SetLED(ctx, true)
	if pressed, _ := sensor.IsPressFinger(ctx); pressed {
		id, _ := sensor.Identify(ctx)
		fmt.Println("identified:", id)
	}

Sensor rejections (NACKs) are reported through typed results such as
VerifyResult; errors are reserved for transport failures, missing responses
and invalid arguments.
*/
package fps
