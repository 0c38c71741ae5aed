package fps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-fps/packet"
)

func TestNewSensor_NilConfig(t *testing.T) {
	sensor, err := NewSensor(context.Background(), nil)
	require.ErrorIs(t, err, ErrConfigNil)
	assert.Nil(t, sensor)
}

func TestNewSensor_OpenHandshake(t *testing.T) {
	sensor, port, opener := newTestSensor(t)

	assert.Equal(t, []int{DefaultBaudRate}, opener.opened())
	reqs := port.sent()
	require.Len(t, reqs, 1)
	assert.Equal(t, packet.Open, reqs[0].Command())
	assert.Equal(t, uint32(1), reqs[0].Parameter())
	assert.Equal(t, DefaultBaudRate, sensor.BaudRate())
	assert.Equal(t, "/dev/ttyTEST0", sensor.PortName())
}

func TestNewSensor_OpenFailure(t *testing.T) {
	opener := &testOpener{err: errInjected}

	sensor, err := NewSensor(context.Background(), newTestConfig(t, opener.open))
	require.ErrorIs(t, err, errInjected)
	require.NotNil(t, sensor)
	assert.Equal(t, Disconnected, sensor.State())

	// a disconnected sensor answers with failure values and never touches a port
	ok, err := sensor.SetLED(context.Background(), true)
	require.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, ok)

	count, err := sensor.EnrollCount(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Zero(t, count)

	id, err := sensor.Identify(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, IdentifyNotFound, id)

	assert.False(t, sensor.LastResponse().Complete())

	// retry succeeds once the port shows up
	port := &fakePort{}
	opener.port = port
	opener.setErr(nil)
	require.NoError(t, sensor.Connect(context.Background()))
	assert.Equal(t, Connected, sensor.State())
	assert.Len(t, port.sent(), 1)
}

func TestSensor_HandshakeRejectedStillConnects(t *testing.T) {
	port := &fakePort{respond: replyAll(nackFrame(uint32(packet.NackCommErr)))}
	opener := &testOpener{port: port}

	sensor, err := NewSensor(context.Background(), newTestConfig(t, opener.open))
	require.NoError(t, err)
	assert.Equal(t, Connected, sensor.State())
	assert.Equal(t, packet.NackCommErr, sensor.LastResponse().Error)
}

func TestSensor_ConnectIsIdempotent(t *testing.T) {
	sensor, port, opener := newTestSensor(t)

	require.NoError(t, sensor.Connect(context.Background()))
	assert.Len(t, opener.opened(), 1)
	assert.Len(t, port.sent(), 1)
}

func TestSensor_Close(t *testing.T) {
	sensor, port, _ := newTestSensor(t)

	ok, err := sensor.Close(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Closed, sensor.State())
	assert.True(t, port.isClosed())

	reqs := port.sent()
	assert.Equal(t, packet.Close, reqs[len(reqs)-1].Command())

	// closed is terminal
	ok, err = sensor.SetLED(context.Background(), true)
	require.ErrorIs(t, err, ErrSensorClosed)
	require.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, ok)

	_, err = sensor.Close(context.Background())
	require.ErrorIs(t, err, ErrSensorClosed)
	require.ErrorIs(t, sensor.Connect(context.Background()), ErrSensorClosed)
}

func TestSensor_CloseReleasesPortOnFailure(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll())

	ok, err := sensor.Close(context.Background())
	require.ErrorIs(t, err, ErrNoResponse)
	assert.False(t, ok)
	assert.True(t, port.isClosed())
	assert.Equal(t, Closed, sensor.State())
}

func TestSensor_IncompleteResponse(t *testing.T) {
	sensor, port, _ := newTestSensor(t)

	for n := 0; n < packet.FrameSize; n++ {
		port.setRespond(replyAll(ackFrame(0)[:n]))

		ok, err := sensor.SetLED(context.Background(), true)
		require.ErrorIs(t, err, ErrNoResponse, "n=%d", n)
		assert.False(t, ok)

		result, err := sensor.Verify(context.Background(), 1)
		require.ErrorIs(t, err, ErrNoResponse)
		assert.Equal(t, VerifyUnknown, result)

		pressed, err := sensor.IsPressFinger(context.Background())
		require.ErrorIs(t, err, ErrNoResponse)
		assert.False(t, pressed)

		assert.Equal(t, Connected, sensor.State())
	}
}

func TestSensor_WriteFailure(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setWriteErr(errInjected)

	ok, err := sensor.DeleteAll(context.Background())
	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, errInjected)
	assert.False(t, ok)
	assert.Equal(t, Connected, sensor.State())
	assert.Equal(t, uint64(1), sensor.Metrics().TransportErrCount.Load())
}

func TestSensor_ReadFailure(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setAvailErr(errInjected)

	result, err := sensor.GetTemplate(context.Background(), 1)
	require.ErrorIs(t, err, ErrReadFailed)
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, TemplateUnknown, result)
}

func TestSensor_MalformedFrameIsAccepted(t *testing.T) {
	frame := ackFrame(0)
	frame[packet.FrameSize-1] ^= 0xFF

	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll(frame))

	ok, err := sensor.SetLED(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, ok)
	require.ErrorIs(t, sensor.LastResponse().Verify(), packet.ErrChecksumMismatch)
}

func TestSensor_DrainPayload(t *testing.T) {
	sensor, port, _ := newTestSensor(t)

	data := [][]byte{{0x5A, 0xA5, 0x01, 0x00}, {1, 2, 3, 4, 5}, {6, 7}}
	port.setRespond(func(packet.Request) [][]byte {
		return append([][]byte{ackFrame(0)}, data...)
	})

	result, err := sensor.GetTemplate(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, TemplateOK, result)

	rsp := sensor.LastResponse()
	assert.Equal(t, []byte{0x5A, 0xA5, 0x01, 0x00, 1, 2, 3, 4, 5, 6, 7}, rsp.Payload())
	assert.Equal(t, uint64(3), sensor.Metrics().DrainRoundCount.Load())
}

func TestSensor_DrainOnlyForPayloadCommands(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll(ackFrame(0), []byte{0xEE, 0xEE}))

	ok, err := sensor.SetLED(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, sensor.LastResponse().Payload())
}

func TestSensor_DrainSkippedOnNack(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll(nackFrame(uint32(packet.NackIsNotUsed)), []byte{0xEE}))

	result, err := sensor.GetTemplate(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, TemplateNotUsed, result)
	assert.Empty(t, sensor.LastResponse().Payload())
}

func TestSensor_DrainBounded(t *testing.T) {
	sensor, port, _ := newTestSensor(t, WithMaxDrainRounds(2))

	chunks := [][]byte{ackFrame(0)}
	for i := range 5 {
		chunks = append(chunks, []byte{byte(i)})
	}
	port.setRespond(replyAll(chunks...))

	ok, err := sensor.GetImage(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0, 1}, sensor.LastResponse().Payload())
}

func TestSensor_ReadChunkSize(t *testing.T) {
	sensor, port, _ := newTestSensor(t, WithReadChunkSize(5))

	frame := append(ackFrame(0), 9, 9, 9)
	port.setRespond(replyAll(frame))

	ok, err := sensor.GetRawImage(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{9, 9, 9}, sensor.LastResponse().Payload())
}

func TestSensor_ConnectCancelled(t *testing.T) {
	port := &fakePort{}
	opener := &testOpener{port: port}
	cfg := newTestConfig(t, opener.open, WithSettleInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sensor, err := NewSensor(ctx, cfg)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Disconnected, sensor.State())
	assert.True(t, port.isClosed())
	assert.Empty(t, port.sent())
}

func TestSensor_ExchangeCancelled(t *testing.T) {
	sensor, _, opener := newTestSensor(t, WithBaudChangeSettle(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ok, err := sensor.ChangeBaudRate(ctx, 19200)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.Equal(t, Connected, sensor.State())
	assert.Equal(t, DefaultBaudRate, sensor.BaudRate())
	assert.Len(t, opener.opened(), 1)
}

func TestSensor_ChangeBaudRate_SameRateIsNoop(t *testing.T) {
	sensor, port, opener := newTestSensor(t)

	ok, err := sensor.ChangeBaudRate(context.Background(), DefaultBaudRate)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, port.sent(), 1, "only the handshake was sent")
	assert.Len(t, opener.opened(), 1)
}

func TestSensor_ChangeBaudRate_Unsupported(t *testing.T) {
	sensor, port, _ := newTestSensor(t)

	ok, err := sensor.ChangeBaudRate(context.Background(), 12345)
	require.ErrorIs(t, err, ErrInvalidBaudRate)
	assert.False(t, ok)
	assert.Len(t, port.sent(), 1)
}

func TestSensor_ChangeBaudRate_Reconnects(t *testing.T) {
	sensor, port, opener := newTestSensor(t)

	ok, err := sensor.ChangeBaudRate(context.Background(), 115200)
	require.NoError(t, err)
	assert.True(t, ok)

	reqs := port.sent()
	last := reqs[len(reqs)-1]
	assert.Equal(t, packet.ChangeBaudrate, last.Command())
	assert.Equal(t, uint32(115200), last.Parameter())

	assert.Equal(t, []int{DefaultBaudRate, 115200}, opener.opened())
	assert.Equal(t, 115200, sensor.BaudRate())
	assert.Equal(t, Connected, sensor.State())
	assert.Equal(t, uint64(1), sensor.Metrics().ReconnectCount.Load())
}

func TestSensor_ChangeBaudRate_Rejected(t *testing.T) {
	sensor, port, opener := newTestSensor(t)
	port.setRespond(replyAll(nackFrame(uint32(packet.NackInvalidBaudrate))))

	ok, err := sensor.ChangeBaudRate(context.Background(), 57600)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, DefaultBaudRate, sensor.BaudRate())
	assert.Len(t, opener.opened(), 1)
}

func TestSensor_ChangeBaudRate_ReconnectFailure(t *testing.T) {
	sensor, _, opener := newTestSensor(t)
	// the device acknowledges, then the port refuses to reopen
	opener.setErr(errInjected)

	ok, err := sensor.ChangeBaudRate(context.Background(), 38400)
	require.ErrorIs(t, err, ErrReconnectFailed)
	require.ErrorIs(t, err, errInjected)
	assert.False(t, ok)
	assert.Equal(t, Disconnected, sensor.State())
	assert.Equal(t, 38400, sensor.BaudRate())

	_, err = sensor.SetLED(context.Background(), true)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestSensor_SerializesExchanges(t *testing.T) {
	sensor, port, _ := newTestSensor(t)

	const workers, calls = 8, 25
	done := make(chan struct{})
	for range workers {
		go func() {
			defer func() { done <- struct{}{} }()
			for range calls {
				ok, err := sensor.SetLED(context.Background(), true)
				assert.NoError(t, err)
				assert.True(t, ok)
			}
		}()
	}
	for range workers {
		<-done
	}

	assert.Len(t, port.sent(), 1+workers*calls)
	assert.Equal(t, uint64(1+workers*calls), sensor.Metrics().AckCount.Load())
}

func TestSensor_ResponseSplitAcrossPolls(t *testing.T) {
	sensor, port, _ := newTestSensor(t)

	frame := ackFrame(0)
	port.setRespond(replyAll(frame[:5], frame[5:9], frame[9:]))

	ok, err := sensor.SetLED(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, frame, sensor.LastResponse().Raw)
}

func TestSensor_LateResponseWithinReadTimeout(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll(ackFrame(0)))
	port.setDelay(testReadTimeout / 4)

	result, err := sensor.Verify(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, VerifyOK, result)
}

func TestSensor_LateResponseIsDiscarded(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(func(req packet.Request) [][]byte {
		if req.Command() == packet.Identify1_N {
			return [][]byte{ackFrame(7)}
		}

		return [][]byte{nackFrame(uint32(packet.NackIsNotUsed))}
	})

	// the Identify answer shows up only after the exchange gave up on it
	port.setDelay(2 * testReadTimeout)
	id, err := sensor.Identify(context.Background())
	require.ErrorIs(t, err, ErrNoResponse)
	assert.Equal(t, IdentifyNotFound, id)

	require.Eventually(t, func() bool {
		n, err := port.BytesAvailable()
		return err == nil && n > 0
	}, time.Second, time.Millisecond)

	port.setDelay(0)
	result, err := sensor.Verify(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, VerifyNotUsed, result)
	assert.Equal(t, packet.NackIsNotUsed, sensor.LastResponse().Error)
	assert.Zero(t, port.pending())

	sent := port.sent()
	last := sent[len(sent)-1]
	assert.Equal(t, packet.Verify1_1, last.Command())
	assert.Equal(t, uint32(3), last.Parameter())
}

func TestSensor_LeftoverBytesAreDiscarded(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll(ackFrame(0), []byte{0xEE, 0xEE, 0xEE}))

	ok, err := sensor.SetLED(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, port.pending())

	port.setRespond(replyAll(ackFrame(5)))
	count, err := sensor.EnrollCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, ackFrame(5), sensor.LastResponse().Raw)
}

func TestSensor_NoResponseWaitsForReadTimeout(t *testing.T) {
	sensor, port, _ := newTestSensor(t)
	port.setRespond(replyAll())

	start := time.Now()
	ok, err := sensor.DeleteID(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoResponse)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), testReadTimeout)
}
