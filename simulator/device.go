package simulator

import (
	"encoding/binary"
	"slices"
	"sync"
	"time"

	"github.com/arloliu/go-fps/internal/queue"
	"github.com/arloliu/go-fps/packet"
	"github.com/arloliu/go-fps/transport"
)

// Data packet geometry of the GT-511C3.
const (
	DataStartCode1 = 0x5A
	DataStartCode2 = 0xA5

	DeviceInfoSize = 24
	ImageSize      = 258 * 202
	RawImageSize   = 160 * 120
	TemplateSize   = 498
	DatabaseSize   = 200

	// DefaultChunkSize is how many bytes become readable per BytesAvailable poll.
	DefaultChunkSize = 4096
)

// NoFinger is the identity of an empty sensor window.
const NoFinger = -1

var supportedBauds = []int{9600, 19200, 38400, 57600, 115200}

// Device is an emulated sensor. It is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	baud     int // the rate the device listens at
	portBaud int // the rate the host opened the port at
	closed   bool
	muted    bool

	chunkSize int
	in        []byte
	out       *queue.Queue[[]byte]
	requests  []packet.Request

	led          bool
	autoRelease  bool
	released     bool
	finger       int
	captured     int
	enrollID     int
	enrollStage  int
	enrollFinger int
	templates    [DatabaseSize]int
}

// Option configures a Device.
type Option func(*Device)

// WithBaudRate sets the rate the device listens at. The default is 9600.
func WithBaudRate(baud int) Option {
	return func(d *Device) { d.baud = baud }
}

// WithChunkSize sets how many bytes each BytesAvailable poll exposes.
func WithChunkSize(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithAutoRelease makes the placed finger read as lifted for one
// IsPressFinger poll after every successful capture, the way a user lifts and
// re-places a finger between enrollment scans.
func WithAutoRelease() Option {
	return func(d *Device) { d.autoRelease = true }
}

// New creates a device with an empty template database.
func New(opts ...Option) *Device {
	d := &Device{
		baud:      9600,
		chunkSize: DefaultChunkSize,
		finger:    NoFinger,
		captured:  NoFinger,
		enrollID:  -1,
		out:       queue.New[[]byte](4),
	}
	for i := range d.templates {
		d.templates[i] = NoFinger
	}
	for _, opt := range opts {
		opt(d)
	}
	d.portBaud = d.baud

	return d
}

var _ transport.Port = (*Device)(nil)

// Opener returns a transport.Opener that reopens this device. A port opened
// at a rate other than the device's is silent, like a real UART mismatch.
func (d *Device) Opener() transport.Opener {
	return func(_ string, baud int, _ time.Duration) (transport.Port, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		d.portBaud = baud
		d.closed = false
		d.in = nil
		d.out.Reset()

		return d, nil
	}
}

// PlaceFinger puts a finger with the given identity on the sensor.
func (d *Device) PlaceFinger(identity int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finger = identity
}

// LiftFinger removes the finger from the sensor.
func (d *Device) LiftFinger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finger = NoFinger
}

// Mute makes the device swallow requests without answering.
func (d *Device) Mute(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
}

// LED reports the backlight state.
func (d *Device) LED() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led
}

// BaudRate returns the rate the device listens at.
func (d *Device) BaudRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.baud
}

// Enrolled reports whether id holds a template.
func (d *Device) Enrolled(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return id >= 0 && id < DatabaseSize && d.templates[id] != NoFinger
}

// Requests returns a copy of every request frame received so far.
func (d *Device) Requests() []packet.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.requests)
}

// Write consumes request frames and queues their responses.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, transport.ErrPortClosed
	}
	if d.portBaud != d.baud {
		return len(p), nil
	}

	d.in = append(d.in, p...)
	for len(d.in) >= packet.FrameSize {
		var req packet.Request
		copy(req[:], d.in[:packet.FrameSize])
		d.in = d.in[packet.FrameSize:]
		d.requests = append(d.requests, req)

		if d.muted {
			continue
		}
		d.queue(d.handle(req)...)
	}

	return len(p), nil
}

// BytesAvailable returns the size of the next pending chunk.
func (d *Device) BytesAvailable() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, transport.ErrPortClosed
	}
	head, ok := d.out.Peek()
	if !ok {
		return 0, nil
	}

	return len(head), nil
}

// Read serves queued response bytes.
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, transport.ErrPortClosed
	}
	head, ok := d.out.Peek()
	if !ok {
		return 0, nil
	}

	n := copy(p, head)
	if n == len(head) {
		d.out.Dequeue()
	} else {
		d.out.ReplaceHead(head[n:])
	}

	return n, nil
}

// Close closes the port side of the device; the emulated sensor keeps its state.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.out.Reset()

	return nil
}

// queue splits frames into chunks of chunkSize. The response frame always
// forms its own first chunk.
func (d *Device) queue(frames ...[]byte) {
	for _, f := range frames {
		for len(f) > 0 {
			n := min(len(f), d.chunkSize)
			d.out.Enqueue(f[:n])
			f = f[n:]
		}
	}
}

func ack(param uint32) []byte {
	rsp := packet.Encode(packet.Ack, param)
	return rsp.Bytes()
}

func nack(code packet.ErrorCode) []byte {
	rsp := packet.Encode(packet.Nack, uint32(code))
	return rsp.Bytes()
}

// dataPacket frames data the way the sensor does.
func dataPacket(data []byte) []byte {
	buf := make([]byte, 0, len(data)+6)
	buf = append(buf, DataStartCode1, DataStartCode2, packet.DeviceID1, packet.DeviceID2)
	buf = append(buf, data...)
	buf = binary.LittleEndian.AppendUint16(buf, packet.Checksum(buf))

	return buf
}

func pattern(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i) ^ seed
	}

	return data
}
