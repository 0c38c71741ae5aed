package fps

import "sync/atomic"

// State is the lifecycle state of a Sensor.
type State uint32

const (
	// Disconnected means no port is open. Connect moves to Connected.
	Disconnected State = iota
	// Connected means the port is open and idle.
	Connected
	// AwaitingResponse means a request was written and its response is being read.
	AwaitingResponse
	// Closed is terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connected:
		return "Connected"
	case AwaitingResponse:
		return "AwaitingResponse"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// AtomicState holds a State that can be read from any goroutine.
type AtomicState struct {
	state atomic.Uint32
}

func (st *AtomicState) String() string {
	return st.Get().String()
}

// Get returns the current state.
func (st *AtomicState) Get() State {
	return State(st.state.Load())
}

// Set stores state unconditionally.
func (st *AtomicState) Set(state State) {
	st.state.Store(uint32(state))
}

func (st *AtomicState) IsConnected() bool {
	return st.Get() == Connected
}

func (st *AtomicState) IsClosed() bool {
	return st.Get() == Closed
}

// ToConnected moves from Disconnected or AwaitingResponse to Connected.
func (st *AtomicState) ToConnected() bool {
	if st.IsConnected() {
		return true
	}

	if st.state.CompareAndSwap(uint32(Disconnected), uint32(Connected)) {
		return true
	}

	return st.state.CompareAndSwap(uint32(AwaitingResponse), uint32(Connected))
}

// ToAwaiting moves from Connected to AwaitingResponse.
func (st *AtomicState) ToAwaiting() bool {
	return st.state.CompareAndSwap(uint32(Connected), uint32(AwaitingResponse))
}

// ToDisconnected moves any non-terminal state to Disconnected.
func (st *AtomicState) ToDisconnected() bool {
	for {
		cur := st.state.Load()
		if State(cur) == Closed {
			return false
		}
		if st.state.CompareAndSwap(cur, uint32(Disconnected)) {
			return true
		}
	}
}

// ToClosed moves to the terminal Closed state.
func (st *AtomicState) ToClosed() {
	st.Set(Closed)
}
