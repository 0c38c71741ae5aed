// Package transport provides the byte-oriented serial channel used by the
// fingerprint sensor session.
//
// A Port exposes the minimal duplex contract the session needs: Write, Read,
// BytesAvailable and Close. OpenSerial opens a real UART through
// go.bug.st/serial; tests and simulators can supply any other Opener.
//
// ListPorts and ListPortDetails enumerate the serial devices present on the
// host.
package transport
