// Package simulator emulates a GT-511C3 fingerprint sensor in memory.
//
// A Device implements transport.Port: request frames written to it are
// answered with response frames (and data packets where the real sensor sends
// them) that can be read back. Tests and the fpsctl --simulate mode use it to
// exercise a Sensor without hardware.
//
// Fingers are modelled as integer identities. PlaceFinger puts a finger on the
// sensor, and enrollment stores its identity under a template ID, so a later
// Verify or Identify with the same identity matches.
package simulator
