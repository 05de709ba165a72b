// Package midiin feeds MIDI messages from an input device to a sink, usually
// render.Renderer.QueueMIDI, so that control changes reach the automation
// relays of the plugin chains.
package midiin

import "github.com/cockroachdb/errors"

// ErrNoDriver is returned by Open when no MIDI driver is available, e.g. in
// builds without cgo.
var ErrNoDriver = errors.New("no MIDI driver available")

// Sink receives raw MIDI messages. It is called from the goroutine of the
// driver and must not block.
type Sink func(msg []byte) bool
