//go:build cgo

package midiin

import (
	"strings"

	"github.com/cockroachdb/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Context listens to at most one input device at a time.
type Context struct {
	driver  *rtmididrv.Driver
	current drivers.In
	stop    func()
	sink    Sink
}

// NewContext opens the RtMidi driver. If that fails, the context has no
// inputs and Open returns ErrNoDriver.
func NewContext(sink Sink) *Context {
	c := &Context{sink: sink}
	// there's not much we can do if this fails
	c.driver, _ = rtmididrv.New()
	return c
}

// Inputs returns the names of the available input devices.
func (c *Context) Inputs() []string {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	ret := make([]string, len(ins))
	for i, in := range ins {
		ret[i] = in.String()
	}
	return ret
}

// Open starts listening to the first input whose name starts with prefix,
// closing the currently open one. An empty prefix matches any input.
func (c *Context) Open(prefix string) error {
	if c.driver == nil {
		return ErrNoDriver
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return errors.Wrap(err, "listing MIDI inputs")
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), prefix) {
			continue
		}
		if in == c.current {
			return nil
		}
		c.closeCurrent()
		if err := in.Open(); err != nil {
			return errors.Wrapf(err, "opening MIDI input %q", in.String())
		}
		stop, err := midi.ListenTo(in, c.handle)
		if err != nil {
			in.Close()
			return errors.Wrapf(err, "listening to MIDI input %q", in.String())
		}
		c.current, c.stop = in, stop
		return nil
	}
	return errors.Newf("no MIDI input starting with %q", prefix)
}

func (c *Context) handle(msg midi.Message, timestampms int32) {
	c.sink(msg.Bytes()) // if the queue is full, the message is dropped
}

func (c *Context) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.current != nil && c.current.IsOpen() {
		c.current.Close()
	}
	c.current = nil
}

// Close stops listening and closes the driver.
func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}
