//go:build !cgo

package midiin

// Context is a stand-in without any inputs; MIDI needs cgo.
type Context struct{}

func NewContext(sink Sink) *Context { return &Context{} }

func (c *Context) Inputs() []string { return nil }

func (c *Context) Open(prefix string) error { return ErrNoDriver }

func (c *Context) Close() {}
