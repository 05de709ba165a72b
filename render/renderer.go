package render

import (
	"github.com/nestrack/nestrack"
	"github.com/viterin/vek/vek32"
	"gitlab.com/gomidi/midi/v2"
)

// Renderer mixes the published snapshots into audio blocks. It is owned by
// the render goroutine: Process, Seek and HandleMIDI must not be called
// concurrently with each other. QueueMIDI is the only method safe to call
// from other goroutines. It never touches the routing tree itself.
type Renderer struct {
	exchange  *Exchange
	processor nestrack.PluginProcessor // nil if the host cannot process
	setter    nestrack.ParameterSetter // nil if the host takes no parameters
	snapshot  *Snapshot
	position  int64
	mix       []nestrack.AudioBuffer // per depth
	dry       []nestrack.AudioBuffer // per depth
	midi      chan []byte
}

const midiQueueSize = 1024

// NewRenderer returns a Renderer reading snapshots from e. If host implements
// nestrack.PluginProcessor, non-bypassed plugins are applied; if it implements
// nestrack.ParameterSetter, HandleMIDI relays control changes to it.
func NewRenderer(e *Exchange, host nestrack.PluginHost) *Renderer {
	r := &Renderer{exchange: e, midi: make(chan []byte, midiQueueSize)}
	r.processor, _ = host.(nestrack.PluginProcessor)
	r.setter, _ = host.(nestrack.ParameterSetter)
	return r
}

// Position returns the timeline position of the next block, in samples.
func (r *Renderer) Position() int64 { return r.position }

// Seek moves the timeline position.
func (r *Renderer) Seek(position int64) { r.position = max(position, 0) }

// Process renders the next block into out, overwriting it, and advances the
// timeline position by the length of out.
func (r *Renderer) Process(out nestrack.AudioBuffer) {
	out.Clear()
	r.snapshot = r.exchange.Acquire()
	r.drainMIDI()
	frames := out.Len()
	if r.snapshot != nil {
		for i := range r.snapshot.Nodes {
			r.renderNode(&r.snapshot.Nodes[i], out, 0, frames)
		}
	}
	r.position += int64(frames)
}

func (r *Renderer) renderNode(n *Node, into nestrack.AudioBuffer, depth, frames int) {
	if !n.Audible {
		return
	}
	buf := r.scratch(&r.mix, depth, frames)
	if n.IsTrack {
		for i := range n.Clips {
			mixClip(&n.Clips[i], buf, r.position)
		}
	} else {
		for i := range n.Children {
			r.renderNode(&n.Children[i], buf, depth+1, frames)
		}
	}
	if r.processor != nil {
		for _, p := range n.Plugins {
			if !p.Bypassed && p.Handle != nil {
				r.applyPlugin(p, buf, depth, frames)
			}
		}
	}
	vek32.MulNumber_Inplace(buf.Left, n.GainL)
	vek32.MulNumber_Inplace(buf.Right, n.GainR)
	vek32.Add_Inplace(into.Left[:frames], buf.Left)
	vek32.Add_Inplace(into.Right[:frames], buf.Right)
}

func (r *Renderer) applyPlugin(p Plugin, buf nestrack.AudioBuffer, depth, frames int) {
	if p.DryWet >= 1 {
		r.processor.Process(p.Handle, buf)
		return
	}
	dry := r.scratch(&r.dry, depth, frames)
	copy(dry.Left, buf.Left)
	copy(dry.Right, buf.Right)
	r.processor.Process(p.Handle, buf)
	vek32.MulNumber_Inplace(buf.Left, p.DryWet)
	vek32.MulNumber_Inplace(buf.Right, p.DryWet)
	vek32.MulNumber_Inplace(dry.Left, 1-p.DryWet)
	vek32.MulNumber_Inplace(dry.Right, 1-p.DryWet)
	vek32.Add_Inplace(buf.Left, dry.Left)
	vek32.Add_Inplace(buf.Right, dry.Right)
}

// scratch returns a cleared buffer of the given length for the depth. The
// buffers are reused between blocks; they only grow when a deeper tree or a
// longer block shows up.
func (r *Renderer) scratch(bufs *[]nestrack.AudioBuffer, depth, frames int) nestrack.AudioBuffer {
	for len(*bufs) <= depth {
		*bufs = append(*bufs, nestrack.AudioBuffer{})
	}
	b := (*bufs)[depth]
	if b.Len() < frames {
		b = nestrack.MakeAudioBuffer(frames)
		(*bufs)[depth] = b
	}
	b = b.Slice(0, frames)
	b.Clear()
	return b
}

// mixClip adds the part of the clip that overlaps the block starting at
// position into buf.
func mixClip(c *Clip, buf nestrack.AudioBuffer, position int64) {
	length := int64(c.Buffer.Len())
	if length == 0 {
		return
	}
	frames := int64(buf.Len())
	end := c.End
	if !c.Loop && (end <= c.Start || end > c.Start+length) {
		end = c.Start + length
	}
	from := max(c.Start, position)
	to := position + frames
	if end > c.Start {
		to = min(to, end)
	}
	if from >= to {
		return
	}
	if !c.Loop {
		src := c.Buffer.Slice(int(from-c.Start), int(to-c.Start))
		dst := buf.Slice(int(from-position), int(to-position))
		vek32.Add_Inplace(dst.Left, src.Left)
		vek32.Add_Inplace(dst.Right, src.Right)
		return
	}
	for t := from; t < to; t++ {
		k := (t - c.Start) % length
		buf.Left[t-position] += c.Buffer.Left[k]
		buf.Right[t-position] += c.Buffer.Right[k]
	}
}

// QueueMIDI queues a MIDI message to be handled at the start of the next
// block. If the queue is full, the message is dropped and false is returned.
func (r *Renderer) QueueMIDI(msg []byte) bool {
	select {
	case r.midi <- msg:
		return true
	default:
		return false
	}
}

func (r *Renderer) drainMIDI() {
	for {
		select {
		case msg := <-r.midi:
			r.HandleMIDI(msg)
		default:
			return
		}
	}
}

// HandleMIDI relays a MIDI control change to every plugin with a matching
// relay binding in the snapshot of the last block. Other messages are
// ignored.
func (r *Renderer) HandleMIDI(msg []byte) {
	if r.setter == nil || r.snapshot == nil {
		return
	}
	var channel, controller, value uint8
	if !midi.Message(msg).GetControlChange(&channel, &controller, &value) {
		return
	}
	for i := range r.snapshot.Nodes {
		r.relay(&r.snapshot.Nodes[i], channel, controller, float32(value)/127)
	}
}

func (r *Renderer) relay(n *Node, channel, controller uint8, value float32) {
	for _, p := range n.Plugins {
		for _, b := range p.Relays {
			if b.Channel == channel && b.Controller == controller && p.Handle != nil {
				r.setter.SetParameter(p.Handle, b.Param, value)
			}
		}
	}
	for i := range n.Children {
		r.relay(&n.Children[i], channel, controller, value)
	}
}
