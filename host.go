package nestrack

import "fmt"

type (
	// PluginHandle is an opaque reference to a live plugin instance owned by a
	// PluginHost. The routing graph never inspects it, it only passes it back
	// to the host that created it.
	PluginHandle any

	// Descriptor describes the type of a live plugin instance.
	Descriptor struct {
		Name           string
		Manufacturer   string
		LatencySamples int
	}

	// PluginHost instantiates and manages hosted sub-plugins. Release frees
	// the live processing resources of an instance and may be called more
	// than once. A released instance that is processed again is prepared
	// again by the host; the instance itself goes away once nothing
	// references it.
	PluginHost interface {
		Instantiate(identifier string) (PluginHandle, error)
		State(h PluginHandle) []byte
		SetState(h PluginHandle, state []byte)
		Release(h PluginHandle)
		Descriptor(h PluginHandle) Descriptor
	}

	// PluginProcessor is implemented by hosts that can run a plugin instance
	// on the render thread. Process works in place on buf.
	PluginProcessor interface {
		Process(h PluginHandle, buf AudioBuffer)
	}

	// ParameterSetter is implemented by hosts whose plugins accept parameter
	// changes relayed from automation bindings. value is normalized to [0,1].
	ParameterSetter interface {
		SetParameter(h PluginHandle, index int, value float32)
	}

	// EditorNotifier is told that a plugin instance is about to be removed, so
	// that any open editor can release its resources first.
	EditorNotifier interface {
		PluginEditorClosing(h PluginHandle)
	}

	// Decoder loads the sample data of a clip. startSample is the position
	// in the source where the clip begins.
	Decoder interface {
		LoadBuffer(path string, startSample int64) (AudioBuffer, error)
	}

	// AudioBuffer is a planar stereo buffer. Left and Right always have the
	// same length.
	AudioBuffer struct {
		Left, Right []float32
	}
)

// Identifier derives the identifier used to reinstantiate the same plugin
// type from a descriptor.
func (d Descriptor) Identifier() string {
	if d.Manufacturer == "" {
		return d.Name
	}
	return fmt.Sprintf("%s/%s", d.Manufacturer, d.Name)
}

// MakeAudioBuffer returns a silent buffer of the given number of frames.
func MakeAudioBuffer(frames int) AudioBuffer {
	return AudioBuffer{Left: make([]float32, frames), Right: make([]float32, frames)}
}

// Len returns the length of the buffer in frames.
func (b AudioBuffer) Len() int {
	return min(len(b.Left), len(b.Right))
}

// Copy makes a deep copy of an AudioBuffer.
func (b AudioBuffer) Copy() AudioBuffer {
	if b.Left == nil && b.Right == nil {
		return AudioBuffer{}
	}
	return AudioBuffer{Left: append([]float32{}, b.Left...), Right: append([]float32{}, b.Right...)}
}

// Slice returns the frames [start, end) of the buffer, sharing memory.
func (b AudioBuffer) Slice(start, end int) AudioBuffer {
	return AudioBuffer{Left: b.Left[start:end], Right: b.Right[start:end]}
}

// Clear zeroes the buffer.
func (b AudioBuffer) Clear() {
	clear(b.Left)
	clear(b.Right)
}
