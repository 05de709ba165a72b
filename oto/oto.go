// Package oto plays rendered sessions on the default audio device.
package oto

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/oto/v3"
	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/render"
)

// Output plays what a Renderer produces on the default audio device.
type Output struct {
	context *oto.Context
	player  *oto.Player
}

// NewOutput opens the audio device and starts pulling blocks from r. From
// then on, the goroutine of the audio device is the render goroutine of r.
func NewOutput(r *render.Renderer, sampleRate, blockSize int) (*Output, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create oto context")
	}
	<-ready
	player := context.NewPlayer(NewReader(r, blockSize))
	player.Play()
	return &Output{context: context, player: player}, nil
}

// Err returns the error the player stopped with, if any.
func (o *Output) Err() error { return o.player.Err() }

// Close stops the playback.
func (o *Output) Close() error {
	if err := o.player.Close(); err != nil {
		return errors.Wrap(err, "cannot close oto player")
	}
	return nil
}

// Reader is an endless io.Reader of interleaved float32 little-endian stereo
// samples rendered block by block.
type Reader struct {
	renderer *render.Renderer
	block    nestrack.AudioBuffer
	encoded  []byte
	pending  []byte
}

// NewReader returns a Reader rendering blocks of blockSize frames with r.
func NewReader(r *render.Renderer, blockSize int) *Reader {
	if blockSize <= 0 {
		blockSize = 512
	}
	return &Reader{renderer: r, block: nestrack.MakeAudioBuffer(blockSize)}
}

func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			r.renderer.Process(r.block)
			r.encoded = FloatBufferToLE(r.block, r.encoded[:0])
			r.pending = r.encoded
		}
		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	return n, nil
}

// FloatBufferToLE appends the buffer, interleaved, as float32 little-endian
// samples to out.
func FloatBufferToLE(b nestrack.AudioBuffer, out []byte) []byte {
	for i := 0; i < b.Len(); i++ {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(b.Left[i]))
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(b.Right[i]))
	}
	return out
}
