// Package decode loads clip buffers from audio files on disk.
//
// Two formats are understood: .wav files with 16-bit PCM or 32-bit float
// stereo data, and .raw files of interleaved float32 little-endian stereo
// samples, which is what the bounce command writes.
package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
)

// ErrUnsupportedFormat is returned for files that are neither .raw nor a
// stereo .wav with 16-bit PCM or 32-bit float data.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Files implements nestrack.Decoder for files relative to Dir. Absolute paths
// are used as is.
type Files struct {
	Dir string
}

// LoadBuffer reads the file at path and returns its frames starting at
// startSample.
func (f Files) LoadBuffer(path string, startSample int64) (nestrack.AudioBuffer, error) {
	if !filepath.IsAbs(path) && f.Dir != "" {
		path = filepath.Join(f.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nestrack.AudioBuffer{}, errors.Wrapf(err, "loading %s", path)
	}
	var buf nestrack.AudioBuffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw":
		buf, err = Raw(data)
	case ".wav":
		buf, err = Wav(data)
	default:
		err = errors.Wrapf(ErrUnsupportedFormat, "extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nestrack.AudioBuffer{}, errors.Wrapf(err, "decoding %s", path)
	}
	startSample = max(startSample, 0)
	if startSample >= int64(buf.Len()) {
		return nestrack.AudioBuffer{}, nil
	}
	return buf.Slice(int(startSample), buf.Len()), nil
}

// Raw decodes interleaved float32 little-endian stereo samples. A trailing
// partial frame is ignored.
func Raw(data []byte) (nestrack.AudioBuffer, error) {
	frames := len(data) / 8
	ret := nestrack.MakeAudioBuffer(frames)
	for i := 0; i < frames; i++ {
		ret.Left[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[8*i:]))
		ret.Right[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[8*i+4:]))
	}
	return ret, nil
}

type wavFormat struct {
	WaveFormat     uint16
	NumChannels    uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16
}

// Wav decodes a stereo .wav file with 16-bit PCM or 32-bit float samples.
func Wav(data []byte) (nestrack.AudioBuffer, error) {
	r := bytes.NewReader(data)
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil || string(riff[:4]) != "RIFF" || string(riff[8:]) != "WAVE" {
		return nestrack.AudioBuffer{}, errors.Wrap(ErrUnsupportedFormat, "not a RIFF WAVE file")
	}
	var format *wavFormat
	for {
		var id [4]byte
		var size uint32
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nestrack.AudioBuffer{}, errors.Wrap(ErrUnsupportedFormat, "no data chunk")
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nestrack.AudioBuffer{}, errors.Wrap(err, "reading chunk size")
		}
		switch string(id[:]) {
		case "fmt ":
			format = new(wavFormat)
			if err := binary.Read(r, binary.LittleEndian, format); err != nil {
				return nestrack.AudioBuffer{}, errors.Wrap(err, "reading fmt chunk")
			}
			if _, err := r.Seek(int64(size)-16, io.SeekCurrent); err != nil {
				return nestrack.AudioBuffer{}, errors.Wrap(err, "skipping fmt extension")
			}
		case "data":
			if format == nil {
				return nestrack.AudioBuffer{}, errors.Wrap(ErrUnsupportedFormat, "data chunk before fmt chunk")
			}
			size = min(size, uint32(r.Len()))
			start := len(data) - r.Len()
			return wavSamples(format, data[start:start+int(size)])
		default:
			if _, err := r.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return nestrack.AudioBuffer{}, errors.Wrap(err, "skipping chunk")
			}
		}
	}
}

func wavSamples(f *wavFormat, data []byte) (nestrack.AudioBuffer, error) {
	if f.NumChannels != 2 {
		return nestrack.AudioBuffer{}, errors.Wrapf(ErrUnsupportedFormat, "%d channels", f.NumChannels)
	}
	switch {
	case f.WaveFormat == 3 && f.BitsPerSample == 32:
		return Raw(data)
	case f.WaveFormat == 1 && f.BitsPerSample == 16:
		frames := len(data) / 4
		ret := nestrack.MakeAudioBuffer(frames)
		for i := 0; i < frames; i++ {
			ret.Left[i] = float32(int16(binary.LittleEndian.Uint16(data[4*i:]))) / math.MaxInt16
			ret.Right[i] = float32(int16(binary.LittleEndian.Uint16(data[4*i+2:]))) / math.MaxInt16
		}
		return ret, nil
	}
	return nestrack.AudioBuffer{}, errors.Wrapf(ErrUnsupportedFormat, "format %d with %d bits", f.WaveFormat, f.BitsPerSample)
}
