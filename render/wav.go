package render

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
)

// Bounce renders frames samples with r, in blocks of blockSize, and returns
// the result.
func Bounce(r *Renderer, frames, blockSize int) nestrack.AudioBuffer {
	if blockSize <= 0 {
		blockSize = 512
	}
	ret := nestrack.MakeAudioBuffer(frames)
	for done := 0; done < frames; done += blockSize {
		r.Process(ret.Slice(done, min(done+blockSize, frames)))
	}
	return ret
}

// Wav encodes a stereo buffer as a .wav file, either as 16-bit PCM or as
// 32-bit float.
func Wav(buffer nestrack.AudioBuffer, sampleRate int, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	interleaved := interleave(buffer)
	wavHeader(len(interleaved), sampleRate, pcm16, buf)
	if err := rawToBuffer(interleaved, pcm16, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Raw encodes a stereo buffer as interleaved little-endian samples, either
// 16-bit PCM or 32-bit float, without any header.
func Raw(buffer nestrack.AudioBuffer, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := rawToBuffer(interleave(buffer), pcm16, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rawToBuffer(interleaved []float32, pcm16 bool, buf *bytes.Buffer) error {
	var err error
	if pcm16 {
		int16data := make([]int16, len(interleaved))
		for i, v := range interleaved {
			int16data[i] = int16(max(min(float64(v)*math.MaxInt16, math.MaxInt16), math.MinInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, interleaved)
	}
	if err != nil {
		return errors.Wrap(err, "writing sample data")
	}
	return nil
}

func interleave(b nestrack.AudioBuffer) []float32 {
	ret := make([]float32, 2*b.Len())
	for i := 0; i < b.Len(); i++ {
		ret[2*i], ret[2*i+1] = b.Left[i], b.Right[i]
	}
	return ret
}

// wavHeader writes a stereo wave header into buf. bufferLength is the number
// of samples, counting left and right separately.
func wavHeader(bufferLength, sampleRate int, pcm16 bool, buf *bytes.Buffer) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	numChannels := 2
	var bytesPerSample, chunkSize, fmtChunkSize, waveFormat int
	var factChunk bool
	if pcm16 {
		bytesPerSample = 2
		chunkSize = 36 + bytesPerSample*bufferLength
		fmtChunkSize = 16
		waveFormat = 1 // PCM
	} else {
		bytesPerSample = 4
		chunkSize = 50 + bytesPerSample*bufferLength
		fmtChunkSize = 18
		waveFormat = 3 // IEEE float
		factChunk = true
	}
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(chunkSize))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(waveFormat))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                      // bits per sample
	if fmtChunkSize > 16 {
		binary.Write(buf, binary.LittleEndian, uint16(0)) // size of extension
	}
	if factChunk {
		buf.Write([]byte("fact"))
		binary.Write(buf, binary.LittleEndian, uint32(4))                        // fact chunk size
		binary.Write(buf, binary.LittleEndian, uint32(bufferLength/numChannels)) // sample frames
	}
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(bytesPerSample*bufferLength))
}
