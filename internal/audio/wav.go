// Package audio reads and writes 16-bit PCM WAV files, the interchange
// format for offline processing and for capturing test fixtures.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrFormat marks WAV files the decoder does not handle.
var ErrFormat = errors.New("audio: unsupported WAV format")

const (
	wavFormatPCM   = 1
	wavBitsPCM16   = 16
	wavHeaderBytes = 44
)

// Reader streams frames out of a PCM WAV file. Samples are converted
// to float32 in [-1, 1], de-interleaved per channel.
type Reader struct {
	f          *os.File
	sampleRate int
	channels   int
	remaining  int // samples per channel left in the data chunk
	scratch    []byte
}

// Open parses the RIFF header and positions the reader at the first
// sample. Only 16-bit PCM is accepted.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}

	r := &Reader{f: f}
	if err := r.parseHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	var riff [12]byte
	if _, err := io.ReadFull(r.f, riff[:]); err != nil {
		return fmt.Errorf("audio: read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return fmt.Errorf("%w: not a RIFF/WAVE file", ErrFormat)
	}

	// Walk chunks until the data chunk; fmt must precede data
	// but extra chunks (LIST, cue) may sit in between.
	haveFmt := false
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r.f, hdr[:]); err != nil {
			return fmt.Errorf("audio: read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := int(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r.f, body); err != nil {
				return fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			r.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			r.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != wavFormatPCM || bits != wavBitsPCM16 {
				return fmt.Errorf("%w: format %d, %d-bit", ErrFormat, format, bits)
			}
			if r.channels < 1 {
				return fmt.Errorf("%w: %d channels", ErrFormat, r.channels)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return fmt.Errorf("%w: data chunk before fmt", ErrFormat)
			}
			r.remaining = size / 2 / r.channels
			return nil

		default:
			// Skip unknown chunks, padded to even length.
			if size%2 != 0 {
				size++
			}
			if _, err := r.f.Seek(int64(size), io.SeekCurrent); err != nil {
				return fmt.Errorf("audio: skip %s chunk: %w", id, err)
			}
		}
	}
}

// SampleRate returns the file's sample rate in Hz.
func (r *Reader) SampleRate() int { return r.sampleRate }

// Channels returns the channel count.
func (r *Reader) Channels() int { return r.channels }

// Remaining reports how many samples per channel are left to read.
func (r *Reader) Remaining() int { return r.remaining }

// ReadFrame fills the per-channel dst slices and returns the number of
// samples written per channel. A short count with nil error means the
// file ended mid-frame; the next call returns io.EOF.
func (r *Reader) ReadFrame(dst [][]float32) (int, error) {
	if len(dst) != r.channels {
		return 0, fmt.Errorf("audio: got %d destination channels, file has %d", len(dst), r.channels)
	}
	want := len(dst[0])
	if want > r.remaining {
		want = r.remaining
	}
	if want == 0 {
		return 0, io.EOF
	}

	need := want * r.channels * 2
	if cap(r.scratch) < need {
		r.scratch = make([]byte, need)
	}
	buf := r.scratch[:need]
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return 0, fmt.Errorf("audio: read samples: %w", err)
	}

	for i := 0; i < want; i++ {
		for ch := 0; ch < r.channels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(buf[(i*r.channels+ch)*2:]))
			dst[ch][i] = float32(raw) / 32768
		}
	}
	r.remaining -= want
	return want, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// Writer streams float32 frames into a 16-bit PCM WAV file. The header
// is patched with final sizes on Close.
type Writer struct {
	f          *os.File
	channels   int
	dataBytes  int
	scratch    []byte
}

// Create opens path for writing and reserves the WAV header.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrFormat, channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio: create %s: %w", path, err)
	}

	w := &Writer{f: f, channels: channels}
	if err := w.writeHeader(sampleRate); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader(sampleRate int) error {
	var hdr [wavHeaderBytes]byte
	copy(hdr[0:4], "RIFF")
	// Sizes at offsets 4 and 40 are patched on Close.
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	byteRate := sampleRate * w.channels * 2
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(w.channels*2))
	binary.LittleEndian.PutUint16(hdr[34:36], wavBitsPCM16)
	copy(hdr[36:40], "data")

	if _, err := w.f.Write(hdr[:]); err != nil {
		return fmt.Errorf("audio: write header: %w", err)
	}
	return nil
}

// WriteFrame interleaves and writes one frame per channel. All slices
// must be the same length.
func (w *Writer) WriteFrame(frames [][]float32) error {
	if len(frames) != w.channels {
		return fmt.Errorf("audio: got %d channels, writer has %d", len(frames), w.channels)
	}
	n := len(frames[0])
	need := n * w.channels * 2
	if cap(w.scratch) < need {
		w.scratch = make([]byte, need)
	}
	buf := w.scratch[:need]

	for i := 0; i < n; i++ {
		for ch := 0; ch < w.channels; ch++ {
			s := frames[ch][i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			v := int16(s * 32767)
			binary.LittleEndian.PutUint16(buf[(i*w.channels+ch)*2:], uint16(v))
		}
	}

	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("audio: write samples: %w", err)
	}
	w.dataBytes += need
	return nil
}

// Close patches the RIFF and data chunk sizes and closes the file.
func (w *Writer) Close() error {
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(36+w.dataBytes))
	if _, err := w.f.WriteAt(size[:], 4); err != nil {
		w.f.Close()
		return fmt.Errorf("audio: patch RIFF size: %w", err)
	}
	binary.LittleEndian.PutUint32(size[:], uint32(w.dataBytes))
	if _, err := w.f.WriteAt(size[:], 40); err != nil {
		w.f.Close()
		return fmt.Errorf("audio: patch data size: %w", err)
	}
	return w.f.Close()
}
