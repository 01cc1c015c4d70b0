package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WavRecorder captures the mixed 16-bit stereo output to a WAV file.
// Samples are streamed to disk as they arrive; the header is patched on
// Close.
type WavRecorder struct {
	closer io.Closer
	enc    *wav.Encoder
	buf    *audio.IntBuffer
}

// NewWavRecorder creates path and prepares it for 48 kHz stereo samples.
func NewWavRecorder(path string) (*WavRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return newWavRecorder(f, f), nil
}

func newWavRecorder(w io.WriteSeeker, c io.Closer) *WavRecorder {
	return &WavRecorder{
		closer: c,
		enc:    wav.NewEncoder(w, audioSampleRate, 16, 2, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: audioSampleRate},
			SourceBitDepth: 16,
		},
	}
}

// WriteSamples appends interleaved stereo samples.
func (r *WavRecorder) WriteSamples(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(s)
	}
	if err := r.enc.Write(r.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}

// Close finalizes the header and closes the file.
func (r *WavRecorder) Close() error {
	err := r.enc.Close()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
