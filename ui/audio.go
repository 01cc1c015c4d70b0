package ui

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	audioSampleRate = 48000

	// ringBufferBytes holds about 170 ms of 48 kHz stereo audio.
	ringBufferBytes = 32768

	// playerBufferBytes is what oto keeps queued on its side.
	playerBufferBytes = 19200

	// overrunLogInterval limits overrun warnings to one every ten seconds
	// of sustained overruns.
	overrunLogInterval = 600
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// otoContext opens the process wide oto context. oto allows only one.
func otoContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   audioSampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoErr == nil {
			<-ready
		}
	})
	return otoCtx, otoErr
}

// AudioPlayer streams the emulator's stereo output through oto. oto pulls
// from an AudioRingBuffer that the emulation goroutine fills once a frame.
type AudioPlayer struct {
	player   *oto.Player
	ring     *AudioRingBuffer
	overruns int
}

// NewAudioPlayer starts playback at the given volume (0 to 1).
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := otoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	ring := NewAudioRingBuffer(ringBufferBytes)
	player := ctx.NewPlayer(ring)
	player.SetBufferSize(playerBufferBytes)
	player.SetVolume(volume)
	player.Play()
	return &AudioPlayer{player: player, ring: ring}, nil
}

// QueueSamples hands one frame of interleaved stereo samples to the
// player. Audio the player has not caught up with is dropped and logged.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	dropped := a.ring.Write(samples)
	if dropped == 0 {
		return
	}
	if a.overruns%overrunLogInterval == 0 {
		log.Printf("Warning: audio overrun, %d samples dropped (%d overruns)", dropped, a.overruns+1)
	}
	a.overruns++
}

// GetBufferLevel returns the bytes queued in the ring and inside oto.
// The emulation loop paces itself on it.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.ring.Buffered() + a.player.BufferedSize()
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Flush discards queued audio, used after a state load or reset so stale
// sound is not played.
func (a *AudioPlayer) Flush() {
	a.ring.Clear()
}

// Close stops playback.
func (a *AudioPlayer) Close() {
	a.ring.Close()
	a.player.Close()
}
