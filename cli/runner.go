// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emubridge "github.com/user-none/empce/bridge/ebiten"
	"github.com/user-none/empce/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// SetInput bits after the four directions.
const (
	bitUp     = 0
	bitDown   = 1
	bitLeft   = 2
	bitRight  = 3
	bitI      = 4
	bitII     = 5
	bitSelect = 6
	bitRun    = 7
	bitIII    = 8
	bitIV     = 9
	bitV      = 10
	bitVI     = 11
)

var keyboardMap = []struct {
	keys []ebiten.Key
	bit  uint
}{
	{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, bitUp},
	{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, bitDown},
	{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, bitLeft},
	{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, bitRight},
	{[]ebiten.Key{ebiten.KeyK}, bitI},
	{[]ebiten.Key{ebiten.KeyJ}, bitII},
	{[]ebiten.Key{ebiten.KeyShiftRight, ebiten.KeyBackspace}, bitSelect},
	{[]ebiten.Key{ebiten.KeyEnter}, bitRun},
	{[]ebiten.Key{ebiten.KeyU}, bitIII},
	{[]ebiten.Key{ebiten.KeyI}, bitIV},
	{[]ebiten.Key{ebiten.KeyO}, bitV},
	{[]ebiten.Key{ebiten.KeyL}, bitVI},
}

var gamepadMap = []struct {
	button ebiten.StandardGamepadButton
	bit    uint
}{
	{ebiten.StandardGamepadButtonLeftTop, bitUp},
	{ebiten.StandardGamepadButtonLeftBottom, bitDown},
	{ebiten.StandardGamepadButtonLeftLeft, bitLeft},
	{ebiten.StandardGamepadButtonLeftRight, bitRight},
	{ebiten.StandardGamepadButtonRightRight, bitI},
	{ebiten.StandardGamepadButtonRightBottom, bitII},
	{ebiten.StandardGamepadButtonCenterLeft, bitSelect},
	{ebiten.StandardGamepadButtonCenterRight, bitRun},
	{ebiten.StandardGamepadButtonRightLeft, bitIII},
	{ebiten.StandardGamepadButtonRightTop, bitIV},
	{ebiten.StandardGamepadButtonFrontTopLeft, bitV},
	{ebiten.StandardGamepadButtonFrontTopRight, bitVI},
}

// Options configures a Runner.
type Options struct {
	// StatePath is the save state file used by F2 and F4. Empty disables
	// the hotkeys.
	StatePath string

	// Wav receives a copy of every audio frame when set. The runner
	// closes it.
	Wav *ui.WavRecorder
}

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles input polling and rendering from the shared framebuffer.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer
	opts        Options

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}
}

// NewRunner creates a new Runner wrapping the given emulator.
// Audio initialization failure is non-fatal; the runner will work without sound.
func NewRunner(e *emubridge.Emulator, opts Options) *Runner {
	player, err := ui.NewAudioPlayer(1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		opts:              opts,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}

	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine and releases audio resources.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
	if r.opts.Wav != nil {
		if err := r.opts.Wav.Close(); err != nil {
			log.Printf("Warning: %v", err)
		}
		r.opts.Wav = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		for player, buttons := range r.sharedInput.Read() {
			r.emulator.SetInput(player, buttons)
		}

		r.emulator.RunFrame()
		samples := r.emulator.GetAudioSamples()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(samples)
		}
		if r.opts.Wav != nil {
			if err := r.opts.Wav.WriteSamples(samples); err != nil {
				log.Printf("Warning: audio capture stopped: %v", err)
				r.opts.Wav.Close()
				r.opts.Wav = nil
			}
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if !ebiten.IsFocused() {
		return nil
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		r.withPaused(func() {
			r.emulator.Reset()
			r.flushAudio()
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		r.withPaused(r.saveState)
	case inpututil.IsKeyJustPressed(ebiten.KeyF4):
		r.withPaused(r.loadState)
	case inpututil.IsKeyJustPressed(ebiten.KeyPause), inpututil.IsKeyJustPressed(ebiten.KeyP):
		if r.emuControl.IsPaused() {
			r.emuControl.RequestResume()
		} else {
			r.emuControl.RequestPause()
		}
	}

	r.pollInputToShared()
	return nil
}

// withPaused runs fn while the emulation goroutine is parked between
// frames.
func (r *Runner) withPaused(fn func()) {
	wasPaused := r.emuControl.IsPaused()
	r.emuControl.RequestPause()
	fn()
	if !wasPaused {
		r.emuControl.RequestResume()
	}
}

func (r *Runner) saveState() {
	if r.opts.StatePath == "" {
		return
	}
	data, err := r.emulator.Serialize()
	if err != nil {
		log.Printf("Save state failed: %v", err)
		return
	}
	if err := os.WriteFile(r.opts.StatePath, data, 0644); err != nil {
		log.Printf("Save state failed: %v", err)
		return
	}
	log.Printf("State saved to %s", r.opts.StatePath)
}

func (r *Runner) loadState() {
	if r.opts.StatePath == "" {
		return
	}
	data, err := os.ReadFile(r.opts.StatePath)
	if err != nil {
		log.Printf("Load state failed: %v", err)
		return
	}
	if err := r.emulator.Deserialize(data); err != nil {
		log.Printf("Load state failed: %v", err)
		return
	}
	r.flushAudio()
	log.Printf("State loaded from %s", r.opts.StatePath)
}

func (r *Runner) flushAudio() {
	if r.audioPlayer != nil {
		r.audioPlayer.Flush()
	}
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height, seq := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height, seq)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

// pollInputToShared reads the keyboard and every gamepad. The keyboard and
// the first gamepad drive player 1; further gamepads drive the TurboTap
// ports in order.
func (r *Runner) pollInputToShared() {
	var buttons [ui.MaxPlayers]uint32

	for _, m := range keyboardMap {
		for _, k := range m.keys {
			if ebiten.IsKeyPressed(k) {
				buttons[0] |= 1 << m.bit
			}
		}
	}

	player := 0
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		if player >= ui.MaxPlayers {
			break
		}
		for _, m := range gamepadMap {
			if ebiten.IsStandardGamepadButtonPressed(id, m.button) {
				buttons[player] |= 1 << m.bit
			}
		}

		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if axisX < -deadzone {
			buttons[player] |= 1 << bitLeft
		}
		if axisX > deadzone {
			buttons[player] |= 1 << bitRight
		}
		if axisY < -deadzone {
			buttons[player] |= 1 << bitUp
		}
		if axisY > deadzone {
			buttons[player] |= 1 << bitDown
		}
		player++
	}

	for i, b := range buttons {
		r.sharedInput.Set(i, b)
	}
}
