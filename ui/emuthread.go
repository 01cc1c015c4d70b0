package ui

import (
	"sync"

	"github.com/user-none/empce/emu"
)

// MaxPlayers is the number of controllers a TurboTap connects.
const MaxPlayers = 5

// SharedInput holds controller state written by the Ebiten thread
// and read by the emulation goroutine. Each entry is a SetInput button
// mask.
type SharedInput struct {
	mu      sync.Mutex
	buttons [MaxPlayers]uint32
}

// Set replaces the button mask of one player.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= MaxPlayers {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns the button masks of every player.
func (si *SharedInput) Read() [MaxPlayers]uint32 {
	si.mu.Lock()
	b := si.buttons
	si.mu.Unlock()
	return b
}

// SharedFramebuffer hands finished frames from the emulation goroutine to
// Ebiten's Draw. Each Update bumps a sequence number so the drawing side
// can skip uploading a frame it already has.
type SharedFramebuffer struct {
	mu     sync.Mutex
	back   []byte
	front  []byte
	stride int
	height int
	seq    uint64
}

// NewSharedFramebuffer creates a framebuffer large enough for the tallest
// picture the VCE can produce.
func NewSharedFramebuffer() *SharedFramebuffer {
	size := emu.ScreenWidth * emu.MaxScreenHeight * 4
	return &SharedFramebuffer{back: make([]byte, size), front: make([]byte, size)}
}

// Update publishes a frame.
func (sf *SharedFramebuffer) Update(pixels []byte, stride, height int) {
	sf.mu.Lock()
	copy(sf.back, pixels[:min(stride*height, len(pixels))])
	sf.stride = stride
	sf.height = height
	sf.seq++
	sf.mu.Unlock()
}

// Read returns the latest frame and its sequence number. The pixels stay
// valid until the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, height int, seq uint64) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	n := min(sf.stride*sf.height, len(sf.back))
	copy(sf.front[:n], sf.back[:n])
	return sf.front, sf.stride, sf.height, sf.seq
}

// EmuControl parks the emulation goroutine between frames while the
// Ebiten thread pauses the game or touches emulator state.
type EmuControl struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pauseReq bool
	paused   bool
	stopped  bool
}

// NewEmuControl creates a new emulation control.
func NewEmuControl() *EmuControl {
	ec := &EmuControl{}
	ec.cond = sync.NewCond(&ec.mu)
	return ec
}

// RequestPause blocks until the emulation goroutine is parked, so the
// caller owns the emulator on return.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.pauseReq = true
	for !ec.paused && !ec.stopped {
		ec.cond.Wait()
	}
}

// RequestResume releases a parked goroutine.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine before every frame. It
// parks while a pause is requested and returns false once the goroutine
// should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	for ec.pauseReq && !ec.stopped {
		ec.paused = true
		ec.cond.Broadcast()
		ec.cond.Wait()
	}
	ec.paused = false
	return !ec.stopped
}

// Stop makes CheckPause return false and releases any waiter.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.stopped = true
	ec.cond.Broadcast()
	ec.mu.Unlock()
}

// IsPaused reports whether a pause is in effect.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.pauseReq
}
