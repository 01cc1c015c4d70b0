package emu

import (
	"strconv"

	"github.com/spf13/afero"
	emucore "github.com/user-none/eblitui/api"
)

// Compile-time interface checks.
var _ emucore.Emulator = (*Emulator)(nil)
var _ emucore.SaveStater = (*Emulator)(nil)
var _ emucore.BatterySaver = (*Emulator)(nil)
var _ emucore.MemoryInspector = (*Emulator)(nil)
var _ emucore.MemoryMapper = (*Emulator)(nil)

// Output geometry of GetFramebuffer. Every dot clock is stretched to
// ScreenWidth so hosts see a fixed width.
const (
	ScreenWidth         = 512
	MaxScreenHeight     = MaxFrameHeight
	DefaultScreenHeight = DefaultScanlineEnd - DefaultScanlineStart + 1
)

// Flat address boundaries for ReadMemory.
const (
	wramStart  = 0x000000
	wramEnd    = 0x007FFF
	bramStart  = 0x008000
	bramEnd    = 0x0087FF
	cdRAMStart = 0x010000
	cdRAMEnd   = 0x01FFFF
)

// irqWiring routes the chip interrupt outputs to the CPU inputs.
type irqWiring struct {
	e *Emulator
}

func (w irqWiring) IRQ1() bool {
	if w.e.mem.sgx {
		return w.e.vpc.IRQ()
	}
	return w.e.vdc[0].IRQ()
}

func (w irqWiring) IRQ2() bool {
	return w.e.mem.cdAttached && w.e.cdrom.IRQ()
}

// Emulator is a complete PC Engine, SuperGrafx or TurboGrafx-16 with an
// optional CD-ROM unit.
type Emulator struct {
	cpu    *HuC6280
	mem    *Memory
	vdc    [2]*HuC6270
	vpc    *HuC6202
	vce    *HuC6260
	psg    *PSG
	input  *Input
	cdrom  *CDROM
	arcade *ArcadeCard

	fs       afero.Fs
	media    *Media
	bios     []byte
	biosInfo biosEntry

	// Options as requested and as resolved for the loaded media.
	consoleOpt  ConsoleType
	console     ConsoleType
	cdTypeOpt   CDROMType
	cdType      CDROMType
	padTypeSet  [maxControllers]bool
	resetValues ResetValues
	preload     bool
	hesSong     int // -1 plays the song named in the file

	frameCount uint64
	stop       bool
	pump       func()
	dbg        debugger

	// Pre-allocated audio buffer for external consumption
	audioBuffer []int16

	// Low-pass filter state in Q8, persists across frames
	filterL int32
	filterR int32

	screen []byte

	logs *logOnce
}

// FrameInfo describes the output of one Frame call.
type FrameInfo struct {
	// Ready is false when the frame was cut short by a breakpoint or
	// StopEmulator.
	Ready bool

	Width  int
	Height int

	// AudioSamples counts int16 values (two per stereo sample) written.
	AudioSamples int
}

// New creates a powered-on machine with no media. Media and BIOS files are
// read from the OS file system until SetFS is called.
func New() *Emulator {
	logs := newLogOnce()
	e := &Emulator{
		fs:          afero.NewOsFs(),
		resetValues: DefaultResetValues(),
		hesSong:     -1,
		audioBuffer: make([]int16, 0, 2048),
		screen:      make([]byte, ScreenWidth*MaxScreenHeight*4),
		logs:        logs,
	}
	e.dbg.init()

	e.mem = NewMemory()
	e.mem.logs = logs
	e.vdc[0] = NewHuC6270()
	e.vdc[1] = NewHuC6270()
	e.vpc = NewHuC6202(e.vdc[0], e.vdc[1])
	e.vce = NewHuC6260(e.vdc[0])
	e.psg = NewPSG()
	e.input = NewInput()
	e.cdrom = NewCDROM(logs)
	e.arcade = &ArcadeCard{}
	e.cpu = NewHuC6280(e.mem, irqWiring{e})
	e.cpu.logs = logs

	e.mem.cpu = e.cpu
	e.mem.vdc = e.vdc
	e.mem.vpc = e.vpc
	e.mem.vce = e.vce
	e.mem.psg = e.psg
	e.mem.input = e.input
	e.mem.cd = e.cdrom
	e.mem.arcade = e.arcade

	e.configureHardware()
	e.Reset()
	return e
}

// NewEmulator creates a machine running an in-memory HuCard or HES image.
// The region is ignored: every model runs NTSC timing.
func NewEmulator(rom []byte, region Region) (*Emulator, error) {
	e := New()
	name := "game.pce"
	if isHES(rom) {
		name = "game.hes"
	}
	if err := e.LoadMediaBytes(name, rom); err != nil {
		return nil, err
	}
	return e, nil
}

// SetFS replaces the file system media and BIOS paths are resolved in.
func (e *Emulator) SetFS(fs afero.Fs) {
	e.fs = fs
}

// configureHardware fits the machine to the media and options: console
// model, ROM, card RAM and the CD-ROM unit with its RAM expansions.
func (e *Emulator) configureHardware() {
	e.console = e.resolveConsole()
	sgx := e.console == ConsoleSGX
	e.mem.setSGX(sgx)
	if sgx {
		e.vce.source = e.vpc
	} else {
		e.vce.source = e.vdc[0]
	}

	cd := e.media != nil && e.media.info.Kind == MediaCD
	switch {
	case cd:
		e.mem.SetROM(e.bios, MapperStandard)
	case e.media != nil:
		e.mem.SetROM(e.media.rom, e.media.info.Mapper)
	default:
		e.mem.SetROM(nil, MapperStandard)
	}
	e.mem.hesStub = nil
	e.mem.cardRAM = nil
	if e.media != nil && e.media.info.CardRAM {
		e.mem.cardRAM = make([]uint8, cardRAMSize)
	}

	e.cdType = e.resolveCDType()
	e.mem.cdAttached = cd
	e.mem.cdRAM, e.mem.superRAM = nil, nil
	if cd {
		e.mem.cdRAM = make([]uint8, cdRAMSize)
		if e.cdType != CDROMStandard {
			e.mem.superRAM = make([]uint8, superRAMSize)
		}
		e.cdrom.Insert(e.media.cd, e.cdType != CDROMStandard)
	} else {
		e.cdrom.Eject()
	}
	e.mem.arcadeAttached = cd && e.cdType == CDROMArcadeCard
	if e.mem.arcadeAttached {
		e.arcade.attach()
	} else {
		e.arcade.detach()
	}

	e.input.tg16 = e.console == ConsoleTG16
	e.input.cdAttached = cd
	if e.media != nil {
		info := e.media.info
		for i := range maxControllers {
			if e.padTypeSet[i] {
				continue
			}
			switch {
			case info.SixButton:
				e.input.SetPadType(i, PadAvenue6)
			case info.Avenue3 != Avenue3None:
				e.input.SetPadType(i, PadAvenue3)
				e.input.SetAvenuePad3Button(i, info.Avenue3)
			default:
				e.input.SetPadType(i, PadStandard)
			}
		}
	}
}

func (e *Emulator) resolveConsole() ConsoleType {
	if e.consoleOpt != ConsoleAuto {
		return e.consoleOpt
	}
	if e.media == nil {
		return ConsolePCE
	}
	if e.media.info.Kind == MediaCD && e.biosInfo.us {
		return ConsoleTG16
	}
	return e.media.info.Console
}

func (e *Emulator) resolveCDType() CDROMType {
	if e.cdTypeOpt != CDROMAuto {
		return e.cdTypeOpt
	}
	if e.biosInfo.version >= 3 {
		return CDROMArcadeCard
	}
	return CDROMStandard
}

// Reset performs a hard reset. Power-on contents follow the reset value
// policy, with random fill seeded from the media CRC.
func (e *Emulator) Reset() {
	f := newResetFiller(e.mediaCRC())
	rv := e.resetValues

	e.mem.reset(f, rv)
	e.vdc[0].Reset(f, rv)
	e.vdc[1].Reset(f, rv)
	e.vpc.Reset()
	e.vce.Reset(f, rv)
	e.psg.Reset()
	e.input.Reset()
	e.cdrom.Reset()
	e.arcade.reset(f, rv)
	e.cpu.Reset()

	e.audioBuffer = e.audioBuffer[:0]
	e.filterL, e.filterR = 0, 0
	e.frameCount = 0
	e.stop = false
	e.dbg.paused = false

	if e.media != nil && e.media.hes != nil {
		e.bootHES()
	}
}

// bootHES maps the player the way the file header asks and starts the
// stub that calls its init routine.
func (e *Emulator) bootHES() {
	h := e.media.hes
	song := h.startSong
	if e.hesSong >= 0 {
		song = uint8(e.hesSong)
	}
	copy(e.mem.mpr[:], h.mpr[:])
	e.mem.mpr[h.ioSlot()] = bankIO
	for _, b := range h.ram {
		off := int(b.addr) - bankWRAM*bankSize
		if off >= 0 && off < len(e.mem.wram) {
			copy(e.mem.wram[off:], b.data)
		}
	}
	e.mem.hesStub = h.stub(song)
	e.cpu.SetPC(h.entry())
}

// --- Frame loop ---

// SetInputPump registers a callback run at the start of every frame so
// the host can feed input.
func (e *Emulator) SetInputPump(fn func()) {
	e.pump = fn
}

// RunFrame executes one frame of emulation.
func (e *Emulator) RunFrame() {
	e.runFrame()
}

// Frame runs one frame and copies the picture and the audio into the
// host's buffers. fb receives Width*Height RGBA pixels packed at Width*4
// bytes per row. Audio that does not fit is dropped.
func (e *Emulator) Frame(fb []byte, audio []int16) FrameInfo {
	ready := e.runFrame()
	w, h := e.vce.FrameSize()
	copy(fb, e.vce.Framebuffer())
	n := copy(audio, e.audioBuffer)
	if n < len(e.audioBuffer) {
		e.logs.printf(logAudioOverflow, "%d of %d samples dropped: %v",
			len(e.audioBuffer)-n, len(e.audioBuffer), ErrAudioBufferOverflow)
	}
	return FrameInfo{Ready: ready, Width: w, Height: h, AudioSamples: n}
}

// runFrame steps the CPU until the VCE completes a frame, a breakpoint
// hits or the emulator is stopped.
func (e *Emulator) runFrame() bool {
	e.audioBuffer = e.audioBuffer[:0]
	if e.stop || e.dbg.paused {
		return false
	}
	if e.pump != nil {
		e.pump()
	}

	ready := false
	for !e.stop {
		if e.dbg.breakBefore(e.cpu.PC()) {
			break
		}
		e.dbg.traceStep(e)
		cycles := e.cpu.Step()
		e.clock(cycles)
		if e.cpu.irqEntered && e.dbg.breakOnIRQ {
			e.dbg.paused = true
		}
		if e.vce.takeFrameReady() {
			ready = true
			break
		}
		if e.dbg.paused {
			break
		}
	}

	e.mixAudio()
	if ready {
		e.frameCount++
		e.input.endFrame()
	}
	return ready
}

// clock hands the cost of one instruction to every other component.
func (e *Emulator) clock(cycles int) {
	e.vdc[0].Clock(cycles)
	if e.mem.sgx {
		e.vdc[1].Clock(cycles)
	}
	e.vce.Clock(cycles)
	e.psg.Clock(cycles)
	if e.mem.cdAttached {
		e.cdrom.Clock(cycles)
	}
}

// StopEmulator makes RunFrame return at the next instruction boundary and
// stay idle until the next Reset.
func (e *Emulator) StopEmulator() {
	e.stop = true
}

// Stopped reports whether StopEmulator was called since the last Reset.
func (e *Emulator) Stopped() bool { return e.stop }

// FrameCount returns the number of frames completed since reset.
func (e *Emulator) FrameCount() uint64 { return e.frameCount }

// --- Video ---

// GetFramebuffer returns the last frame stretched to ScreenWidth.
func (e *Emulator) GetFramebuffer() []byte {
	w, h := e.vce.FrameSize()
	src := e.vce.Framebuffer()
	for y := 0; y < h; y++ {
		row := src[y*w*4:]
		dst := e.screen[y*ScreenWidth*4:]
		for x := 0; x < ScreenWidth; x++ {
			sx := x * w / ScreenWidth
			copy(dst[x*4:x*4+4], row[sx*4:sx*4+4])
		}
	}
	return e.screen[:ScreenWidth*h*4]
}

// GetFramebufferStride returns the stride (bytes per row) of the framebuffer.
func (e *Emulator) GetFramebufferStride() int {
	return ScreenWidth * 4
}

// GetActiveHeight returns the number of lines in the last frame.
func (e *Emulator) GetActiveHeight() int {
	_, h := e.vce.FrameSize()
	return h
}

// NativeFrameSize returns the unstretched size of the last frame.
func (e *Emulator) NativeFrameSize() (int, int) {
	return e.vce.FrameSize()
}

// SetCompositePalette switches the VCE to composite colors.
func (e *Emulator) SetCompositePalette(on bool) {
	e.vce.SetCompositePalette(on)
}

// SetNoSpriteLimit lifts the 16 sprites per line limit.
func (e *Emulator) SetNoSpriteLimit(on bool) {
	e.vdc[0].SetSpriteLimit(!on)
	e.vdc[1].SetSpriteLimit(!on)
}

// SetOverscan selects 0 (none), 1 (all lines) or 2 (lines and borders).
func (e *Emulator) SetOverscan(mode int) {
	e.vce.SetOverscan(mode)
}

// SetScanlineWindow selects the visible lines when overscan is off.
func (e *Emulator) SetScanlineWindow(start, end int) {
	e.vce.SetScanlineWindow(start, end)
}

// --- Input ---

// Button bits of the SetInput mask after the four directions.
const (
	buttonI      = 4
	buttonII     = 5
	buttonSelect = 6
	buttonRun    = 7
	buttonIII    = 8
	buttonIV     = 9
	buttonV      = 10
	buttonVI     = 11
)

var inputBits = [...]struct {
	bit uint
	key Key
}{
	{emucore.ButtonUp, KeyUp},
	{emucore.ButtonDown, KeyDown},
	{emucore.ButtonLeft, KeyLeft},
	{emucore.ButtonRight, KeyRight},
	{buttonI, KeyI},
	{buttonII, KeyII},
	{buttonSelect, KeySelect},
	{buttonRun, KeyRun},
	{buttonIII, KeyIII},
	{buttonIV, KeyIV},
	{buttonV, KeyV},
	{buttonVI, KeyVI},
}

// SetInput unpacks a button bitmask and sets controller state for the given player.
func (e *Emulator) SetInput(player int, buttons uint32) {
	for _, b := range inputBits {
		e.input.SetKey(player, b.key, buttons&(1<<b.bit) != 0)
	}
}

// KeyPressed presses a button.
func (e *Emulator) KeyPressed(controller int, k Key) {
	e.input.SetKey(controller, k, true)
}

// KeyReleased releases a button.
func (e *Emulator) KeyReleased(controller int, k Key) {
	e.input.SetKey(controller, k, false)
}

// SetPadType selects the controller type of a port. It overrides the game
// database default.
func (e *Emulator) SetPadType(controller int, t PadType) {
	if controller >= 0 && controller < maxControllers {
		e.padTypeSet[controller] = true
	}
	e.input.SetPadType(controller, t)
}

// SetAvenuePad3Button routes button III of an Avenue Pad 3.
func (e *Emulator) SetAvenuePad3Button(controller int, b Avenue3Button) {
	e.input.SetAvenuePad3Button(controller, b)
}

// SetTurboTap plugs in or removes the multitap.
func (e *Emulator) SetTurboTap(on bool) { e.input.SetTurboTap(on) }

// SetTurbo enables auto fire for button I or II.
func (e *Emulator) SetTurbo(controller int, k Key, on bool) {
	e.input.SetTurbo(controller, k, on)
}

// SetTurboSpeed sets the auto fire half period in frames.
func (e *Emulator) SetTurboSpeed(controller int, k Key, frames int) {
	e.input.SetTurboSpeed(controller, k, frames)
}

// --- Configuration ---

// SetConsoleType forces a console model. The machine is rebuilt and reset
// when media is loaded.
func (e *Emulator) SetConsoleType(c ConsoleType) {
	e.consoleOpt = c
	e.reconfigure()
}

// SetCDROMType forces a CD-ROM unit type.
func (e *Emulator) SetCDROMType(c CDROMType) {
	e.cdTypeOpt = c
	e.reconfigure()
}

func (e *Emulator) reconfigure() {
	if e.media == nil {
		e.configureHardware()
		return
	}
	e.configureHardware()
	e.Reset()
}

// ConsoleType returns the model being emulated.
func (e *Emulator) ConsoleType() ConsoleType { return e.console }

// CDROMType returns the CD-ROM unit type in use.
func (e *Emulator) CDROMType() CDROMType { return e.cdType }

// SetBackupRAMForced keeps backup RAM writable without the unlock sequence.
func (e *Emulator) SetBackupRAMForced(on bool) {
	e.mem.bramForced = on
}

// SetPreloadCDROM reads every track into memory when a CD is loaded.
func (e *Emulator) SetPreloadCDROM(on bool) {
	e.preload = on
}

// SetResetValues sets the power-on policy used by the next Reset.
func (e *Emulator) SetResetValues(rv ResetValues) {
	e.resetValues = rv
}

// SetHESSong selects the song a HES file starts with and restarts it.
// A negative value plays the file's default song.
func (e *Emulator) SetHESSong(song int) {
	e.hesSong = min(song, 255)
	if e.media != nil && e.media.hes != nil {
		e.Reset()
	}
}

// SetOption applies a core option change identified by key.
func (e *Emulator) SetOption(key string, value string) {
	on := value == "true"
	switch key {
	case "console_type":
		e.SetConsoleType(ParseConsoleType(value))
	case "cdrom_type":
		e.SetCDROMType(ParseCDROMType(value))
	case "pad_type":
		for i := range maxControllers {
			e.SetPadType(i, ParsePadType(value))
		}
	case "six_button":
		t := PadStandard
		if on {
			t = PadAvenue6
		}
		for i := range maxControllers {
			e.SetPadType(i, t)
		}
	case "avenue_pad3_button":
		for i := range maxControllers {
			e.SetAvenuePad3Button(i, ParseAvenue3Button(value))
		}
	case "turbo_tap":
		e.SetTurboTap(on)
	case "backup_ram_forced":
		e.SetBackupRAMForced(on)
	case "preload_cdrom":
		e.SetPreloadCDROM(on)
	case "composite_palette":
		e.SetCompositePalette(on)
	case "no_sprite_limit":
		e.SetNoSpriteLimit(on)
	case "overscan":
		if n, err := strconv.Atoi(value); err == nil {
			e.SetOverscan(n)
		}
	case "scanline_start":
		if n, err := strconv.Atoi(value); err == nil {
			e.SetScanlineWindow(n, e.vce.scanEnd)
		}
	case "scanline_end":
		if n, err := strconv.Atoi(value); err == nil {
			e.SetScanlineWindow(e.vce.scanStart, n)
		}
	case "hes_song":
		if n, err := strconv.Atoi(value); err == nil {
			e.SetHESSong(n)
		}
	}
}

// --- Backup memory ---

// HasSRAM reports whether backup RAM is present: with a CD-ROM unit or
// when forced on.
func (e *Emulator) HasSRAM() bool {
	return e.mem.cdAttached || e.mem.bramForced
}

// GetSRAM returns a copy of the backup RAM.
func (e *Emulator) GetSRAM() []byte {
	out := make([]byte, bramSize)
	copy(out, e.mem.bram[:])
	return out
}

// SetSRAM restores backup RAM from a save file.
func (e *Emulator) SetSRAM(data []byte) {
	copy(e.mem.bram[:], data)
}

// SetMB128Attached plugs the Memory Base 128 into the pad port.
func (e *Emulator) SetMB128Attached(on bool) {
	e.input.mbAttached = on
}

// GetMB128 returns a copy of the Memory Base 128 contents.
func (e *Emulator) GetMB128() []byte {
	out := make([]byte, mb128Size)
	copy(out, e.input.mb.Data())
	return out
}

// SetMB128 restores the Memory Base 128 from a save file.
func (e *Emulator) SetMB128(data []byte) {
	e.input.mb.Load(data)
}

// MB128Dirty reports whether the Memory Base 128 was written since the
// last SetMB128.
func (e *Emulator) MB128Dirty() bool { return e.input.mb.dirty }

// PSGChannelLevels exports the channel state for music player displays.
func (e *Emulator) PSGChannelLevels() [psgChannels]ChannelLevel {
	return e.psg.ChannelLevels()
}

// Close releases any resources held by the emulator.
func (e *Emulator) Close() {
	e.closeMedia()
}

// --- Memory inspection ---

// ReadMemory reads from a flat address into buf and returns the number
// of bytes read.
func (e *Emulator) ReadMemory(addr uint32, buf []byte) uint32 {
	var count uint32
	for i := range buf {
		cur := addr + uint32(i)
		var b byte
		switch {
		case cur <= wramEnd:
			b = e.mem.wram[uint16(cur-wramStart)&e.mem.wramMask]
		case cur >= bramStart && cur <= bramEnd:
			b = e.mem.bram[cur-bramStart]
		case cur >= cdRAMStart && cur <= cdRAMEnd && e.mem.cdRAM != nil:
			b = e.mem.cdRAM[cur-cdRAMStart]
		default:
			return count
		}
		buf[i] = b
		count++
	}
	return count
}

// MemoryMap returns a list of available memory regions with sizes.
func (e *Emulator) MemoryMap() []emucore.MemoryRegion {
	regions := []emucore.MemoryRegion{
		{Type: emucore.MemorySystemRAM, Size: int(e.mem.wramMask) + 1},
	}
	if e.HasSRAM() {
		regions = append(regions, emucore.MemoryRegion{
			Type: emucore.MemorySaveRAM,
			Size: bramSize,
		})
	}
	return regions
}

// ReadRegion returns a copy of the specified memory region.
func (e *Emulator) ReadRegion(regionType int) []byte {
	switch regionType {
	case emucore.MemorySystemRAM:
		out := make([]byte, int(e.mem.wramMask)+1)
		copy(out, e.mem.wram[:])
		return out
	case emucore.MemorySaveRAM:
		return e.GetSRAM()
	default:
		return nil
	}
}

// WriteRegion writes data to the specified memory region.
func (e *Emulator) WriteRegion(regionType int, data []byte) {
	switch regionType {
	case emucore.MemorySystemRAM:
		copy(e.mem.wram[:int(e.mem.wramMask)+1], data)
	case emucore.MemorySaveRAM:
		e.SetSRAM(data)
	}
}
