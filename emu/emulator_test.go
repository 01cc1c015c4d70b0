package emu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

// zeroResetValues makes power-on state fully deterministic.
var zeroResetValues = ResetValues{
	MPR:        ResetZero,
	WRAM:       ResetZero,
	CardRAM:    ResetZero,
	ArcadeRAM:  ResetZero,
	Registers:  ResetZero,
	ColorTable: ResetZero,
}

// mapPrologue maps the I/O page at $0000 and work RAM at $2000.
var mapPrologue = []byte{
	0xA9, 0xFF, // LDA #$FF
	0x53, 0x01, // TAM #$01
	0xA9, 0xF8, // LDA #$F8
	0x53, 0x02, // TAM #$02
}

// testROM builds an 8KB HuCard with prog at $E000 and the reset vector
// pointing at it.
func testROM(prog ...[]byte) []byte {
	rom := make([]byte, romBankSize)
	p := 0
	for _, part := range prog {
		p += copy(rom[p:], part)
	}
	setVector(rom, vectorReset, 0xE000)
	return rom
}

// setVector writes a vector into a single bank ROM mapped at $E000.
func setVector(rom []byte, vector, addr uint16) {
	off := int(vector - 0xE000)
	rom[off] = uint8(addr)
	rom[off+1] = uint8(addr >> 8)
}

func newTestEmulator(t *testing.T, rom []byte) *Emulator {
	t.Helper()
	e := New()
	e.SetResetValues(zeroResetValues)
	if err := e.LoadMediaBytes("test.pce", rom); err != nil {
		t.Fatalf("LoadMediaBytes: %v", err)
	}
	return e
}

func stepN(e *Emulator, n int) {
	for i := 0; i < n; i++ {
		e.StepInstruction()
	}
}

func TestNewEmulatorWithoutMedia(t *testing.T) {
	e := New()
	e.RunFrame()
	if got := e.GetMediaInfo().Kind; got != MediaNone {
		t.Errorf("media kind = %v, want None", got)
	}
	if e.GetActiveHeight() != DefaultScreenHeight {
		t.Errorf("active height = %d, want %d", e.GetActiveHeight(), DefaultScreenHeight)
	}
}

func TestRunFrameProducesFrameAndAudio(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE})) // BRA *
	fb := make([]byte, MaxFrameWidth*MaxFrameHeight*4)
	audio := make([]int16, 4096)

	// The first frame after reset is short: it starts on line 0 rather
	// than where the previous frame ended.
	e.RunFrame()
	info := e.Frame(fb, audio)
	if !info.Ready {
		t.Fatal("frame not ready")
	}
	if info.Width != 256 || info.Height != DefaultScreenHeight {
		t.Errorf("frame size = %dx%d, want 256x%d", info.Width, info.Height, DefaultScreenHeight)
	}
	// 262 lines of 1365 cycles hold 799.27 samples at 48 kHz.
	if info.AudioSamples != 2*799 && info.AudioSamples != 2*800 {
		t.Errorf("audio samples = %d, want 1598 or 1600", info.AudioSamples)
	}
	if e.FrameCount() != 2 {
		t.Errorf("frame count = %d, want 2", e.FrameCount())
	}
	if got := len(e.GetFramebuffer()); got != ScreenWidth*info.Height*4 {
		t.Errorf("stretched framebuffer = %d bytes, want %d", got, ScreenWidth*info.Height*4)
	}
}

func TestFrameAudioOverflowIsNotFatal(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	fb := make([]byte, MaxFrameWidth*MaxFrameHeight*4)
	audio := make([]int16, 10)

	info := e.Frame(fb, audio)
	if info.AudioSamples != 10 {
		t.Errorf("audio samples = %d, want 10", info.AudioSamples)
	}
	if !info.Ready {
		t.Error("frame not ready")
	}
}

func TestStopEmulator(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	e.StopEmulator()
	e.RunFrame()
	if e.FrameCount() != 0 {
		t.Errorf("frame ran after stop")
	}
	e.Reset()
	e.RunFrame()
	if e.FrameCount() != 1 {
		t.Errorf("frame count after reset = %d, want 1", e.FrameCount())
	}
}

func TestBackupRAMUnlock(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	m := e.mem

	m.writePhysical(bankBRAM, 0, 0xAA)
	if got := m.readPhysical(bankBRAM, 0); got != 0x00 {
		t.Fatalf("locked BRAM write landed: got $%02X", got)
	}

	for i, v := range []uint8{0x48, 0x55, 0x42, 0x4D} {
		m.writePhysical(bankIO, 0x1807+uint16(i), v)
	}
	m.writePhysical(bankBRAM, 0, 0xAA)
	if got := m.readPhysical(bankBRAM, 0); got != 0xAA {
		t.Fatalf("unlocked BRAM read = $%02X, want $AA", got)
	}

	e.Reset()
	if got := m.readPhysical(bankBRAM, 0); got != 0xAA {
		t.Errorf("BRAM after reset = $%02X, want $AA", got)
	}
	m.writePhysical(bankBRAM, 0, 0x55)
	if got := m.readPhysical(bankBRAM, 0); got != 0xAA {
		t.Errorf("BRAM writable after reset: got $%02X", got)
	}

	fresh := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	if got := fresh.mem.readPhysical(bankBRAM, 0); got != 0x00 {
		t.Errorf("unpersisted BRAM = $%02X, want $00", got)
	}
}

func TestBackupRAMForced(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	e.SetBackupRAMForced(true)
	if !e.HasSRAM() {
		t.Error("HasSRAM false with forced backup RAM")
	}
	e.mem.writePhysical(bankBRAM, 0x10, 0x5A)
	if got := e.GetSRAM()[0x10]; got != 0x5A {
		t.Errorf("GetSRAM[0x10] = $%02X, want $5A", got)
	}
}

func TestReadMemoryFlatMap(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	e.mem.wram[0x10] = 0x11
	e.mem.bram[0x20] = 0x22

	buf := make([]byte, 1)
	if n := e.ReadMemory(wramStart+0x10, buf); n != 1 || buf[0] != 0x11 {
		t.Errorf("WRAM read = %d/$%02X", n, buf[0])
	}
	if n := e.ReadMemory(bramStart+0x20, buf); n != 1 || buf[0] != 0x22 {
		t.Errorf("BRAM read = %d/$%02X", n, buf[0])
	}
	if n := e.ReadMemory(cdRAMStart, buf); n != 0 {
		t.Errorf("CD RAM read without CD returned %d bytes", n)
	}

	big := make([]byte, 0x10)
	if n := e.ReadMemory(bramEnd-7, big); n != 8 {
		t.Errorf("read across BRAM end returned %d bytes, want 8", n)
	}
}

func TestMemoryMap(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	regions := e.MemoryMap()
	if len(regions) != 1 || regions[0].Size != wramSizePCE {
		t.Fatalf("regions = %+v", regions)
	}

	data := bytes.Repeat([]byte{0x3C}, wramSizePCE)
	e.WriteRegion(regions[0].Type, data)
	if !bytes.Equal(e.ReadRegion(regions[0].Type), data) {
		t.Error("system RAM region did not round trip")
	}
}

func TestSetInputMapsButtons(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	e.SetInput(0, 1<<buttonI|1<<buttonRun)

	e.input.Write(0x00) // SEL low: buttons
	v := e.input.Read()
	if v&0x01 != 0 {
		t.Error("button I not reported")
	}
	if v&0x08 != 0 {
		t.Error("RUN not reported")
	}
	if v&0x06 != 0x06 {
		t.Errorf("unexpected buttons down: $%02X", v)
	}
}

func TestLoadMediaBytesErrors(t *testing.T) {
	e := New()
	if err := e.LoadMediaBytes("empty.pce", nil); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty ROM error = %v", err)
	}
	if err := e.LoadMediaBytes("odd.pce", make([]byte, 1000)); !errors.Is(err, ErrBadSize) {
		t.Errorf("odd size error = %v", err)
	}
	if err := e.LoadMediaBytes("game.cue", []byte("FILE")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("cue bytes error = %v", err)
	}
}

func TestHeaderedROMIsStripped(t *testing.T) {
	rom := testROM([]byte{0x80, 0xFE})
	headered := append(make([]byte, romHeaderSize), rom...)
	e := newTestEmulator(t, headered)
	if e.cpu.PC() != 0xE000 {
		t.Errorf("PC = $%04X, want $E000", e.cpu.PC())
	}
	if got := e.GetMediaInfo().CRC; got != crc(rom) {
		t.Errorf("CRC = %08X, want %08X", got, crc(rom))
	}
}

func TestBitReversedROMIsRestored(t *testing.T) {
	rom := testROM([]byte{0x80, 0xFE})
	reversed := make([]byte, len(rom))
	for i, b := range rom {
		reversed[i] = reverseBits(b)
	}
	e := newTestEmulator(t, reversed)
	info := e.GetMediaInfo()
	if !info.Reversed {
		t.Error("bit reversed dump not detected")
	}
	if info.Console != ConsoleTG16 {
		t.Errorf("console = %v, want TurboGrafx-16", info.Console)
	}
	if e.cpu.PC() != 0xE000 {
		t.Errorf("PC = $%04X, want $E000", e.cpu.PC())
	}
	if e.input.Read()&0x40 != 0 {
		t.Error("TurboGrafx port reports Japanese region bit")
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r = r<<1 | b&1
		b >>= 1
	}
	return r
}

func TestSGXExtensionSelectsSuperGrafx(t *testing.T) {
	e := New()
	if err := e.LoadMediaBytes("game.sgx", testROM([]byte{0x80, 0xFE})); err != nil {
		t.Fatal(err)
	}
	info := e.GetMediaInfo()
	if !info.IsSGX || info.Console != ConsoleSGX {
		t.Errorf("info = %+v, want SuperGrafx", info)
	}
	if e.ConsoleType().String() != "SuperGrafx" {
		t.Errorf("console = %q", e.ConsoleType().String())
	}
	if e.vce.source != pixelSource(e.vpc) {
		t.Error("VCE not fed by the HuC6202")
	}
}

func TestConsoleTypeOverride(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x80, 0xFE}))
	if got := e.GetMediaInfo().Console.String(); got != "PC Engine" {
		t.Errorf("console = %q, want PC Engine", got)
	}
	e.SetOption("console_type", "sgx")
	if !e.mem.sgx {
		t.Error("SuperGrafx memory map not enabled")
	}
	e.SetOption("console_type", "auto")
	if e.mem.sgx {
		t.Error("SuperGrafx still enabled after auto")
	}
}

func TestCDMediaRequiresBios(t *testing.T) {
	e := New()
	img, err := newCDImage(afero.NewMemMapFs(), []Track{{Number: 1, Type: TrackMode1_2048, EndLBA: 100, SectorSize: sectorSizeData}})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.insert(newCDMedia(img, "game.cue")); !errors.Is(err, ErrBiosRequired) {
		t.Errorf("error = %v, want ErrBiosRequired", err)
	}
}

func TestUnknownBiosInstallsAnyway(t *testing.T) {
	e := New()
	bios := testROM([]byte{0x80, 0xFE})
	err := e.LoadBiosBytes(bios)
	if !errors.Is(err, ErrBiosInvalid) {
		t.Fatalf("error = %v, want ErrBiosInvalid", err)
	}
	if e.BiosName() != "Unknown System Card" {
		t.Errorf("bios name = %q", e.BiosName())
	}
	if e.bios == nil {
		t.Error("bios not installed")
	}
}
