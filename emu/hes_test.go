package emu

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildHES assembles a rip whose init routine stores the song number at
// $2000.
func buildHES(startSong uint8, mpr [8]uint8) []byte {
	data := []byte("HESM")
	data = append(data, 0, startSong, 0x00, 0xE0)
	data = append(data, mpr[:]...)

	block := func(addr uint32, b []byte) {
		data = append(data, "DATA"...)
		data = binary.LittleEndian.AppendUint32(data, uint32(len(b)))
		data = binary.LittleEndian.AppendUint32(data, addr)
		data = append(data, 0, 0, 0, 0)
		data = append(data, b...)
	}
	block(0, []byte{
		0x8D, 0x00, 0x20, // STA $2000
		0x60, // RTS
	})
	block(uint32(bankWRAM)*bankSize+0x10, []byte{0x77})
	return data
}

var hesMPR = [8]uint8{bankIO, bankWRAM, 0, 0, 0, 0, 0, 0}

func TestHESBoot(t *testing.T) {
	e := New()
	e.SetResetValues(zeroResetValues)
	if err := e.LoadMediaBytes("music.hes", buildHES(2, hesMPR)); err != nil {
		t.Fatalf("LoadMediaBytes: %v", err)
	}
	if got := e.GetMediaInfo().Kind; got != MediaHES {
		t.Fatalf("media kind = %v, want HES", got)
	}
	if e.mem.wram[0x10] != 0x77 {
		t.Error("work RAM block not copied")
	}
	if e.cpu.PC() != hesStubBase {
		t.Errorf("PC = %04X, want stub at %04X", e.cpu.PC(), hesStubBase)
	}

	stepN(e, 20)
	if e.mem.wram[0] != 2 {
		t.Errorf("init called with song %d, want 2", e.mem.wram[0])
	}
	if e.cpu.irqDisable != 0 {
		t.Errorf("IRQ disable = %02X, want all enabled", e.cpu.irqDisable)
	}

	e.SetHESSong(5)
	stepN(e, 20)
	if e.mem.wram[0] != 5 {
		t.Errorf("after SetHESSong init saw %d, want 5", e.mem.wram[0])
	}
}

func TestHESMissingIOSlot(t *testing.T) {
	h, err := parseHES(buildHES(0, [8]uint8{0, bankWRAM, 0, 0, 0, 0, 0, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if h.ioSlot() != 0 || h.entry() != hesStubBase {
		t.Errorf("slot %d entry %04X, want slot 0 at %04X", h.ioSlot(), h.entry(), hesStubBase)
	}

	h.mpr[3] = bankIO
	h.mpr[0] = 0
	if h.entry() != 0x6000|hesStubBase {
		t.Errorf("entry = %04X, want %04X", h.entry(), 0x6000|hesStubBase)
	}
	stub := h.stub(9)
	if stub[6] != 0x02 || stub[7] != 0x74 {
		t.Errorf("IRQ disable write aimed at %02X%02X, want 7402", stub[7], stub[6])
	}
}

func TestParseHESErrors(t *testing.T) {
	if _, err := parseHES([]byte("NOPE0000000000000000")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("bad magic: %v", err)
	}
	header := buildHES(0, hesMPR)[:hesHeaderSize]
	if _, err := parseHES(header); !errors.Is(err, ErrBadSize) {
		t.Errorf("no blocks: %v", err)
	}
}
