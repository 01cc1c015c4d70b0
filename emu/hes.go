package emu

import (
	"encoding/binary"
	"fmt"
)

const (
	hesHeaderSize = 0x10
	hesROMSize    = 0x100000
	hesStubSize   = 0x400
	hesStubBase   = 0x1C00
)

type hesBlock struct {
	addr uint32
	data []byte
}

// hesFile is a parsed HES music rip: the player ROM, the MPR setup and the
// init routine to call with the song number in A.
type hesFile struct {
	version   uint8
	startSong uint8
	initAddr  uint16
	mpr       [8]uint8
	rom       []byte
	ram       []hesBlock // DATA blocks aimed at work RAM
}

func isHES(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "HESM"
}

func parseHES(data []byte) (*hesFile, error) {
	if !isHES(data) || len(data) < hesHeaderSize {
		return nil, fmt.Errorf("hes header: %w", ErrUnsupportedFormat)
	}
	h := &hesFile{
		version:   data[4],
		startSong: data[5],
		initAddr:  binary.LittleEndian.Uint16(data[6:]),
		rom:       make([]byte, hesROMSize),
	}
	copy(h.mpr[:], data[8:16])

	p := hesHeaderSize
	blocks := 0
	for p+16 <= len(data) && string(data[p:p+4]) == "DATA" {
		size := int(binary.LittleEndian.Uint32(data[p+4:]))
		addr := binary.LittleEndian.Uint32(data[p+8:]) & 0x1FFFFF
		p += 16
		if size > len(data)-p {
			size = len(data) - p
		}
		block := data[p : p+size]
		p += size
		blocks++

		switch {
		case addr < hesROMSize:
			copy(h.rom[addr:], block)
		case addr>>13 >= bankWRAM && addr>>13 < bankIO:
			h.ram = append(h.ram, hesBlock{addr: addr, data: block})
		}
	}
	if blocks == 0 {
		return nil, fmt.Errorf("hes has no data: %w", ErrBadSize)
	}
	return h, nil
}

// ioSlot returns the MPR slot that maps the I/O page, forcing slot 0 when
// the header maps it nowhere.
func (h *hesFile) ioSlot() int {
	for i, b := range h.mpr {
		if b == bankIO {
			return i
		}
	}
	return 0
}

// stub builds the boot code run from the I/O page. It calls the init
// routine with the song in A and then idles with interrupts on so the
// player runs from its IRQ handlers.
func (h *hesFile) stub(song uint8) []byte {
	irqDisable := uint16(h.ioSlot())<<13 | 0x1402
	code := []byte{
		0x78,       // SEI
		0xD4,       // CSH
		0xA2, 0xFF, // LDX #$FF
		0x9A,                                            // TXS
		0x9C, uint8(irqDisable), uint8(irqDisable >> 8), // STZ $1402
		0xA9, song, // LDA #song
		0x20, uint8(h.initAddr), uint8(h.initAddr >> 8), // JSR init
		0x58,       // CLI
		0x80, 0xFE, // BRA *
	}
	stub := make([]byte, hesStubSize)
	copy(stub, code)
	return stub
}

// entry returns the logical address of the stub.
func (h *hesFile) entry() uint16 {
	return uint16(h.ioSlot())<<13 | hesStubBase
}
