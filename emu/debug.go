package emu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Registers is a snapshot of the CPU for debuggers.
type Registers struct {
	A, X, Y, S, P uint8
	PC            uint16
	MPR           [8]uint8
	HighSpeed     bool
	Cycles        uint64
}

// TraceEntry describes the instruction about to execute.
type TraceEntry struct {
	Registers
	Bank   uint8
	Text   string
	Symbol string
}

// debugger holds breakpoints and trace state. Everything here is only
// touched between frames or from inside RunFrame.
type debugger struct {
	breakpoints map[uint16]struct{}
	breakOnIRQ  bool
	paused      bool
	skipOnce    bool
	trace       func(TraceEntry)
	symbols     map[uint32]string
}

func (d *debugger) init() {
	d.breakpoints = make(map[uint16]struct{})
	d.symbols = make(map[uint32]string)
}

// breakBefore reports whether execution must stop before the instruction
// at pc. The instruction a resume starts from is let through once.
func (d *debugger) breakBefore(pc uint16) bool {
	if d.skipOnce {
		d.skipOnce = false
		return false
	}
	if _, ok := d.breakpoints[pc]; ok {
		d.paused = true
		return true
	}
	return false
}

func (d *debugger) traceStep(e *Emulator) {
	if d.trace == nil {
		return
	}
	pc := e.cpu.PC()
	text, _ := e.Disassemble(pc)
	d.trace(TraceEntry{
		Registers: e.Registers(),
		Bank:      e.mem.MPR(int(pc >> 13)),
		Text:      text,
		Symbol:    e.Symbol(pc),
	})
}

// --- Execution control ---

// AddBreakpoint stops execution before the instruction at logical pc.
func (e *Emulator) AddBreakpoint(pc uint16) {
	e.dbg.breakpoints[pc] = struct{}{}
}

// RemoveBreakpoint deletes a breakpoint.
func (e *Emulator) RemoveBreakpoint(pc uint16) {
	delete(e.dbg.breakpoints, pc)
}

// ClearBreakpoints deletes every breakpoint.
func (e *Emulator) ClearBreakpoints() {
	clear(e.dbg.breakpoints)
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (e *Emulator) Breakpoints() []uint16 {
	return slices.Sorted(maps.Keys(e.dbg.breakpoints))
}

// SetBreakOnIRQ pauses on the first instruction of every interrupt handler.
func (e *Emulator) SetBreakOnIRQ(on bool) {
	e.dbg.breakOnIRQ = on
}

// SetTraceHook calls fn before every instruction. nil disables tracing.
func (e *Emulator) SetTraceHook(fn func(TraceEntry)) {
	e.dbg.trace = fn
}

// Paused reports whether a breakpoint stopped execution.
func (e *Emulator) Paused() bool { return e.dbg.paused }

// Pause stops execution at the next instruction boundary.
func (e *Emulator) Pause() { e.dbg.paused = true }

// Resume continues after a pause. The instruction at the current PC runs
// even if it carries a breakpoint.
func (e *Emulator) Resume() {
	e.dbg.paused = false
	e.dbg.skipOnce = true
}

// StepInstruction executes a single instruction, ignoring breakpoints, and
// returns its cost in master cycles.
func (e *Emulator) StepInstruction() int {
	e.dbg.traceStep(e)
	cycles := e.cpu.Step()
	e.clock(cycles)
	if e.vce.takeFrameReady() {
		e.frameCount++
		e.input.endFrame()
	}
	return cycles
}

// Registers returns the CPU state.
func (e *Emulator) Registers() Registers {
	c := e.cpu
	return Registers{
		A: c.a, X: c.x, Y: c.y, S: c.s, P: c.p,
		PC:        c.pc,
		MPR:       e.mem.mpr,
		HighSpeed: c.speedHigh,
		Cycles:    c.cycles,
	}
}

// Peek reads a logical address without side effects.
func (e *Emulator) Peek(addr uint16) uint8 { return e.mem.Peek(addr) }

// Poke writes a logical address. The I/O page is not writable.
func (e *Emulator) Poke(addr uint16, v uint8) { e.mem.Poke(addr, v) }

// PeekPhysical reads a 21-bit physical address without side effects.
func (e *Emulator) PeekPhysical(addr uint32) uint8 {
	return e.mem.peekPhysical(uint8(addr>>13), uint16(addr&0x1FFF))
}

// --- Symbols ---

func symbolKey(bank uint8, addr uint16) uint32 {
	return uint32(bank)<<16 | uint32(addr)
}

// LoadSymbols reads "bank:addr name" lines with hex numbers. Blank lines
// and lines starting with ';' or '#' are skipped.
func (e *Emulator) LoadSymbols(r io.Reader) error {
	syms := make(map[uint32]string)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == ';' || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return fmt.Errorf("symbols line %d: missing name", line)
		}
		bankText, addrText, ok := strings.Cut(fields[0], ":")
		if !ok {
			return fmt.Errorf("symbols line %d: want bank:addr, got %q", line, fields[0])
		}
		bank, err := strconv.ParseUint(bankText, 16, 8)
		if err != nil {
			return fmt.Errorf("symbols line %d: %w", line, err)
		}
		addr, err := strconv.ParseUint(addrText, 16, 16)
		if err != nil {
			return fmt.Errorf("symbols line %d: %w", line, err)
		}
		syms[symbolKey(uint8(bank), uint16(addr))] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return err
	}
	maps.Copy(e.dbg.symbols, syms)
	return nil
}

// LoadSymbolFile loads a symbol file from the emulator's file system.
func (e *Emulator) LoadSymbolFile(path string) error {
	f, err := e.fs.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, ErrInvalidPath)
	}
	defer f.Close()
	return e.LoadSymbols(f)
}

// Symbol returns the name of logical addr under the current mapping.
func (e *Emulator) Symbol(addr uint16) string {
	return e.dbg.symbols[symbolKey(e.mem.MPR(int(addr>>13)), addr)]
}

// --- Disassembler ---

// Disassemble decodes the instruction at logical addr and returns its text
// and length in bytes.
func (e *Emulator) Disassemble(addr uint16) (string, int) {
	op := e.mem.Peek(addr)
	info := opTable[op]
	size := modeSize[info.mode]
	if info.name == "" {
		return fmt.Sprintf(".db $%02X", op), 1
	}
	b := func(i int) uint8 { return e.mem.Peek(addr + uint16(i)) }
	w := func(i int) uint16 { return uint16(b(i)) | uint16(b(i+1))<<8 }
	target := func(a uint16) string {
		if s := e.Symbol(a); s != "" {
			return s
		}
		return fmt.Sprintf("$%04X", a)
	}

	var operand string
	switch info.mode {
	case modeAcc:
		operand = "A"
	case modeImm:
		operand = fmt.Sprintf("#$%02X", b(1))
	case modeZp:
		operand = fmt.Sprintf("$%02X", b(1))
	case modeZpX:
		operand = fmt.Sprintf("$%02X,X", b(1))
	case modeZpY:
		operand = fmt.Sprintf("$%02X,Y", b(1))
	case modeAbs:
		operand = target(w(1))
	case modeAbsX:
		operand = target(w(1)) + ",X"
	case modeAbsY:
		operand = target(w(1)) + ",Y"
	case modeInd:
		operand = "(" + target(w(1)) + ")"
	case modeAbsXInd:
		operand = "(" + target(w(1)) + ",X)"
	case modeIzX:
		operand = fmt.Sprintf("($%02X,X)", b(1))
	case modeIzY:
		operand = fmt.Sprintf("($%02X),Y", b(1))
	case modeIzp:
		operand = fmt.Sprintf("($%02X)", b(1))
	case modeRel:
		operand = target(addr + 2 + uint16(int8(b(1))))
	case modeZpRel:
		operand = fmt.Sprintf("$%02X,%s", b(1), target(addr+3+uint16(int8(b(2)))))
	case modeImmZp:
		operand = fmt.Sprintf("#$%02X,$%02X", b(1), b(2))
	case modeImmZpX:
		operand = fmt.Sprintf("#$%02X,$%02X,X", b(1), b(2))
	case modeImmAbs:
		operand = fmt.Sprintf("#$%02X,%s", b(1), target(w(2)))
	case modeImmAbsX:
		operand = fmt.Sprintf("#$%02X,%s,X", b(1), target(w(2)))
	case modeBlock:
		operand = fmt.Sprintf("$%04X,$%04X,$%04X", w(1), w(3), w(5))
	}
	if operand == "" {
		return info.name, size
	}
	return info.name + " " + operand, size
}
