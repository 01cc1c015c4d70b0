package emu

import "testing"

func TestMPRRoundTrip(t *testing.T) {
	values := []uint8{0x00, 0x01, 0x40, 0x7F, 0x80, 0xF7, 0xF8, 0xFF}
	for slot := 0; slot < 7; slot++ {
		for _, b := range values {
			bit := uint8(1) << slot
			e := newTestEmulator(t, testROM([]byte{
				0xA9, b, // LDA #b
				0x53, bit, // TAM
				0xA9, 0x00, // LDA #$00
				0x43, bit, // TMA
			}))
			stepN(e, 4)

			if e.cpu.a != b {
				t.Errorf("slot %d: TMA(TAM(%02X)) = %02X", slot, b, e.cpu.a)
			}
			if got := e.mem.MPR(slot); got != b {
				t.Errorf("slot %d: MPR = %02X, want %02X", slot, got, b)
			}
			logical := uint16(slot)<<13 | 0x0123
			if got, want := e.mem.Physical(logical), uint32(b)<<13|0x0123; got != want {
				t.Errorf("slot %d: physical(%04X) = %06X, want %06X", slot, logical, got, want)
			}
		}
	}
}

func TestResetForcesMPR7(t *testing.T) {
	e := New()
	e.SetResetValues(ResetValues{MPR: ResetOnes})
	if err := e.LoadMediaBytes("test.pce", testROM([]byte{0x80, 0xFE})); err != nil {
		t.Fatal(err)
	}
	if e.mem.MPR(7) != 0x00 {
		t.Errorf("MPR7 = %02X, want 00", e.mem.MPR(7))
	}
	if e.mem.MPR(0) != 0xFF {
		t.Errorf("MPR0 = %02X, want FF from the reset policy", e.mem.MPR(0))
	}
	if e.cpu.PC() != 0xE000 {
		t.Errorf("PC = %04X, want E000", e.cpu.PC())
	}
	if e.cpu.p&flagI == 0 {
		t.Error("I flag clear after reset")
	}
}

// timerProgram starts the timer with a reload of zero and spins.
func timerProgram(cli bool) []byte {
	prog := append([]byte{}, mapPrologue...)
	prog = append(prog,
		0xA9, 0x00, // LDA #$00
		0x8D, 0x00, 0x0C, // STA $0C00
		0xA9, 0x01, // LDA #$01
		0x8D, 0x01, 0x0C, // STA $0C01
	)
	if cli {
		prog = append(prog, 0x58)
	}
	return append(prog, 0x80, 0xFE) // BRA *
}

func TestInterruptGating(t *testing.T) {
	prog := timerProgram(false)
	rom := testROM(prog)
	rom[0x100], rom[0x101] = 0x80, 0xFE
	setVector(rom, vectorTimer, 0xE100)
	e := newTestEmulator(t, rom)

	loop := uint16(0xE000 + len(prog) - 2)
	for i := 0; i < 5000; i++ {
		e.StepInstruction()
		if e.cpu.irqEntered {
			t.Fatalf("interrupt taken with I set at step %d", i)
		}
	}
	if e.cpu.PC() != loop {
		t.Errorf("PC = %04X, want %04X", e.cpu.PC(), loop)
	}
	if !e.cpu.timer.request {
		t.Error("timer never requested an interrupt")
	}
	if e.cpu.pending()&irqBitTimer == 0 {
		t.Error("$1403 does not show the timer request")
	}
}

func TestTimerInterruptTaken(t *testing.T) {
	rom := testROM(timerProgram(true))
	rom[0x100], rom[0x101] = 0x80, 0xFE
	setVector(rom, vectorTimer, 0xE100)
	e := newTestEmulator(t, rom)

	taken := false
	for i := 0; i < 5000 && !taken; i++ {
		e.StepInstruction()
		taken = e.cpu.irqEntered
	}
	if !taken {
		t.Fatal("timer interrupt never taken")
	}
	if e.cpu.PC() != 0xE100 {
		t.Errorf("PC = %04X, want handler at E100", e.cpu.PC())
	}
	if e.cpu.p&flagI == 0 {
		t.Error("I flag not set in handler")
	}
}

func TestTimerPeriod(t *testing.T) {
	var tm hucTimer
	tm.writeReload(2)
	tm.writeControl(1)
	tm.clock(timerPeriod - 1)
	if tm.counter != 2 {
		t.Fatalf("counter = %d before one period", tm.counter)
	}
	tm.clock(1)
	if tm.counter != 1 {
		t.Fatalf("counter = %d after one period, want 1", tm.counter)
	}
	tm.clock(2 * timerPeriod)
	if !tm.request || tm.counter != 2 {
		t.Errorf("after underflow: request=%v counter=%d", tm.request, tm.counter)
	}
}

func TestSpeedSwitch(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{
		0xEA,       // NOP
		0xD4,       // CSH
		0xEA,       // NOP
		0x54,       // CSL
		0x80, 0xFE, // BRA *
	}))
	if c := e.StepInstruction(); c != 2*cpuDividerLow {
		t.Errorf("NOP at low speed = %d master cycles, want %d", c, 2*cpuDividerLow)
	}
	e.StepInstruction()
	if c := e.StepInstruction(); c != 2*cpuDividerHigh {
		t.Errorf("NOP at high speed = %d master cycles, want %d", c, 2*cpuDividerHigh)
	}
	e.StepInstruction()
	if e.cpu.speedHigh {
		t.Error("CSL did not drop to low speed")
	}
}

func TestSETRedirectsALUToZeroPage(t *testing.T) {
	prog := append([]byte{}, mapPrologue...)
	prog = append(prog,
		0xA2, 0x10, // LDX #$10
		0xA9, 0x0F, // LDA #$0F
		0x85, 0x10, // STA $10
		0xA9, 0x55, // LDA #$55
		0xF4,       // SET
		0x09, 0xF0, // ORA #$F0
	)
	e := newTestEmulator(t, testROM(prog, []byte{0x80, 0xFE}))
	stepN(e, 4+6)

	if got := e.mem.wram[0x10]; got != 0xFF {
		t.Errorf("zero page $10 = %02X, want FF", got)
	}
	if e.cpu.a != 0x55 {
		t.Errorf("A = %02X, want 55 untouched", e.cpu.a)
	}
	if e.cpu.p&flagT != 0 {
		t.Error("T flag still set after the following instruction")
	}
}

func TestBlockTransferTII(t *testing.T) {
	prog := append([]byte{}, mapPrologue...)
	prog = append(prog,
		0x73, 0x00, 0xE1, 0x00, 0x22, 0x04, 0x00, // TII $E100,$2200,$0004
		0x80, 0xFE,
	)
	rom := testROM(prog)
	copy(rom[0x100:], []byte{1, 2, 3, 4})
	e := newTestEmulator(t, rom)
	stepN(e, 4)

	cycles := e.StepInstruction()
	for i, want := range []uint8{1, 2, 3, 4} {
		if got := e.mem.wram[0x200+i]; got != want {
			t.Errorf("wram[%X] = %d, want %d", 0x200+i, got, want)
		}
	}
	if want := (17 + 6*4) * cpuDividerLow; cycles != want {
		t.Errorf("TII cost = %d master cycles, want %d", cycles, want)
	}
}

func TestBRKUsesIRQ2Vector(t *testing.T) {
	prog := append([]byte{}, mapPrologue...)
	prog = append(prog, 0x00, 0x00) // BRK
	rom := testROM(prog)
	rom[0x100], rom[0x101] = 0x80, 0xFE
	setVector(rom, vectorIRQ2, 0xE100)
	e := newTestEmulator(t, rom)
	stepN(e, 5)

	if e.cpu.PC() != 0xE100 {
		t.Fatalf("PC = %04X, want E100", e.cpu.PC())
	}
	pushed := e.mem.wram[0x100+int(e.cpu.s)+1]
	if pushed&flagB == 0 {
		t.Error("B flag not set in the pushed status")
	}
}

func TestUnknownOpcodeKeepsRunning(t *testing.T) {
	e := newTestEmulator(t, testROM([]byte{0x33, 0x80, 0xFE}))
	if c := e.StepInstruction(); c != 2*cpuDividerLow {
		t.Errorf("undefined opcode cost = %d, want %d", c, 2*cpuDividerLow)
	}
	if e.cpu.PC() != 0xE001 {
		t.Errorf("PC = %04X, want E001", e.cpu.PC())
	}
}
