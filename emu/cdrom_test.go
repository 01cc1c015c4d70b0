package emu

import (
	"bytes"
	"testing"
)

func TestADPCMRAMPorts(t *testing.T) {
	cd := NewCDROM(newLogOnce())

	cd.Write(0x08, 0x10)
	cd.Write(0x09, 0x00)
	cd.Write(0x0D, 0x02) // load write address
	cd.Write(0x0A, 0xAB)
	cd.Write(0x0A, 0xCD)

	cd.Write(0x0D, 0x08) // load read address
	cd.Read(0x0A)        // primes the latch
	if v := cd.Read(0x0A); v != 0xAB {
		t.Errorf("first byte = %02X, want AB", v)
	}
	if v := cd.Read(0x0A); v != 0xCD {
		t.Errorf("second byte = %02X, want CD", v)
	}
	if cd.Read(0x0C) != 0x01 {
		t.Errorf("status = %02X while stopped", cd.Read(0x0C))
	}
}

func TestADPCMPlaysToEnd(t *testing.T) {
	cd := NewCDROM(newLogOnce())
	cd.adpcm.ram[0], cd.adpcm.ram[1] = 0x77, 0x77

	cd.Write(0x02, cdIRQEnd)
	cd.Write(0x0E, 0x0F) // 32 kHz
	cd.Write(0x08, 0x01)
	cd.Write(0x09, 0x00)
	cd.Write(0x0D, 0x10) // length 1
	cd.Write(0x08, 0x00)
	cd.Write(0x0D, 0x18) // read address 0
	cd.Write(0x0D, 0x78) // play, stop at end

	if cd.Read(0x0C) != 0x08 {
		t.Fatalf("status = %02X, want playing", cd.Read(0x0C))
	}
	cd.Clock(MasterClockHz / 1000)

	if cd.adpcm.playing {
		t.Fatal("still playing past the end")
	}
	if !cd.IRQ() {
		t.Error("end of sample did not raise IRQ2")
	}
	if cd.adpcm.signal <= 0 {
		t.Errorf("signal = %d after positive nibbles", cd.adpcm.signal)
	}
}

func TestADPCMResetBit(t *testing.T) {
	cd := NewCDROM(newLogOnce())
	cd.Write(0x08, 0x34)
	cd.Write(0x09, 0x12)
	cd.Write(0x0D, 0x12)
	cd.Write(0x0D, 0x80)
	if cd.adpcm.writeAddr != 0 || cd.adpcm.length != 0 {
		t.Errorf("reset left write %04X length %04X", cd.adpcm.writeAddr, cd.adpcm.length)
	}
}

func TestFader(t *testing.T) {
	tests := []struct {
		name    string
		fader   uint8
		elapsed int
		cd, pcm int32
	}{
		{"off", 0x00, 0, fadeFull, fadeFull},
		{"cd half", 0x08, fadeLongCycles / 2, fadeFull / 2, fadeFull},
		{"cd done", 0x08, fadeLongCycles, 0, fadeFull},
		{"adpcm short done", 0x0E, fadeShortCycles, fadeFull, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := NewCDROM(newLogOnce())
			cd.Write(0x0F, tt.fader)
			cd.fadeElapsed = tt.elapsed
			gotCD, gotPCM := cd.fadeVolumes()
			if gotCD != tt.cd || gotPCM != tt.pcm {
				t.Errorf("volumes = %d/%d, want %d/%d", gotCD, gotPCM, tt.cd, tt.pcm)
			}
		})
	}
}

func TestFaderSilencesCDAudio(t *testing.T) {
	cd := NewCDROM(newLogOnce())
	cd.audio.left, cd.audio.right = 12000, -12000
	cd.Write(0x0F, 0x0C)
	cd.Clock(fadeShortCycles + 1000)
	cd.resetBuffer()
	cd.Clock(1000)
	for i, s := range cd.GetBuffer() {
		if s != 0 {
			t.Fatalf("sample %d = %d after fade out", i, s)
		}
	}
}

func TestSuperCDSignature(t *testing.T) {
	cd := NewCDROM(newLogOnce())
	if cd.Read(0xC1) != 0xFF {
		t.Error("signature present without a Super System Card")
	}
	cd.Insert(nil, true)
	sig := []byte{cd.Read(0xC1), cd.Read(0xC2), cd.Read(0xC3)}
	if !bytes.Equal(sig, []byte{0xAA, 0x55, 0x03}) {
		t.Errorf("signature = % X", sig)
	}
}

func newArcadeCard() *ArcadeCard {
	a := &ArcadeCard{}
	a.attach()
	return a
}

func TestArcadePortAutoIncrement(t *testing.T) {
	a := newArcadeCard()
	a.Write(0x12, 0x00)
	a.Write(0x13, 0x01) // port 1 base $000100
	a.Write(0x17, 0x01)
	a.Write(0x19, arcadeAutoInc|arcadeIncBase)

	a.Write(0x10, 0x11)
	a.Write(0x10, 0x22)
	if a.ram[0x100] != 0x11 || a.ram[0x101] != 0x22 {
		t.Fatalf("ram = % X", a.ram[0x100:0x102])
	}
	if a.Read(0x12) != 0x02 {
		t.Errorf("base low = %02X, want 02", a.Read(0x12))
	}

	a.Write(0x12, 0x00)
	if a.Read(0x10) != 0x11 || a.Read(0x10) != 0x22 {
		t.Error("read back through the port differs")
	}
}

func TestArcadeOffsetTriggers(t *testing.T) {
	a := newArcadeCard()
	a.Write(0x09, triggerLowByte)
	a.Write(0x05, 0x40)
	if a.Read(0x02) != 0x40 {
		t.Errorf("low byte trigger: base = %02X", a.Read(0x02))
	}

	a.Write(0x29, arcadeAddOffset|arcadeSigned)
	a.Write(0x22, 0x10)
	a.Write(0x25, 0xFF)
	a.Write(0x26, 0xFF) // -1
	a.ram[0x0F] = 0x5A
	if v := a.peekData(2); v != 0x5A {
		t.Errorf("signed offset read %02X, want 5A", v)
	}
}

func TestArcadeShiftRegister(t *testing.T) {
	a := newArcadeCard()
	a.Write(0xE0, 0x01)
	a.Write(0xE4, 0x04)
	if a.Read(0xE0) != 0x10 {
		t.Errorf("left shift = %02X, want 10", a.Read(0xE0))
	}
	a.Write(0xE4, 0x0F) // right by 1
	if a.Read(0xE0) != 0x08 {
		t.Errorf("right shift = %02X, want 08", a.Read(0xE0))
	}
	if a.Read(0xFE) != 0x10 || a.Read(0xFF) != 0x51 {
		t.Error("card id bytes wrong")
	}
}

func TestResetFiller(t *testing.T) {
	buf := make([]byte, 64)
	newResetFiller(1).fill(buf, ResetOnes)
	if !bytes.Equal(buf, bytes.Repeat([]byte{0xFF}, 64)) {
		t.Errorf("ones fill = % X", buf[:8])
	}

	a, b := make([]byte, 64), make([]byte, 64)
	newResetFiller(0xDEADBEEF).fill(a, ResetRandom)
	newResetFiller(0xDEADBEEF).fill(b, ResetRandom)
	if !bytes.Equal(a, b) {
		t.Error("random fill differs for the same seed")
	}

	for in, want := range map[string]ResetValue{"zero": ResetZero, "ones": ResetOnes, "random": ResetRandom, "": ResetRandom} {
		if got := ParseResetValue(in); got != want {
			t.Errorf("ParseResetValue(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSetResetValues(t *testing.T) {
	e := New()
	rv := DefaultResetValues()
	rv.WRAM = ResetOnes
	e.SetResetValues(rv)
	e.Reset()
	for i, v := range e.mem.wram[:wramSizePCE] {
		if v != 0xFF {
			t.Fatalf("wram[%04X] = %02X after ones reset", i, v)
		}
	}
}

func TestGameDatabase(t *testing.T) {
	g, ok := lookupGame(0x8C4588E2)
	if !ok || g.flags&gameSGX == 0 {
		t.Errorf("1941 entry = %+v, %v", g, ok)
	}
	if _, ok := lookupGame(0); ok {
		t.Error("found an entry for CRC 0")
	}
	b, ok := lookupBios(0x6D9A73EF)
	if !ok || b.version != 3 {
		t.Errorf("System Card 3.0 entry = %+v, %v", b, ok)
	}
}
