package emu

import "testing"

func writeVDCReg(v *HuC6270, reg uint8, val uint16) {
	v.WritePort(0, reg)
	v.WritePort(2, uint8(val))
	v.WritePort(3, uint8(val>>8))
}

func TestVWRAutoIncrement(t *testing.T) {
	for _, tt := range []struct {
		bits uint16
		inc  uint16
	}{{0, 1}, {1, 32}, {2, 64}, {3, 128}} {
		v := NewHuC6270()
		writeVDCReg(v, regCR, tt.bits<<11)
		writeVDCReg(v, regMAWR, 0x0100)
		writeVDCReg(v, regVWR, 0x1234)
		writeVDCReg(v, regVWR, 0x5678)

		if got := v.Register(regMAWR); got != 0x0100+2*tt.inc {
			t.Errorf("inc %d: MAWR = %04X, want %04X", tt.inc, got, 0x0100+2*tt.inc)
		}
		if v.vram[0x0100] != 0x1234 || v.vram[0x0100+tt.inc] != 0x5678 {
			t.Errorf("inc %d: words at %04X/%04X = %04X/%04X", tt.inc,
				0x0100, 0x0100+tt.inc, v.vram[0x0100], v.vram[0x0100+tt.inc])
		}
	}
}

func TestVRAMReadAdvancesMARR(t *testing.T) {
	v := NewHuC6270()
	v.vram[0x200] = 0xBEEF
	v.vram[0x201] = 0xCAFE
	writeVDCReg(v, regMARR, 0x0200)

	v.WritePort(0, regVWR)
	lo, hi := v.ReadPort(2), v.ReadPort(3)
	if got := uint16(hi)<<8 | uint16(lo); got != 0xBEEF {
		t.Errorf("first read = %04X, want BEEF", got)
	}
	lo, hi = v.ReadPort(2), v.ReadPort(3)
	if got := uint16(hi)<<8 | uint16(lo); got != 0xCAFE {
		t.Errorf("second read = %04X, want CAFE", got)
	}
}

func TestVRAMWriteAboveLimitIgnored(t *testing.T) {
	v := NewHuC6270()
	writeVDCReg(v, regMAWR, 0x8000)
	writeVDCReg(v, regVWR, 0xFFFF)
	for i, w := range v.vram {
		if w != 0 {
			t.Fatalf("vram[%04X] = %04X after out of range write", i, w)
		}
	}
}

func TestStatusReadClearsInterrupt(t *testing.T) {
	v := NewHuC6270()
	writeVDCReg(v, regCR, crVBlank)
	v.enterVBlank()
	if !v.IRQ() {
		t.Fatal("vertical blank did not raise the interrupt")
	}
	if s := v.ReadPort(0); s&statusVD == 0 {
		t.Errorf("status = %02X, want VD set", s)
	}
	if v.IRQ() {
		t.Error("interrupt still asserted after status read")
	}
}

func TestVBlankMaskedByCR(t *testing.T) {
	v := NewHuC6270()
	v.enterVBlank()
	if v.IRQ() {
		t.Error("vertical blank raised with the interrupt disabled")
	}
}

func TestVRAMDMA(t *testing.T) {
	v := NewHuC6270()
	for i := 0; i < 4; i++ {
		v.vram[0x1000+i] = uint16(0x100 + i)
	}
	writeVDCReg(v, regDCR, 0x0002) // DV interrupt
	writeVDCReg(v, regSOUR, 0x1000)
	writeVDCReg(v, regDESR, 0x2000)
	writeVDCReg(v, regLENR, 3)
	if !v.busy() {
		t.Fatal("DMA not pending after LENR write")
	}
	v.Clock(1 << 16)
	for i := 0; i < 4; i++ {
		if got := v.vram[0x2000+i]; got != uint16(0x100+i) {
			t.Errorf("vram[%04X] = %04X, want %04X", 0x2000+i, got, 0x100+i)
		}
	}
	if v.busy() {
		t.Error("DMA still busy")
	}
	if v.status&statusDV == 0 {
		t.Error("DMA end not flagged")
	}
}

func TestSATDMAOnVBlank(t *testing.T) {
	v := NewHuC6270()
	v.vram[0x7F00] = 0xAAAA
	v.vram[0x7FFF] = 0x5555
	writeVDCReg(v, regDVSSR, 0x7F00)
	v.enterVBlank()
	if !v.busy() {
		t.Fatal("SAT DMA not running after vertical blank")
	}
	v.Clock(satDMACycles)
	if v.sat[0] != 0xAAAA || v.sat[0xFF] != 0x5555 {
		t.Errorf("SAT = %04X..%04X", v.sat[0], v.sat[0xFF])
	}
	if v.busy() {
		t.Error("SAT DMA still busy")
	}
}
