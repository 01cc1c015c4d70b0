package emu

import "testing"

// flatSource emits the same color index on every dot.
type flatSource struct {
	px     uint16
	hsyncs int
	vsyncs int
}

func (s *flatSource) HSync()      { s.hsyncs++ }
func (s *flatSource) VSync()      { s.vsyncs++ }
func (s *flatSource) Dot() uint16 { return s.px }

func newTestVCE(src pixelSource) *HuC6260 {
	v := NewHuC6260(src)
	v.Reset(newResetFiller(0), zeroResetValues)
	return v
}

func TestVCEColorTableAutoIncrement(t *testing.T) {
	v := newTestVCE(&flatSource{})
	v.Write(2, 0xFF)
	v.Write(3, 0x01) // CTA = $1FF
	v.Write(4, 0x38)
	v.Write(5, 0x01)
	v.Write(4, 0x07)
	v.Write(5, 0x00)

	if got := v.Color(0x1FF); got != 0x138 {
		t.Errorf("color $1FF = %03X, want 138", got)
	}
	if got := v.Color(0); got != 0x007 {
		t.Errorf("CTA did not wrap: color 0 = %03X, want 007", got)
	}

	v.Write(2, 0xFF)
	v.Write(3, 0x01)
	if lo, hi := v.Read(4), v.Read(5); lo != 0x38 || hi != 0xFF {
		t.Errorf("read back %02X %02X, want 38 FF", lo, hi)
	}
	if v.cta != 0 {
		t.Errorf("CTA = %03X after high byte read, want 000", v.cta)
	}
}

func TestVCEDotClockSelectsWidth(t *testing.T) {
	for _, tt := range []struct {
		cr    uint8
		width int
	}{{0, 256}, {1, 352}, {2, 512}, {3, 512}} {
		src := &flatSource{}
		v := newTestVCE(src)
		v.Write(0, tt.cr)
		for !v.takeFrameReady() {
			v.Clock(CyclesPerLine)
		}
		// The first frame was latched before the write.
		for !v.takeFrameReady() {
			v.Clock(CyclesPerLine)
		}
		if w, h := v.FrameSize(); w != tt.width || h != DefaultScanlineEnd-DefaultScanlineStart+1 {
			t.Errorf("CR %d: frame = %dx%d, want %dx%d", tt.cr, w, h,
				tt.width, DefaultScanlineEnd-DefaultScanlineStart+1)
		}
	}
}

func TestVCEFrameCadence(t *testing.T) {
	src := &flatSource{}
	v := newTestVCE(src)
	frames := 0
	for i := 0; i < 3*LinesPerFrame; i++ {
		v.Clock(CyclesPerLine)
		if v.takeFrameReady() {
			frames++
		}
	}
	if frames != 3 {
		t.Errorf("frames = %d, want 3", frames)
	}
	// The dot clock carries a fraction of a dot across lines.
	if d := 3*LinesPerFrame - src.hsyncs; d < 0 || d > 1 {
		t.Errorf("hsyncs = %d, want about %d", src.hsyncs, 3*LinesPerFrame)
	}
	if src.vsyncs != 2 && src.vsyncs != 3 {
		t.Errorf("vsyncs = %d", src.vsyncs)
	}
}

func TestVCEGrayscale(t *testing.T) {
	src := &flatSource{px: 1}
	v := newTestVCE(src)
	v.Write(2, 0x01)
	v.Write(3, 0x00)
	v.Write(4, 0x38) // full red
	v.Write(5, 0x00)
	v.Write(0, 0x80)

	for !v.takeFrameReady() {
		v.Clock(CyclesPerLine)
	}
	for !v.takeFrameReady() {
		v.Clock(CyclesPerLine)
	}
	fb := v.Framebuffer()
	w, h := v.FrameSize()
	p := (h/2*w + w/2) * 4
	if fb[p] != fb[p+1] || fb[p+1] != fb[p+2] || fb[p] == 0 {
		t.Errorf("pixel = %v, want a non-black gray", fb[p:p+4])
	}
}

func TestVCEScanlineWindowClamp(t *testing.T) {
	v := newTestVCE(&flatSource{})
	v.SetScanlineWindow(-5, 400)
	if v.scanStart != 0 || v.scanEnd != visibleLines-1 {
		t.Errorf("window = %d-%d", v.scanStart, v.scanEnd)
	}
	v.SetScanlineWindow(100, 50)
	if v.scanStart != 100 || v.scanEnd != 100 {
		t.Errorf("inverted window = %d-%d, want 100-100", v.scanStart, v.scanEnd)
	}
}

func TestOverscanGeometry(t *testing.T) {
	v := newTestVCE(&flatSource{})
	v.SetOverscan(2)
	v.latchFrameGeometry()
	if v.width != 256+2*overscanDots || v.height != visibleLines {
		t.Errorf("overscan 2 geometry = %dx%d", v.width, v.height)
	}
	v.SetOverscan(1)
	v.latchFrameGeometry()
	if v.width != 256 || v.height != visibleLines {
		t.Errorf("overscan 1 geometry = %dx%d", v.width, v.height)
	}
}

// --- HuC6202 ---

func TestMixSGX(t *testing.T) {
	const (
		bg1  = 0x011
		bg2  = 0x022
		spr1 = 0x133
		spr2 = 0x144
	)
	tests := []struct {
		name     string
		px1, px2 uint16
		en1, en2 bool
		mode     int
		want     uint16
	}{
		{"vdc1 in front", bg1, bg2, true, true, vpcModeDefault, bg1},
		{"transparent vdc1", 0x010, bg2, true, true, vpcModeDefault, bg2},
		{"vdc1 disabled", bg1, bg2, false, true, vpcModeDefault, bg2},
		{"both disabled", bg1, bg2, false, false, vpcModeDefault, 0},
		{"spr2 over bg1", bg1, spr2, true, true, vpcModeSpr2OverBG1, spr2},
		{"spr2 under spr1", spr1, spr2, true, true, vpcModeSpr2OverBG1, spr1},
		{"spr1 behind bg2", spr1, bg2, true, true, vpcModeSpr1BehindBG2, bg2},
		{"overscan", overscanPixel, overscanPixel, true, true, vpcModeDefault, overscanPixel},
	}
	for _, tt := range tests {
		if got := mixSGX(tt.px1, tt.px2, tt.en1, tt.en2, tt.mode); got != tt.want {
			t.Errorf("%s: got %03X, want %03X", tt.name, got, tt.want)
		}
	}
}

func TestVPCRegisters(t *testing.T) {
	p := NewHuC6202(NewHuC6270(), NewHuC6270())
	p.Reset()
	p.Write(2, 0xFF)
	p.Write(3, 0xFF)
	if p.window1 != 0x3FF {
		t.Errorf("window1 = %03X, want 3FF", p.window1)
	}
	p.Write(6, 0x03)
	if p.stTarget() != 1 || p.Read(6) != 1 {
		t.Errorf("selected = %d", p.Read(6))
	}
	if p.Read(0) != 0x11 || p.Read(1) != 0x11 {
		t.Errorf("priority after reset = %02X%02X, want 1111", p.Read(1), p.Read(0))
	}
}

func TestVPCIRQIsEitherVDC(t *testing.T) {
	v1, v2 := NewHuC6270(), NewHuC6270()
	p := NewHuC6202(v1, v2)
	writeVDCReg(v2, regCR, crVBlank)
	v2.enterVBlank()
	if !p.IRQ() {
		t.Error("VDC2 interrupt not visible through the VPC")
	}
}

func TestVCEStateKeepsBlurLatch(t *testing.T) {
	v := newTestVCE(&flatSource{})
	v.Write(0, 0x04)
	v.prev = [3]uint8{0x20, 0x40, 0x60}
	var w stateWriter
	v.saveState(&w)

	other := newTestVCE(&flatSource{})
	r := stateReader{data: w.buf.Bytes()}
	other.loadState(&r)
	if r.err != nil {
		t.Fatalf("loadState: %v", r.err)
	}
	if other.prev != v.prev {
		t.Errorf("blur latch = %v, want %v", other.prev, v.prev)
	}
	if r.pos != len(r.data) {
		t.Errorf("read %d of %d bytes", r.pos, len(r.data))
	}
}
