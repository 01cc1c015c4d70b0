package emu

import "testing"

const (
	testSpriteLine    = 100
	testSpritePattern = 0x100
)

// newRenderVDC returns a VDC with a 512 dot display line ready to render
// raster line testSpriteLine.
func newRenderVDC(cr uint16) *HuC6270 {
	v := NewHuC6270()
	prepareRender(v, cr)
	return v
}

func prepareRender(v *HuC6270, cr uint16) {
	v.regs[regHDR] = 63
	v.regs[regCR] = cr
	v.regs[regMWR] = 0
	v.regs[regBXR] = 0
	v.displayLine = true
	v.firstLine = false
	v.bgY = 0
	v.rasterCounter = testSpriteLine
	v.status = 0
}

// solidSprite fills plane 0 of two pattern cells so every pixel of a 16 or
// 32 wide sprite has color 1.
func solidSprite(v *HuC6270) {
	for r := 0; r < 16; r++ {
		v.vram[testSpritePattern*64+r] = 0xFFFF
		v.vram[(testSpritePattern+1)*64+r] = 0xFFFF
	}
}

func putSprite(v *HuC6270, i, x int, attr uint16) {
	v.sat[i*4] = testSpriteLine
	v.sat[i*4+1] = uint16(x + 32)
	v.sat[i*4+2] = testSpritePattern << 1
	v.sat[i*4+3] = attr
}

func TestSpriteLineLimit(t *testing.T) {
	tests := []struct {
		name         string
		count        int
		wide         bool
		noLimit      bool
		wantOverflow bool
		wantLast     bool
	}{
		{"16 cells", 16, false, false, false, true},
		{"17th dropped", 17, false, false, true, false},
		{"17th kept without limit", 17, false, true, true, true},
		{"wide sprites take two cells", 9, true, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			e.SetNoSpriteLimit(tt.noLimit)
			v := e.vdc[0]
			prepareRender(v, crSprites|crOverflow)
			solidSprite(v)

			w, attr := 16, uint16(0)
			if tt.wide {
				w, attr = 32, 0x100
			}
			for i := 0; i < tt.count; i++ {
				putSprite(v, i, i*w, attr)
			}
			v.renderLine()

			if got := v.status&statusOR != 0; got != tt.wantOverflow {
				t.Errorf("overflow = %v, want %v", got, tt.wantOverflow)
			}
			last := (tt.count - 1) * w
			if got := v.lineBuf[last] != 0; got != tt.wantLast {
				t.Errorf("last sprite drawn = %v, want %v (pixel %03X)", got, tt.wantLast, v.lineBuf[last])
			}
			if v.lineBuf[0] != overscanPixel|1 {
				t.Errorf("first sprite pixel = %03X, want %03X", v.lineBuf[0], overscanPixel|1)
			}
		})
	}
}

func TestSpriteZeroCollision(t *testing.T) {
	tests := []struct {
		name string
		cr   uint16
		xs   []int
		want bool
	}{
		{"sprite 0 alone", crSprites | crCollision, []int{0}, false},
		{"sprite 0 over sprite 1", crSprites | crCollision, []int{0, 8}, true},
		{"sprite 0 apart", crSprites | crCollision, []int{0, 100}, false},
		{"other sprites overlap", crSprites | crCollision, []int{200, 0, 8}, false},
		{"interrupt disabled", crSprites, []int{0, 8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newRenderVDC(tt.cr)
			solidSprite(v)
			for i, x := range tt.xs {
				putSprite(v, i, x, 0)
			}
			v.renderLine()
			if got := v.status&statusCR != 0; got != tt.want {
				t.Errorf("collision = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpritePriority(t *testing.T) {
	const (
		bgPixel     = 2<<4 | 1
		spritePixel = overscanPixel | 3<<4 | 1
	)
	tests := []struct {
		name     string
		bgOpaque bool
		front    bool
		want     uint16
	}{
		{"back sprite over clear background", false, false, spritePixel},
		{"opaque background over back sprite", true, false, bgPixel},
		{"front sprite over opaque background", true, true, spritePixel},
		{"front sprite over clear background", false, true, spritePixel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newRenderVDC(crBackground | crSprites)
			v.vram[0] = 2<<12 | 0x100
			if tt.bgOpaque {
				v.vram[0x1000] = 0x0080
			}
			solidSprite(v)
			attr := uint16(3)
			if tt.front {
				attr |= 0x80
			}
			putSprite(v, 0, 0, attr)

			v.renderLine()
			if v.lineBuf[0] != tt.want {
				t.Errorf("pixel = %03X, want %03X", v.lineBuf[0], tt.want)
			}
		})
	}
}

func TestBackgroundTileDecode(t *testing.T) {
	tests := []struct {
		name     string
		bxr, bgY int
		px       int
		p01, p23 uint16
		want     uint16
	}{
		{"plane 0", 0, 0, 0, 0x0080, 0, 1},
		{"plane 1", 0, 0, 0, 0x8000, 0, 2},
		{"plane 2", 0, 0, 0, 0, 0x0080, 4},
		{"plane 3", 0, 0, 0, 0, 0x8000, 8},
		{"all planes last pixel", 0, 0, 7, 0x0101, 0x0101, 15},
		{"transparent", 0, 0, 3, 0, 0, 0},
		{"scrolled", 3, 10, 2, 0x0004, 0, 1},
		{"next map row", 0, 15, 0, 0x0080, 0x8000, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newRenderVDC(crBackground)
			v.regs[regBXR] = uint16(tt.bxr)
			v.bgY = uint16(tt.bgY)

			const tile = 0x100
			col := (tt.bxr + tt.px) >> 3 & 31
			v.vram[(tt.bgY>>3)*32+col] = 5<<12 | tile
			v.vram[tile<<4+tt.bgY&7] = tt.p01
			v.vram[tile<<4+8+tt.bgY&7] = tt.p23

			v.renderLine()
			want := tt.want
			if want != 0 {
				want |= 5 << 4
			}
			if v.lineBuf[tt.px] != want {
				t.Errorf("pixel %d = %03X, want %03X", tt.px, v.lineBuf[tt.px], want)
			}
		})
	}
}

func TestBackgroundMapWidth(t *testing.T) {
	v := newRenderVDC(crBackground)
	v.regs[regMWR] = 1 << 4 // 64 tiles wide
	v.regs[regBXR] = 40 * 8
	v.vram[40] = 1<<12 | 0x100
	v.vram[0x1000] = 0x0080

	v.renderLine()
	if v.lineBuf[0] != 1<<4|1 {
		t.Errorf("pixel = %03X, want 011", v.lineBuf[0])
	}
}

func TestRasterCompareInterrupt(t *testing.T) {
	tests := []struct {
		name    string
		cr      uint16
		counter int
		vPhase  vPhase
		vCount  int
		rcr     uint16
		want    bool
		wantCnt int
	}{
		{"match on next line", crRaster, 99, phaseVDW, 10, 100, true, 100},
		{"no match", crRaster, 99, phaseVDW, 10, 101, false, 100},
		{"disabled", 0, 99, phaseVDW, 10, 100, false, 100},
		{"first display line", crRaster, 300, phaseVDS, 1, rasterFirstLine, true, rasterFirstLine},
		{"counter wraps", crRaster, 0x3FF, phaseVDW, 10, 0, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewHuC6270()
			v.regs[regCR] = tt.cr
			v.regs[regRCR] = tt.rcr
			v.rasterCounter = tt.counter
			v.vPhase = tt.vPhase
			v.vCount = tt.vCount

			v.advanceRaster()
			if v.rasterCounter != tt.wantCnt {
				t.Errorf("raster counter = %d, want %d", v.rasterCounter, tt.wantCnt)
			}
			if got := v.status&statusRR != 0; got != tt.want {
				t.Errorf("raster flag = %v, want %v", got, tt.want)
			}
			if v.IRQ() != tt.want {
				t.Errorf("IRQ = %v, want %v", v.IRQ(), tt.want)
			}
		})
	}
}
