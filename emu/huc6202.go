package emu

// Priority modes held in bits 2-3 of each region nibble.
const (
	vpcModeDefault       = 0
	vpcModeSpr2OverBG1   = 1
	vpcModeSpr1BehindBG2 = 2
)

// HuC6202 combines the output of the two SuperGrafx VDCs. The screen is
// split horizontally into four regions by two window registers, each
// region with its own enable bits and priority mode.
type HuC6202 struct {
	vdc [2]*HuC6270

	priority uint16
	window1  uint16
	window2  uint16
	selected uint8
}

// NewHuC6202 creates the priority controller for a VDC pair.
func NewHuC6202(vdc1, vdc2 *HuC6270) *HuC6202 {
	return &HuC6202{vdc: [2]*HuC6270{vdc1, vdc2}}
}

// Reset restores the power-on register state.
func (p *HuC6202) Reset() {
	p.priority = 0x1111
	p.window1 = 0
	p.window2 = 0
	p.selected = 0
}

// IRQ is the OR of both VDC interrupt outputs.
func (p *HuC6202) IRQ() bool {
	return p.vdc[0].IRQ() || p.vdc[1].IRQ()
}

// stTarget returns which VDC receives ST0/ST1/ST2 writes.
func (p *HuC6202) stTarget() int {
	return int(p.selected & 1)
}

// Read handles $0008-$000F.
func (p *HuC6202) Read(off uint16) uint8 {
	switch off & 7 {
	case 0:
		return uint8(p.priority)
	case 1:
		return uint8(p.priority >> 8)
	case 2:
		return uint8(p.window1)
	case 3:
		return uint8(p.window1 >> 8)
	case 4:
		return uint8(p.window2)
	case 5:
		return uint8(p.window2 >> 8)
	case 6:
		return p.selected
	}
	return 0
}

// Write handles $0008-$000F.
func (p *HuC6202) Write(off uint16, v uint8) {
	switch off & 7 {
	case 0:
		p.priority = p.priority&0xFF00 | uint16(v)
	case 1:
		p.priority = p.priority&0x00FF | uint16(v)<<8
	case 2:
		p.window1 = p.window1&0x300 | uint16(v)
	case 3:
		p.window1 = p.window1&0x0FF | uint16(v&3)<<8
	case 4:
		p.window2 = p.window2&0x300 | uint16(v)
	case 5:
		p.window2 = p.window2&0x0FF | uint16(v&3)<<8
	case 6:
		p.selected = v & 1
	}
}

// HSync forwards horizontal sync to both VDCs.
func (p *HuC6202) HSync() {
	p.vdc[0].HSync()
	p.vdc[1].HSync()
}

// VSync forwards vertical sync to both VDCs.
func (p *HuC6202) VSync() {
	p.vdc[0].VSync()
	p.vdc[1].VSync()
}

// Dot clocks both VDCs and mixes their pixels for the current region.
func (p *HuC6202) Dot() uint16 {
	x := p.vdc[0].DisplayX()
	px1 := p.vdc[0].Dot()
	px2 := p.vdc[1].Dot()

	region := 0
	if x+0x40 < int(p.window1) {
		region |= 1
	}
	if x+0x40 < int(p.window2) {
		region |= 2
	}
	nibble := uint8(p.priority>>(4*region)) & 0x0F
	return mixSGX(px1, px2, nibble&1 != 0, nibble&2 != 0, int(nibble>>2)&3)
}

func isTransparent(px uint16) bool { return px&0x0F == 0 }
func isSprite(px uint16) bool      { return px&0x100 != 0 }

// mixSGX picks the visible pixel of the two layers. VDC1 is normally in
// front of VDC2.
func mixSGX(px1, px2 uint16, en1, en2 bool, mode int) uint16 {
	if !en1 {
		px1 = 0
	}
	if !en2 {
		px2 = 0
	}
	if px1 == overscanPixel && px2 == overscanPixel {
		return overscanPixel
	}
	if px1 == overscanPixel {
		px1 = 0
	}
	if px2 == overscanPixel {
		px2 = 0
	}

	switch mode {
	case vpcModeSpr2OverBG1:
		// VDC2 sprites appear over VDC1 background but behind its sprites.
		if isSprite(px2) && !isTransparent(px2) && !isSprite(px1) {
			return px2
		}
	case vpcModeSpr1BehindBG2:
		// VDC1 sprites go behind VDC2 background.
		if isSprite(px1) && !isSprite(px2) && !isTransparent(px2) {
			return px2
		}
	}
	if !isTransparent(px1) {
		return px1
	}
	if !isTransparent(px2) {
		return px2
	}
	return 0
}

func (p *HuC6202) saveState(w *stateWriter) {
	w.u16(p.priority)
	w.u16(p.window1)
	w.u16(p.window2)
	w.u8(p.selected)
}

func (p *HuC6202) loadState(r *stateReader) {
	p.priority = r.u16()
	p.window1 = r.u16()
	p.window2 = r.u16()
	p.selected = r.u8()
}
