package emu

// Background map sizes in tiles, indexed by MWR bits 4-5.
var bgMapWidths = [4]int{32, 64, 128, 128}

// renderLine builds the pixels of the current display line. It runs at
// the start of HDW.
func (v *HuC6270) renderLine() {
	width := v.hdwDots()
	if width > len(v.lineBuf) {
		width = len(v.lineBuf)
	}
	v.lineWidth = width
	if !v.displayLine {
		return
	}
	if v.firstLine {
		v.bgY = v.regs[regBYR]
		v.firstLine = false
	}

	buf := v.lineBuf[:width]
	cr := v.regs[regCR]
	if cr&(crBackground|crSprites) == 0 {
		for i := range buf {
			buf[i] = overscanPixel
		}
		return
	}

	if cr&crBackground != 0 {
		v.renderBackground(buf)
	} else {
		clear(buf)
	}

	if cr&crSprites != 0 {
		v.renderSprites(width)
		for x := range buf {
			s := v.sprBuf[x]
			if s == 0 {
				continue
			}
			if v.sprFront[x] || buf[x]&0x0F == 0 {
				buf[x] = s
			}
		}
	}
}

// renderBackground fills buf with background color indexes. Transparent
// pixels are left as 0 so the VCE shows the backdrop color.
func (v *HuC6270) renderBackground(buf []uint16) {
	mwr := v.regs[regMWR]
	mapW := bgMapWidths[(mwr>>4)&3]
	mapH := 32
	if mwr&0x40 != 0 {
		mapH = 64
	}

	y := int(v.bgY) & (mapH*8 - 1)
	row := y >> 3
	fineY := uint16(y & 7)
	x := int(v.regs[regBXR] & 0x3FF)

	var p01, p23, pal uint16
	tileCol := -1
	for px := range buf {
		sx := (x + px) & (mapW*8 - 1)
		if col := sx >> 3; col != tileCol {
			tileCol = col
			bat := v.vram[(row*mapW+col)&(vramWords-1)]
			pal = bat >> 12
			addr := ((bat&0x0FFF)<<4 + fineY) & (vramWords - 1)
			p01 = v.vram[addr]
			p23 = v.vram[(addr+8)&(vramWords-1)]
		}
		bit := uint(7 - sx&7)
		c := (p01>>bit)&1 | (p01>>(bit+8))&1<<1 | (p23>>bit)&1<<2 | (p23>>(bit+8))&1<<3
		if c == 0 {
			buf[px] = 0
		} else {
			buf[px] = pal<<4 | c
		}
	}
}

// renderSprites evaluates the SAT for the current raster line and draws
// the selected sprites into sprBuf. Lower SAT indexes end up on top.
func (v *HuC6270) renderSprites(width int) {
	clear(v.sprBuf[:width])
	clear(v.sprFront[:width])

	line := v.rasterCounter
	cells := 0
	v.spriteSel = v.spriteSel[:0]
	for i := 0; i < 64; i++ {
		e := v.sat[i*4 : i*4+4]
		y := int(e[0] & 0x3FF)
		h := spriteHeight(e[3])
		if line < y || line >= y+h {
			continue
		}
		n := 1
		if e[3]&0x100 != 0 {
			n = 2
		}
		if cells+n > 16 {
			v.raise(statusOR, crOverflow)
			if v.spriteLimit {
				break
			}
		}
		cells += n
		v.spriteSel = append(v.spriteSel, i)
	}

	for k := len(v.spriteSel) - 1; k >= 0; k-- {
		v.drawSprite(v.spriteSel[k], line, width)
	}
}

func spriteHeight(attr uint16) int {
	switch (attr >> 12) & 3 {
	case 0:
		return 16
	case 1:
		return 32
	}
	return 64
}

func (v *HuC6270) drawSprite(idx, line, width int) {
	e := v.sat[idx*4 : idx*4+4]
	y := int(e[0] & 0x3FF)
	x := int(e[1]&0x3FF) - 32
	pattern := int(e[2]>>1) & 0x3FF
	attr := e[3]

	w := 16
	if attr&0x100 != 0 {
		w = 32
		pattern &^= 1
	}
	h := spriteHeight(attr)
	switch h {
	case 32:
		pattern &^= 2
	case 64:
		pattern &^= 6
	}

	row := line - y
	if attr&0x8000 != 0 {
		row = h - 1 - row
	}
	hflip := attr&0x0800 != 0
	color := overscanPixel | (attr&0x0F)<<4
	front := attr&0x80 != 0

	for px := 0; px < w; px++ {
		sx := x + px
		if sx < 0 || sx >= width {
			continue
		}
		col := px
		if hflip {
			col = w - 1 - px
		}
		base := ((pattern+col>>4+(row>>4)*2)*64 + row&15) & (vramWords - 1)
		bit := uint(15 - col&15)
		c := v.vram[base]>>bit&1 |
			v.vram[(base+16)&(vramWords-1)]>>bit&1<<1 |
			v.vram[(base+32)&(vramWords-1)]>>bit&1<<2 |
			v.vram[(base+48)&(vramWords-1)]>>bit&1<<3
		if c == 0 {
			continue
		}
		if idx == 0 && v.sprBuf[sx] != 0 {
			v.raise(statusCR, crCollision)
		}
		v.sprBuf[sx] = color | c
		v.sprFront[sx] = front
	}
}
