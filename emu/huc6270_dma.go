package emu

// runVRAMDMA moves words from SOUR to DESR while the display is blanked.
// SOUR, DESR and LENR are updated as the transfer progresses so a save
// state taken mid transfer resumes exactly.
func (v *HuC6270) runVRAMDMA(cycles int) {
	v.vramDMAAcc += cycles
	dcr := v.regs[regDCR]
	for v.vramDMAAcc >= vramDMAWordDelay && v.vramDMAPending {
		v.vramDMAAcc -= vramDMAWordDelay

		src := v.regs[regSOUR]
		dst := v.regs[regDESR]
		if src < vramWords {
			v.writeVRAM(dst, v.vram[src])
		} else {
			v.writeVRAM(dst, 0)
		}

		if dcr&0x04 != 0 {
			v.regs[regSOUR]--
		} else {
			v.regs[regSOUR]++
		}
		if dcr&0x08 != 0 {
			v.regs[regDESR]--
		} else {
			v.regs[regDESR]++
		}

		if v.regs[regLENR] == 0 {
			v.vramDMAPending = false
			v.vramDMAAcc = 0
			if dcr&0x02 != 0 {
				v.status |= statusDV
			}
			return
		}
		v.regs[regLENR]--
	}
}

// completeSATDMA copies 256 words from VRAM at DVSSR into the SAT.
func (v *HuC6270) completeSATDMA() {
	base := v.regs[regDVSSR]
	for i := range v.sat {
		v.sat[i] = v.vram[(base+uint16(i))&(vramWords-1)]
	}
	if v.regs[regDCR]&0x01 != 0 {
		v.status |= statusDS
	}
}
