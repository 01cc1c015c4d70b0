package emu

type aluOp uint8

const (
	aluOr aluOp = iota
	aluAnd
	aluEor
	aluAdc
)

// execute runs one decoded opcode and returns its cost in CPU cycles.
func (c *HuC6280) execute(op uint8) int {
	info := &opTable[op]
	cycles := int(info.cycles)

	switch op {
	// Accumulator arithmetic. These honour the T flag.
	case 0x01, 0x05, 0x09, 0x0D, 0x11, 0x12, 0x15, 0x19, 0x1D:
		cycles += c.alu(aluOr, c.operandValue(info.mode))
	case 0x21, 0x25, 0x29, 0x2D, 0x31, 0x32, 0x35, 0x39, 0x3D:
		cycles += c.alu(aluAnd, c.operandValue(info.mode))
	case 0x41, 0x45, 0x49, 0x4D, 0x51, 0x52, 0x55, 0x59, 0x5D:
		cycles += c.alu(aluEor, c.operandValue(info.mode))
	case 0x61, 0x65, 0x69, 0x6D, 0x71, 0x72, 0x75, 0x79, 0x7D:
		cycles += c.alu(aluAdc, c.operandValue(info.mode))
		if c.p&flagD != 0 {
			cycles++
		}
	case 0xE1, 0xE5, 0xE9, 0xED, 0xF1, 0xF2, 0xF5, 0xF9, 0xFD:
		c.a = c.sbc(c.a, c.operandValue(info.mode))
		if c.p&flagD != 0 {
			cycles++
		}

	// Compare
	case 0xC1, 0xC5, 0xC9, 0xCD, 0xD1, 0xD2, 0xD5, 0xD9, 0xDD:
		c.compare(c.a, c.operandValue(info.mode))
	case 0xE0, 0xE4, 0xEC:
		c.compare(c.x, c.operandValue(info.mode))
	case 0xC0, 0xC4, 0xCC:
		c.compare(c.y, c.operandValue(info.mode))

	// Loads
	case 0xA1, 0xA5, 0xA9, 0xAD, 0xB1, 0xB2, 0xB5, 0xB9, 0xBD:
		c.a = c.operandValue(info.mode)
		c.setNZ(c.a)
	case 0xA2, 0xA6, 0xAE, 0xB6, 0xBE:
		c.x = c.operandValue(info.mode)
		c.setNZ(c.x)
	case 0xA0, 0xA4, 0xAC, 0xB4, 0xBC:
		c.y = c.operandValue(info.mode)
		c.setNZ(c.y)

	// Stores
	case 0x81, 0x85, 0x8D, 0x91, 0x92, 0x95, 0x99, 0x9D:
		c.write(c.operandAddr(info.mode), c.a)
	case 0x86, 0x8E, 0x96:
		c.write(c.operandAddr(info.mode), c.x)
	case 0x84, 0x8C, 0x94:
		c.write(c.operandAddr(info.mode), c.y)
	case 0x64, 0x74, 0x9C, 0x9E:
		c.write(c.operandAddr(info.mode), 0)

	// BIT and TST
	case 0x24, 0x2C, 0x34, 0x3C, 0x89:
		v := c.operandValue(info.mode)
		c.p &^= flagN | flagV | flagZ
		c.p |= v & (flagN | flagV)
		if c.a&v == 0 {
			c.p |= flagZ
		}
	case 0x83, 0x93, 0xA3, 0xB3:
		c.tst(info.mode)

	// Shifts and rotates
	case 0x0A:
		c.a = c.asl(c.a)
	case 0x06, 0x0E, 0x16, 0x1E:
		addr := c.operandAddr(info.mode)
		c.write(addr, c.asl(c.read(addr)))
	case 0x2A:
		c.a = c.rol(c.a)
	case 0x26, 0x2E, 0x36, 0x3E:
		addr := c.operandAddr(info.mode)
		c.write(addr, c.rol(c.read(addr)))
	case 0x4A:
		c.a = c.lsr(c.a)
	case 0x46, 0x4E, 0x56, 0x5E:
		addr := c.operandAddr(info.mode)
		c.write(addr, c.lsr(c.read(addr)))
	case 0x6A:
		c.a = c.ror(c.a)
	case 0x66, 0x6E, 0x76, 0x7E:
		addr := c.operandAddr(info.mode)
		c.write(addr, c.ror(c.read(addr)))

	// Increment and decrement
	case 0x1A:
		c.a++
		c.setNZ(c.a)
	case 0x3A:
		c.a--
		c.setNZ(c.a)
	case 0xE6, 0xEE, 0xF6, 0xFE:
		addr := c.operandAddr(info.mode)
		v := c.read(addr) + 1
		c.write(addr, v)
		c.setNZ(v)
	case 0xC6, 0xCE, 0xD6, 0xDE:
		addr := c.operandAddr(info.mode)
		v := c.read(addr) - 1
		c.write(addr, v)
		c.setNZ(v)
	case 0xE8:
		c.x++
		c.setNZ(c.x)
	case 0xCA:
		c.x--
		c.setNZ(c.x)
	case 0xC8:
		c.y++
		c.setNZ(c.y)
	case 0x88:
		c.y--
		c.setNZ(c.y)

	// Test and set/reset bits
	case 0x04, 0x0C:
		addr := c.operandAddr(info.mode)
		v := c.read(addr)
		c.bitTest(v)
		c.write(addr, v|c.a)
	case 0x14, 0x1C:
		addr := c.operandAddr(info.mode)
		v := c.read(addr)
		c.bitTest(v)
		c.write(addr, v&^c.a)
	case 0x07, 0x17, 0x27, 0x37, 0x47, 0x57, 0x67, 0x77:
		addr := c.addrZp()
		c.write(addr, c.read(addr)&^(1<<(op>>4)))
	case 0x87, 0x97, 0xA7, 0xB7, 0xC7, 0xD7, 0xE7, 0xF7:
		addr := c.addrZp()
		c.write(addr, c.read(addr)|1<<((op>>4)&7))
	case 0x0F, 0x1F, 0x2F, 0x3F, 0x4F, 0x5F, 0x6F, 0x7F:
		v := c.read(c.addrZp())
		cycles += c.branch(v&(1<<(op>>4)) == 0)
	case 0x8F, 0x9F, 0xAF, 0xBF, 0xCF, 0xDF, 0xEF, 0xFF:
		v := c.read(c.addrZp())
		cycles += c.branch(v&(1<<((op>>4)&7)) != 0)

	// Branches
	case 0x10:
		cycles += c.branch(c.p&flagN == 0)
	case 0x30:
		cycles += c.branch(c.p&flagN != 0)
	case 0x50:
		cycles += c.branch(c.p&flagV == 0)
	case 0x70:
		cycles += c.branch(c.p&flagV != 0)
	case 0x90:
		cycles += c.branch(c.p&flagC == 0)
	case 0xB0:
		cycles += c.branch(c.p&flagC != 0)
	case 0xD0:
		cycles += c.branch(c.p&flagZ == 0)
	case 0xF0:
		cycles += c.branch(c.p&flagZ != 0)
	case 0x80:
		cycles += c.branch(true)

	// Jumps and subroutines
	case 0x4C:
		c.pc = c.fetch16()
	case 0x6C:
		c.pc = c.read16(c.fetch16())
	case 0x7C:
		c.pc = c.read16(c.fetch16() + uint16(c.x))
	case 0x20:
		target := c.fetch16()
		ret := c.pc - 1
		c.push(uint8(ret >> 8))
		c.push(uint8(ret))
		c.pc = target
	case 0x44:
		off := int8(c.fetch())
		ret := c.pc - 1
		c.push(uint8(ret >> 8))
		c.push(uint8(ret))
		c.pc = uint16(int32(c.pc) + int32(off))
	case 0x60:
		lo := c.pull()
		hi := c.pull()
		c.pc = (uint16(lo) | uint16(hi)<<8) + 1
	case 0x40:
		c.p = c.pull()
		lo := c.pull()
		hi := c.pull()
		c.pc = uint16(lo) | uint16(hi)<<8
	case 0x00:
		c.pc++
		c.serviceInterrupt(vectorIRQ2, true)

	// Stack
	case 0x48:
		c.push(c.a)
	case 0xDA:
		c.push(c.x)
	case 0x5A:
		c.push(c.y)
	case 0x08:
		c.push(c.p | flagB)
	case 0x68:
		c.a = c.pull()
		c.setNZ(c.a)
	case 0xFA:
		c.x = c.pull()
		c.setNZ(c.x)
	case 0x7A:
		c.y = c.pull()
		c.setNZ(c.y)
	case 0x28:
		c.p = c.pull()

	// Transfers and swaps
	case 0xAA:
		c.x = c.a
		c.setNZ(c.x)
	case 0x8A:
		c.a = c.x
		c.setNZ(c.a)
	case 0xA8:
		c.y = c.a
		c.setNZ(c.y)
	case 0x98:
		c.a = c.y
		c.setNZ(c.a)
	case 0xBA:
		c.x = c.s
		c.setNZ(c.x)
	case 0x9A:
		c.s = c.x
	case 0x02:
		c.x, c.y = c.y, c.x
	case 0x22:
		c.a, c.x = c.x, c.a
	case 0x42:
		c.a, c.y = c.y, c.a
	case 0x62:
		c.a = 0
	case 0x82:
		c.x = 0
	case 0xC2:
		c.y = 0

	// Flags
	case 0x18:
		c.p &^= flagC
	case 0x38:
		c.p |= flagC
	case 0x58:
		c.p &^= flagI
	case 0x78:
		c.p |= flagI
	case 0xB8:
		c.p &^= flagV
	case 0xD8:
		c.p &^= flagD
	case 0xF8:
		c.p |= flagD
	case 0xF4:
		c.p |= flagT

	// HuC6280 extensions
	case 0x03:
		c.mem.writeVDCDirect(0, c.fetch())
	case 0x13:
		c.mem.writeVDCDirect(2, c.fetch())
	case 0x23:
		c.mem.writeVDCDirect(3, c.fetch())
	case 0x53:
		mask := c.fetch()
		for i := 0; i < 8; i++ {
			if mask&(1<<i) != 0 {
				c.mem.mpr[i] = c.a
			}
		}
	case 0x43:
		mask := c.fetch()
		for i := 0; i < 8; i++ {
			if mask&(1<<i) != 0 {
				c.a = c.mem.mpr[i]
				break
			}
		}
	case 0x54:
		c.speedHigh = false
	case 0xD4:
		c.speedHigh = true
	case 0x73, 0xC3, 0xD3, 0xE3, 0xF3:
		cycles += c.blockTransfer(op)

	case 0xEA:
	default:
		c.logs.printf(logUnknownOpcode, "opcode $%02X at $%04X", op, c.pc-1)
		cycles = 2
	}
	return cycles
}

// alu applies op to the accumulator, or to the zero page byte at X when the
// previous instruction was SET. Returns the extra cycles spent.
func (c *HuC6280) alu(op aluOp, v uint8) int {
	if c.tActive {
		addr := zeroPage | uint16(c.x)
		c.write(addr, c.aluApply(op, c.read(addr), v))
		return 3
	}
	c.a = c.aluApply(op, c.a, v)
	return 0
}

func (c *HuC6280) aluApply(op aluOp, acc, v uint8) uint8 {
	var r uint8
	switch op {
	case aluOr:
		r = acc | v
	case aluAnd:
		r = acc & v
	case aluEor:
		r = acc ^ v
	case aluAdc:
		return c.adc(acc, v)
	}
	c.setNZ(r)
	return r
}

func (c *HuC6280) adc(acc, v uint8) uint8 {
	carry := int(c.p & flagC)
	if c.p&flagD != 0 {
		lo := int(acc&0x0F) + int(v&0x0F) + carry
		hi := int(acc>>4) + int(v>>4)
		if lo > 9 {
			lo += 6
		}
		if lo > 0x0F {
			hi++
		}
		if hi > 9 {
			hi += 6
		}
		r := uint8(hi<<4) | uint8(lo&0x0F)
		c.setFlag(flagC, hi > 0x0F)
		c.setNZ(r)
		return r
	}
	sum := int(acc) + int(v) + carry
	r := uint8(sum)
	c.setFlag(flagC, sum > 0xFF)
	c.setFlag(flagV, (^(acc^v))&(acc^r)&0x80 != 0)
	c.setNZ(r)
	return r
}

func (c *HuC6280) sbc(acc, v uint8) uint8 {
	if c.p&flagD != 0 {
		borrow := 1 - int(c.p&flagC)
		lo := int(acc&0x0F) - int(v&0x0F) - borrow
		hi := int(acc>>4) - int(v>>4)
		if lo < 0 {
			lo -= 6
			hi--
		}
		if hi < 0 {
			hi -= 6
		}
		r := uint8(hi<<4) | uint8(lo&0x0F)
		c.setFlag(flagC, int(acc)-int(v)-borrow >= 0)
		c.setNZ(r)
		return r
	}
	return c.adc(acc, ^v)
}

func (c *HuC6280) compare(reg, v uint8) {
	c.setFlag(flagC, reg >= v)
	c.setNZ(reg - v)
}

// bitTest sets flags the way TSB and TRB do.
func (c *HuC6280) bitTest(v uint8) {
	c.p &^= flagN | flagV | flagZ
	c.p |= v & (flagN | flagV)
	if c.a&v == 0 {
		c.p |= flagZ
	}
}

func (c *HuC6280) tst(mode addrMode) {
	imm := c.fetch()
	var addr uint16
	switch mode {
	case modeImmZp:
		addr = c.addrZp()
	case modeImmZpX:
		addr = c.addrZpX()
	case modeImmAbs:
		addr = c.addrAbs()
	case modeImmAbsX:
		addr = c.addrAbsX()
	}
	v := c.read(addr)
	c.p &^= flagN | flagV | flagZ
	c.p |= v & (flagN | flagV)
	if imm&v == 0 {
		c.p |= flagZ
	}
}

func (c *HuC6280) asl(v uint8) uint8 {
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	c.setNZ(v)
	return v
}

func (c *HuC6280) lsr(v uint8) uint8 {
	c.setFlag(flagC, v&0x01 != 0)
	v >>= 1
	c.setNZ(v)
	return v
}

func (c *HuC6280) rol(v uint8) uint8 {
	carry := c.p & flagC
	c.setFlag(flagC, v&0x80 != 0)
	v = v<<1 | carry
	c.setNZ(v)
	return v
}

func (c *HuC6280) ror(v uint8) uint8 {
	carry := c.p & flagC
	c.setFlag(flagC, v&0x01 != 0)
	v = v>>1 | carry<<7
	c.setNZ(v)
	return v
}

// branch reads a relative offset and takes it when cond holds. Returns the
// extra cycles of a taken branch.
func (c *HuC6280) branch(cond bool) int {
	off := int8(c.fetch())
	if !cond {
		return 0
	}
	c.pc = uint16(int32(c.pc) + int32(off))
	return 2
}

// blockTransfer runs TII, TDD, TIN, TIA or TAI to completion. The move is
// not interruptible. A length of zero moves 65536 bytes.
func (c *HuC6280) blockTransfer(op uint8) int {
	src := c.fetch16()
	dst := c.fetch16()
	n := int(c.fetch16())
	if n == 0 {
		n = 0x10000
	}

	c.push(c.y)
	c.push(c.a)
	c.push(c.x)

	for i := 0; i < n; i++ {
		alt := uint16(i & 1)
		switch op {
		case 0x73: // TII
			c.write(dst, c.read(src))
			src++
			dst++
		case 0xC3: // TDD
			c.write(dst, c.read(src))
			src--
			dst--
		case 0xD3: // TIN
			c.write(dst, c.read(src))
			src++
		case 0xE3: // TIA
			c.write(dst+alt, c.read(src))
			src++
		case 0xF3: // TAI
			c.write(dst, c.read(src+alt))
			dst++
		}
	}

	c.x = c.pull()
	c.a = c.pull()
	c.y = c.pull()
	return 6 * n
}
