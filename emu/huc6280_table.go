package emu

// addrMode identifies how an instruction encodes its operand.
type addrMode uint8

const (
	modeImp     addrMode = iota // implied
	modeAcc                     // accumulator
	modeImm                     // #nn
	modeZp                      // nn
	modeZpX                     // nn,X
	modeZpY                     // nn,Y
	modeAbs                     // nnnn
	modeAbsX                    // nnnn,X
	modeAbsY                    // nnnn,Y
	modeInd                     // (nnnn)
	modeAbsXInd                 // (nnnn,X)
	modeIzX                     // (nn,X)
	modeIzY                     // (nn),Y
	modeIzp                     // (nn)
	modeRel                     // relative
	modeZpRel                   // nn,relative
	modeImmZp                   // #nn,nn
	modeImmZpX                  // #nn,nn,X
	modeImmAbs                  // #nn,nnnn
	modeImmAbsX                 // #nn,nnnn,X
	modeBlock                   // ssss,dddd,llll
)

// modeSize is the instruction length in bytes for each mode.
var modeSize = [...]int{
	modeImp: 1, modeAcc: 1, modeImm: 2, modeZp: 2, modeZpX: 2, modeZpY: 2,
	modeAbs: 3, modeAbsX: 3, modeAbsY: 3, modeInd: 3, modeAbsXInd: 3,
	modeIzX: 2, modeIzY: 2, modeIzp: 2, modeRel: 2, modeZpRel: 3,
	modeImmZp: 3, modeImmZpX: 3, modeImmAbs: 4, modeImmAbsX: 4, modeBlock: 7,
}

type opInfo struct {
	name   string
	mode   addrMode
	cycles uint8 // base CPU cycles
}

// opTable covers the documented HuC6280 instruction set. Entries with an
// empty name are undefined and execute as a two cycle NOP.
var opTable = [256]opInfo{
	// 0x00-0x0F
	0x00: {"BRK", modeImp, 8}, 0x01: {"ORA", modeIzX, 7},
	0x02: {"SXY", modeImp, 3}, 0x03: {"ST0", modeImm, 5},
	0x04: {"TSB", modeZp, 6}, 0x05: {"ORA", modeZp, 4},
	0x06: {"ASL", modeZp, 6}, 0x07: {"RMB0", modeZp, 7},
	0x08: {"PHP", modeImp, 3}, 0x09: {"ORA", modeImm, 2},
	0x0A: {"ASL", modeAcc, 2}, 0x0C: {"TSB", modeAbs, 7},
	0x0D: {"ORA", modeAbs, 5}, 0x0E: {"ASL", modeAbs, 7},
	0x0F: {"BBR0", modeZpRel, 6},
	// 0x10-0x1F
	0x10: {"BPL", modeRel, 2}, 0x11: {"ORA", modeIzY, 7},
	0x12: {"ORA", modeIzp, 7}, 0x13: {"ST1", modeImm, 5},
	0x14: {"TRB", modeZp, 6}, 0x15: {"ORA", modeZpX, 4},
	0x16: {"ASL", modeZpX, 6}, 0x17: {"RMB1", modeZp, 7},
	0x18: {"CLC", modeImp, 2}, 0x19: {"ORA", modeAbsY, 5},
	0x1A: {"INC", modeAcc, 2}, 0x1C: {"TRB", modeAbs, 7},
	0x1D: {"ORA", modeAbsX, 5}, 0x1E: {"ASL", modeAbsX, 7},
	0x1F: {"BBR1", modeZpRel, 6},
	// 0x20-0x2F
	0x20: {"JSR", modeAbs, 7}, 0x21: {"AND", modeIzX, 7},
	0x22: {"SAX", modeImp, 3}, 0x23: {"ST2", modeImm, 5},
	0x24: {"BIT", modeZp, 4}, 0x25: {"AND", modeZp, 4},
	0x26: {"ROL", modeZp, 6}, 0x27: {"RMB2", modeZp, 7},
	0x28: {"PLP", modeImp, 4}, 0x29: {"AND", modeImm, 2},
	0x2A: {"ROL", modeAcc, 2}, 0x2C: {"BIT", modeAbs, 5},
	0x2D: {"AND", modeAbs, 5}, 0x2E: {"ROL", modeAbs, 7},
	0x2F: {"BBR2", modeZpRel, 6},
	// 0x30-0x3F
	0x30: {"BMI", modeRel, 2}, 0x31: {"AND", modeIzY, 7},
	0x32: {"AND", modeIzp, 7}, 0x34: {"BIT", modeZpX, 4},
	0x35: {"AND", modeZpX, 4}, 0x36: {"ROL", modeZpX, 6},
	0x37: {"RMB3", modeZp, 7}, 0x38: {"SEC", modeImp, 2},
	0x39: {"AND", modeAbsY, 5}, 0x3A: {"DEC", modeAcc, 2},
	0x3C: {"BIT", modeAbsX, 5}, 0x3D: {"AND", modeAbsX, 5},
	0x3E: {"ROL", modeAbsX, 7}, 0x3F: {"BBR3", modeZpRel, 6},
	// 0x40-0x4F
	0x40: {"RTI", modeImp, 7}, 0x41: {"EOR", modeIzX, 7},
	0x42: {"SAY", modeImp, 3}, 0x43: {"TMA", modeImm, 4},
	0x44: {"BSR", modeRel, 8}, 0x45: {"EOR", modeZp, 4},
	0x46: {"LSR", modeZp, 6}, 0x47: {"RMB4", modeZp, 7},
	0x48: {"PHA", modeImp, 3}, 0x49: {"EOR", modeImm, 2},
	0x4A: {"LSR", modeAcc, 2}, 0x4C: {"JMP", modeAbs, 4},
	0x4D: {"EOR", modeAbs, 5}, 0x4E: {"LSR", modeAbs, 7},
	0x4F: {"BBR4", modeZpRel, 6},
	// 0x50-0x5F
	0x50: {"BVC", modeRel, 2}, 0x51: {"EOR", modeIzY, 7},
	0x52: {"EOR", modeIzp, 7}, 0x53: {"TAM", modeImm, 5},
	0x54: {"CSL", modeImp, 3}, 0x55: {"EOR", modeZpX, 4},
	0x56: {"LSR", modeZpX, 6}, 0x57: {"RMB5", modeZp, 7},
	0x58: {"CLI", modeImp, 2}, 0x59: {"EOR", modeAbsY, 5},
	0x5A: {"PHY", modeImp, 3}, 0x5D: {"EOR", modeAbsX, 5},
	0x5E: {"LSR", modeAbsX, 7}, 0x5F: {"BBR5", modeZpRel, 6},
	// 0x60-0x6F
	0x60: {"RTS", modeImp, 7}, 0x61: {"ADC", modeIzX, 7},
	0x62: {"CLA", modeImp, 2}, 0x64: {"STZ", modeZp, 4},
	0x65: {"ADC", modeZp, 4}, 0x66: {"ROR", modeZp, 6},
	0x67: {"RMB6", modeZp, 7}, 0x68: {"PLA", modeImp, 4},
	0x69: {"ADC", modeImm, 2}, 0x6A: {"ROR", modeAcc, 2},
	0x6C: {"JMP", modeInd, 7}, 0x6D: {"ADC", modeAbs, 5},
	0x6E: {"ROR", modeAbs, 7}, 0x6F: {"BBR6", modeZpRel, 6},
	// 0x70-0x7F
	0x70: {"BVS", modeRel, 2}, 0x71: {"ADC", modeIzY, 7},
	0x72: {"ADC", modeIzp, 7}, 0x73: {"TII", modeBlock, 17},
	0x74: {"STZ", modeZpX, 4}, 0x75: {"ADC", modeZpX, 4},
	0x76: {"ROR", modeZpX, 6}, 0x77: {"RMB7", modeZp, 7},
	0x78: {"SEI", modeImp, 2}, 0x79: {"ADC", modeAbsY, 5},
	0x7A: {"PLY", modeImp, 4}, 0x7C: {"JMP", modeAbsXInd, 7},
	0x7D: {"ADC", modeAbsX, 5}, 0x7E: {"ROR", modeAbsX, 7},
	0x7F: {"BBR7", modeZpRel, 6},
	// 0x80-0x8F
	0x80: {"BRA", modeRel, 2}, 0x81: {"STA", modeIzX, 7},
	0x82: {"CLX", modeImp, 2}, 0x83: {"TST", modeImmZp, 7},
	0x84: {"STY", modeZp, 4}, 0x85: {"STA", modeZp, 4},
	0x86: {"STX", modeZp, 4}, 0x87: {"SMB0", modeZp, 7},
	0x88: {"DEY", modeImp, 2}, 0x89: {"BIT", modeImm, 2},
	0x8A: {"TXA", modeImp, 2}, 0x8C: {"STY", modeAbs, 5},
	0x8D: {"STA", modeAbs, 5}, 0x8E: {"STX", modeAbs, 5},
	0x8F: {"BBS0", modeZpRel, 6},
	// 0x90-0x9F
	0x90: {"BCC", modeRel, 2}, 0x91: {"STA", modeIzY, 7},
	0x92: {"STA", modeIzp, 7}, 0x93: {"TST", modeImmAbs, 8},
	0x94: {"STY", modeZpX, 4}, 0x95: {"STA", modeZpX, 4},
	0x96: {"STX", modeZpY, 4}, 0x97: {"SMB1", modeZp, 7},
	0x98: {"TYA", modeImp, 2}, 0x99: {"STA", modeAbsY, 5},
	0x9A: {"TXS", modeImp, 2}, 0x9C: {"STZ", modeAbs, 5},
	0x9D: {"STA", modeAbsX, 5}, 0x9E: {"STZ", modeAbsX, 5},
	0x9F: {"BBS1", modeZpRel, 6},
	// 0xA0-0xAF
	0xA0: {"LDY", modeImm, 2}, 0xA1: {"LDA", modeIzX, 7},
	0xA2: {"LDX", modeImm, 2}, 0xA3: {"TST", modeImmZpX, 7},
	0xA4: {"LDY", modeZp, 4}, 0xA5: {"LDA", modeZp, 4},
	0xA6: {"LDX", modeZp, 4}, 0xA7: {"SMB2", modeZp, 7},
	0xA8: {"TAY", modeImp, 2}, 0xA9: {"LDA", modeImm, 2},
	0xAA: {"TAX", modeImp, 2}, 0xAC: {"LDY", modeAbs, 5},
	0xAD: {"LDA", modeAbs, 5}, 0xAE: {"LDX", modeAbs, 5},
	0xAF: {"BBS2", modeZpRel, 6},
	// 0xB0-0xBF
	0xB0: {"BCS", modeRel, 2}, 0xB1: {"LDA", modeIzY, 7},
	0xB2: {"LDA", modeIzp, 7}, 0xB3: {"TST", modeImmAbsX, 8},
	0xB4: {"LDY", modeZpX, 4}, 0xB5: {"LDA", modeZpX, 4},
	0xB6: {"LDX", modeZpY, 4}, 0xB7: {"SMB3", modeZp, 7},
	0xB8: {"CLV", modeImp, 2}, 0xB9: {"LDA", modeAbsY, 5},
	0xBA: {"TSX", modeImp, 2}, 0xBC: {"LDY", modeAbsX, 5},
	0xBD: {"LDA", modeAbsX, 5}, 0xBE: {"LDX", modeAbsY, 5},
	0xBF: {"BBS3", modeZpRel, 6},
	// 0xC0-0xCF
	0xC0: {"CPY", modeImm, 2}, 0xC1: {"CMP", modeIzX, 7},
	0xC2: {"CLY", modeImp, 2}, 0xC3: {"TDD", modeBlock, 17},
	0xC4: {"CPY", modeZp, 4}, 0xC5: {"CMP", modeZp, 4},
	0xC6: {"DEC", modeZp, 6}, 0xC7: {"SMB4", modeZp, 7},
	0xC8: {"INY", modeImp, 2}, 0xC9: {"CMP", modeImm, 2},
	0xCA: {"DEX", modeImp, 2}, 0xCC: {"CPY", modeAbs, 5},
	0xCD: {"CMP", modeAbs, 5}, 0xCE: {"DEC", modeAbs, 7},
	0xCF: {"BBS4", modeZpRel, 6},
	// 0xD0-0xDF
	0xD0: {"BNE", modeRel, 2}, 0xD1: {"CMP", modeIzY, 7},
	0xD2: {"CMP", modeIzp, 7}, 0xD3: {"TIN", modeBlock, 17},
	0xD4: {"CSH", modeImp, 3}, 0xD5: {"CMP", modeZpX, 4},
	0xD6: {"DEC", modeZpX, 6}, 0xD7: {"SMB5", modeZp, 7},
	0xD8: {"CLD", modeImp, 2}, 0xD9: {"CMP", modeAbsY, 5},
	0xDA: {"PHX", modeImp, 3}, 0xDD: {"CMP", modeAbsX, 5},
	0xDE: {"DEC", modeAbsX, 7}, 0xDF: {"BBS5", modeZpRel, 6},
	// 0xE0-0xEF
	0xE0: {"CPX", modeImm, 2}, 0xE1: {"SBC", modeIzX, 7},
	0xE3: {"TIA", modeBlock, 17}, 0xE4: {"CPX", modeZp, 4},
	0xE5: {"SBC", modeZp, 4}, 0xE6: {"INC", modeZp, 6},
	0xE7: {"SMB6", modeZp, 7}, 0xE8: {"INX", modeImp, 2},
	0xE9: {"SBC", modeImm, 2}, 0xEA: {"NOP", modeImp, 2},
	0xEC: {"CPX", modeAbs, 5}, 0xED: {"SBC", modeAbs, 5},
	0xEE: {"INC", modeAbs, 7}, 0xEF: {"BBS6", modeZpRel, 6},
	// 0xF0-0xFF
	0xF0: {"BEQ", modeRel, 2}, 0xF1: {"SBC", modeIzY, 7},
	0xF2: {"SBC", modeIzp, 7}, 0xF3: {"TAI", modeBlock, 17},
	0xF4: {"SET", modeImp, 2}, 0xF5: {"SBC", modeZpX, 4},
	0xF6: {"INC", modeZpX, 6}, 0xF7: {"SMB7", modeZp, 7},
	0xF8: {"SED", modeImp, 2}, 0xF9: {"SBC", modeAbsY, 5},
	0xFA: {"PLX", modeImp, 4}, 0xFD: {"SBC", modeAbsX, 5},
	0xFE: {"INC", modeAbsX, 7}, 0xFF: {"BBS7", modeZpRel, 6},
}
