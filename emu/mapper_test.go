package emu

import "testing"

// bankTaggedROM returns a ROM where every 8KB bank starts with its index.
func bankTaggedROM(banks int) []byte {
	rom := make([]byte, banks*bankSize)
	for b := 0; b < banks; b++ {
		rom[b*bankSize] = uint8(b)
		rom[b*bankSize+1] = uint8(b >> 8)
	}
	return rom
}

func romBankAt(m *Memory, bank uint8) int {
	return int(m.readPhysical(bank, 0)) | int(m.readPhysical(bank, 1))<<8
}

func TestStandardMirroring(t *testing.T) {
	tests := []struct {
		name  string
		banks int
		phys  uint8
		want  int
	}{
		{"256K mirrors", 0x20, 0x25, 0x05},
		{"256K top", 0x20, 0x7F, 0x1F},
		{"384K low", 0x30, 0x25, 0x05},
		{"384K high", 0x30, 0x45, 0x25},
		{"512K high", 0x40, 0x41, 0x21},
		{"768K low", 0x60, 0x3F, 0x3F},
		{"768K high", 0x60, 0x40, 0x40},
		{"768K high mirror", 0x60, 0x61, 0x41},
		{"1M linear", 0x80, 0x7E, 0x7E},
	}
	for _, tt := range tests {
		m := NewMemory()
		m.SetROM(bankTaggedROM(tt.banks), MapperStandard)
		if got := romBankAt(m, tt.phys); got != tt.want {
			t.Errorf("%s: bank $%02X reads ROM bank $%02X, want $%02X", tt.name, tt.phys, got, tt.want)
		}
	}
}

func TestSF2BankSwitch(t *testing.T) {
	m := NewMemory()
	m.SetROM(bankTaggedROM(sf2ROMSize/bankSize), MapperSF2)

	if got := romBankAt(m, 0x10); got != 0x10 {
		t.Errorf("fixed window bank $10 = $%02X", got)
	}
	if got := romBankAt(m, 0x40); got != 0x40 {
		t.Errorf("bank $40 before switch = $%02X, want $40", got)
	}
	for sel := 0; sel < 4; sel++ {
		m.writePhysical(0x00, 0x1FF0+uint16(sel), 0)
		want := 0x40 + sel*0x40
		if got := romBankAt(m, 0x40); got != want {
			t.Errorf("select %d: bank $40 = $%02X, want $%02X", sel, got, want)
		}
		if got := romBankAt(m, 0x7F); got != want+0x3F {
			t.Errorf("select %d: bank $7F = $%02X, want $%02X", sel, got, want+0x3F)
		}
	}

	m.banks.reset()
	if got := romBankAt(m, 0x40); got != 0x40 {
		t.Errorf("bank $40 after reset = $%02X, want $40", got)
	}
}

func TestSF2DowngradesSmallROM(t *testing.T) {
	m := NewMemory()
	m.SetROM(bankTaggedROM(0x40), MapperSF2)
	m.writePhysical(0x00, 0x1FF3, 0)
	if m.banks.kind != MapperStandard {
		t.Fatal("small ROM kept the SF2 mapper")
	}
	if got := romBankAt(m, 0x41); got != 0x21 {
		t.Errorf("bank $41 = $%02X, want $21", got)
	}
}

func TestROMWritesIgnored(t *testing.T) {
	m := NewMemory()
	rom := bankTaggedROM(0x10)
	m.SetROM(rom, MapperStandard)
	m.writePhysical(0x03, 0x0000, 0xAA)
	if rom[3*bankSize] != 3 {
		t.Error("ROM was modified by a CPU write")
	}
}

func TestCardRAMOverlaysROM(t *testing.T) {
	m := NewMemory()
	m.SetROM(bankTaggedROM(0x40), MapperStandard)
	m.cardRAM = make([]byte, cardRAMSize)
	m.writePhysical(bankCardRAM+1, 0x10, 0x77)
	if got := m.readPhysical(bankCardRAM+1, 0x10); got != 0x77 {
		t.Errorf("card RAM read = %02X, want 77", got)
	}
	if got := romBankAt(m, bankCardRAM+4); got != 0x24 {
		t.Errorf("bank $44 = $%02X, want ROM bank $24", got)
	}
}

func TestWorkRAMMirroring(t *testing.T) {
	m := NewMemory()
	m.writePhysical(bankWRAM, 0x0010, 0x42)
	if got := m.readPhysical(bankWRAM+3, 0x0010); got != 0x42 {
		t.Errorf("PC Engine mirror = %02X, want 42", got)
	}
	m.setSGX(true)
	if got := m.readPhysical(bankWRAM+3, 0x0010); got == 0x42 {
		t.Error("SuperGrafx work RAM is mirrored")
	}
}
