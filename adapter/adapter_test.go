package adapter

import (
	"testing"

	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/empce/emu"
)

func TestSystemInfoButtonsFitMask(t *testing.T) {
	info := (&Factory{}).SystemInfo()
	seen := map[int]string{}
	for _, b := range info.Buttons {
		if b.ID < 4 || b.ID > 31 {
			t.Errorf("%s uses bit %d", b.Name, b.ID)
		}
		if prev, ok := seen[b.ID]; ok {
			t.Errorf("%s and %s share bit %d", prev, b.Name, b.ID)
		}
		seen[b.ID] = b.Name
	}
	if info.SerializeSize <= 0 {
		t.Error("SerializeSize not set")
	}
}

func TestSelectOptionsHaveValues(t *testing.T) {
	for _, o := range (&Factory{}).SystemInfo().CoreOptions {
		switch o.Type {
		case emucore.CoreOptionSelect:
			found := false
			for _, v := range o.Values {
				found = found || v == o.Default
			}
			if !found {
				t.Errorf("%s: default %q not among %v", o.Key, o.Default, o.Values)
			}
		case emucore.CoreOptionRange:
			if o.Min >= o.Max || o.Step <= 0 {
				t.Errorf("%s: bad range %d..%d step %d", o.Key, o.Min, o.Max, o.Step)
			}
		}
	}
}

func TestCreateEmulator(t *testing.T) {
	f := &Factory{}
	rom := make([]byte, 0x2000)
	rom[0x1FFE], rom[0x1FFF] = 0x00, 0xE0
	e, err := f.CreateEmulator(rom, emucore.RegionNTSC)
	if err != nil {
		t.Fatalf("CreateEmulator: %v", err)
	}
	defer e.Close()
	e.RunFrame()
	if e.GetFramebufferStride() != emu.ScreenWidth*4 {
		t.Errorf("stride = %d", e.GetFramebufferStride())
	}
	if _, ok := e.(emucore.SaveStater); !ok {
		t.Error("emulator does not support save states")
	}

	if _, err := f.CreateEmulator(nil, emucore.RegionNTSC); err == nil {
		t.Error("empty ROM accepted")
	}
	if r, fromDB := f.DetectRegion(rom); r != emucore.RegionNTSC || fromDB {
		t.Errorf("DetectRegion = %v, %v", r, fromDB)
	}
}
