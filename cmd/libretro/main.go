package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/empce/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4},      // I
		{RetroID: libretro.JoypadB, BitID: 5},      // II
		{RetroID: libretro.JoypadSelect, BitID: 6}, // Select
		{RetroID: libretro.JoypadStart, BitID: 7},  // Run
		{RetroID: libretro.JoypadY, BitID: 8},      // III
		{RetroID: libretro.JoypadX, BitID: 9},      // IV
		{RetroID: libretro.JoypadL, BitID: 10},     // V
		{RetroID: libretro.JoypadR, BitID: 11},     // VI
	})
}

func main() {}
