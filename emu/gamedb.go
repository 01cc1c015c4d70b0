package emu

import "hash/crc32"

type gameFlags uint16

const (
	gameSGX gameFlags = 1 << iota
	gameSF2
	gameCardRAM
	gameSixButton
	gameAvenue3Select
	gameAvenue3Run
	gameTG16
)

type gameEntry struct {
	title string
	flags gameFlags
}

// gameDB lists HuCards that need something other than the defaults,
// keyed by the CRC32 of the ROM without header.
var gameDB = map[uint32]gameEntry{
	// SuperGrafx
	0x8C4588E2: {"1941 - Counter Attack", gameSGX},
	0x4C2126B0: {"Aldynes", gameSGX},
	0x3B13AF61: {"Battle Ace", gameSGX},
	0xB486A8ED: {"Daimakaimura", gameSGX},
	0x1F041166: {"Madou King Granzort", gameSGX},

	0xD15CB6BB: {"Street Fighter II' - Champion Edition", gameSF2 | gameSixButton},

	0x083C956A: {"Populous", gameCardRAM},
	0x0A9ADE99: {"Populous - The Promised Lands", gameCardRAM},
}

type biosEntry struct {
	name         string
	version      int // major version, 3 for Super System Cards
	us           bool
	gamesExpress bool
}

var biosDB = map[uint32]biosEntry{
	0x3F9F95A4: {name: "CD-ROM System Card 1.0 (J)", version: 1},
	0x52520BC6: {name: "CD-ROM System Card 2.0 (J)", version: 2},
	0xFF2A5EC3: {name: "TurboGrafx-CD System Card 2.0 (U)", version: 2, us: true},
	0x283B74E0: {name: "CD-ROM System Card 2.1 (J)", version: 2},
	0x6D9A73EF: {name: "Super CD-ROM2 System Card 3.0 (J)", version: 3},
	0x2B5B75FE: {name: "TurboGrafx-CD Super System Card 3.0 (U)", version: 3, us: true},
	0x51A12D90: {name: "Games Express CD Card (J)", version: 2, gamesExpress: true},
	0x4F2844B0: {name: "Games Express CD Card (J) (Alt)", version: 2, gamesExpress: true},
}

func lookupGame(crc uint32) (gameEntry, bool) {
	g, ok := gameDB[crc]
	return g, ok
}

func lookupBios(crc uint32) (biosEntry, bool) {
	b, ok := biosDB[crc]
	return b, ok
}

func crc(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
