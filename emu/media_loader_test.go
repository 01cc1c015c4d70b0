package emu

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestEntryPath(t *testing.T) {
	tests := map[string]string{
		"game.pce":         "game.pce",
		"dir\\game.pce":    "dir/game.pce",
		"../../etc/passwd": "etc/passwd",
		"/abs/track01.bin": "abs/track01.bin",
		"a/./b/../c.cue":   "a/c.cue",
		"":                 "",
	}
	for in, want := range tests {
		require.Equal(t, want, entryPath(in), in)
	}
}

func TestPickArchiveMember(t *testing.T) {
	got, err := pickArchiveMember([]string{"extra/deep/other.cue", "readme.txt", "disc/game.cue", "game.pce"})
	require.NoError(t, err)
	require.Equal(t, "disc/game.cue", got, "shallowest cue sheet wins")

	got, err = pickArchiveMember([]string{"notes.txt", "roms/Game.PCE", "b.sgx"})
	require.NoError(t, err)
	require.Equal(t, "b.sgx", got)

	_, err = pickArchiveMember([]string{"readme.txt", "track01.bin"})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadZippedHuCard(t *testing.T) {
	rom := testROM([]byte{0x80, 0xFE})
	data := buildZip(t, map[string][]byte{
		"readme.txt":    []byte("hello"),
		"roms/game.pce": rom,
	})

	e := New()
	require.NoError(t, e.LoadMediaBytes("game.zip", data))
	info := e.GetMediaInfo()
	require.Equal(t, MediaHuCard, info.Kind)
	require.Equal(t, crc(rom), info.CRC)
}

func TestLoadZippedDisc(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"disc/game.cue": []byte("FILE \"data.iso\" BINARY\nTRACK 01 MODE1/2048\nINDEX 01 00:00:00\n" +
			"FILE \"audio.bin\" BINARY\nTRACK 02 AUDIO\nINDEX 01 00:00:00\n"),
		"disc/data.iso":  make([]byte, 16*sectorSizeData),
		"disc/audio.bin": make([]byte, 10*sectorSizeRaw),
	})
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/games/game.zip", data)

	e := New()
	e.SetFS(fs)
	_ = e.LoadBiosBytes(testROM([]byte{0x80, 0xFE}))
	require.NoError(t, e.LoadMedia("/games/game.zip"))

	info := e.GetMediaInfo()
	require.Equal(t, MediaCD, info.Kind)
	require.Equal(t, 2, info.Tracks)
	require.NotNil(t, e.media.cleanup, "extracted tracks must outlive the load")

	e.UnloadMedia()
	tmp, err := afero.Glob(fs, filepath.Join(os.TempDir(), "empce-*"))
	require.NoError(t, err)
	require.Empty(t, tmp, "temporary tracks not removed")
}

func TestLoadArchiveErrors(t *testing.T) {
	e := New()
	require.ErrorIs(t, e.LoadMediaBytes("x.zip", nil), ErrEmptyFile)
	require.ErrorIs(t, e.LoadMediaBytes("x.zip", buildZip(t, map[string][]byte{"a.txt": {1}})), ErrUnsupportedFormat)
	require.Error(t, e.LoadMediaBytes("x.7z", []byte("not an archive")))
	require.ErrorIs(t, e.LoadMedia("game.chd"), ErrUnsupportedFormat)
}
