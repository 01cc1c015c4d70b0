// Package empceios is the gomobile binding for the iOS frontend. gomobile
// only binds functions declared in the bound package, so the eblitui-ios
// bridge is wrapped here one function at a time.
package empceios

import (
	"strconv"

	ios "github.com/user-none/eblitui-ios"
	"github.com/user-none/empce/adapter"
)

func init() {
	ios.RegisterFactory(&adapter.Factory{})
}

// Lifecycle.

func Init(path string, regionCode int) bool {
	return ios.Init(path, regionCode)
}

func Close() {
	ios.Close()
}

func RunFrame() {
	ios.RunFrame()
}

// Video, audio and input.

func GetFrameData() []byte {
	return ios.GetFrameData()
}

func GetAudioData() []byte {
	return ios.GetAudioData()
}

// SetInput takes the SystemInfo button mask for one of the five ports.
func SetInput(player int, buttons int) {
	ios.SetInput(player, buttons)
}

func FrameWidth() int {
	return ios.FrameWidth()
}

func FrameStride() int {
	return ios.FrameStride()
}

func FrameHeight() int {
	return ios.FrameHeight()
}

func GetFPS() int {
	return ios.GetFPS()
}

// Metadata.

func SystemInfoJSON() string {
	return ios.SystemInfoJSON()
}

func Region() int {
	return ios.Region()
}

func DetectRegionFromPath(path string) int {
	return ios.DetectRegionFromPath(path)
}

func GetCRC32FromPath(path string) int64 {
	return ios.GetCRC32FromPath(path)
}

func ExtractAndStoreROM(srcPath, destDir string) (string, error) {
	return ios.ExtractAndStoreROM(srcPath, destDir)
}

// Save states. Swift reads the serialized state a byte at a time.

func HasSaveStates() bool {
	return ios.HasSaveStates()
}

func SaveState() bool {
	return ios.SaveState()
}

func StateLen() int {
	return ios.StateLen()
}

func StateByte(i int) int {
	return ios.StateByte(i)
}

func LoadState(data []byte) bool {
	return ios.LoadState(data)
}

// Backup RAM.

func HasSRAM() bool {
	return ios.HasSRAM()
}

func PrepareSRAM() {
	ios.PrepareSRAM()
}

func SRAMLen() int {
	return ios.SRAMLen()
}

func SRAMByte(i int) int {
	return ios.SRAMByte(i)
}

func LoadSRAM(data []byte) {
	ios.LoadSRAM(data)
}

// Core options. The typed setters cover the settings the iOS settings
// screen exposes; anything else goes through SetOption.

func SetOption(key string, value string) {
	ios.SetOption(key, value)
}

// SetConsoleType selects auto, pce, tg16 or sgx.
func SetConsoleType(v string) {
	ios.SetOption("console_type", v)
}

// SetCDROMType selects auto, standard, supercd or arcade.
func SetCDROMType(v string) {
	ios.SetOption("cdrom_type", v)
}

// SetPadType selects standard, avenue3 or avenue6.
func SetPadType(v string) {
	ios.SetOption("pad_type", v)
}

func SetTurboTap(on bool) {
	ios.SetOption("turbo_tap", strconv.FormatBool(on))
}

func SetOverscan(mode int) {
	ios.SetOption("overscan", strconv.Itoa(mode))
}
