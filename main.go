package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sqweek/dialog"
	emubridge "github.com/user-none/empce/bridge/ebiten"
	"github.com/user-none/empce/cli"
	"github.com/user-none/empce/emu"
	"github.com/user-none/empce/ui"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] [game_file] [symbol_file]\n\nOptions:\n", emu.Name)
	flag.PrintDefaults()
}

func main() {
	var fullscreen, windowed, mcpStdio, mcpHTTP, version bool
	flag.BoolVar(&fullscreen, "f", false, "start in fullscreen mode")
	flag.BoolVar(&fullscreen, "fullscreen", false, "start in fullscreen mode")
	flag.BoolVar(&windowed, "w", false, "start in windowed mode")
	flag.BoolVar(&windowed, "windowed", false, "start in windowed mode")
	flag.BoolVar(&mcpStdio, "mcp-stdio", false, "serve the debugger over MCP on stdio")
	flag.BoolVar(&mcpHTTP, "mcp-http", false, "serve the debugger over MCP on HTTP")
	mcpPort := flag.Int("mcp-http-port", 7777, "port for --mcp-http")
	flag.BoolVar(&version, "v", false, "print the version and exit")
	flag.BoolVar(&version, "version", false, "print the version and exit")
	biosPath := flag.String("bios", "", "System Card image for CD-ROM games")
	wavPath := flag.String("wav", "", "record audio to a WAV file")
	consoleType := flag.String("console", "auto", "console: auto, pce, tg16 or sgx")
	cdromType := flag.String("cdrom", "auto", "CD-ROM unit: auto, standard, supercd or arcade")
	flag.Usage = usage
	flag.Parse()

	if version {
		fmt.Println(emu.BuildString)
		return
	}
	if mcpStdio || mcpHTTP {
		log.Printf("Warning: no MCP debugger in this build, ignoring --mcp-stdio/--mcp-http (port %d)", *mcpPort)
	}

	gamePath := flag.Arg(0)
	if gamePath == "" {
		p, err := dialog.File().
			Title("Open game").
			Filter("PC Engine media", "pce", "sgx", "hes", "cue", "zip", "7z", "rar").
			Load()
		if err != nil {
			if errors.Is(err, dialog.ErrCancelled) {
				return
			}
			log.Fatalf("Failed to choose a game: %v", err)
		}
		gamePath = p
	}

	e := emu.New()
	e.SetConsoleType(emu.ParseConsoleType(*consoleType))
	e.SetCDROMType(emu.ParseCDROMType(*cdromType))

	if *biosPath != "" {
		if err := e.LoadBios(*biosPath); err != nil {
			if !errors.Is(err, emu.ErrBiosInvalid) {
				log.Fatalf("Failed to load BIOS: %v", err)
			}
			log.Printf("Warning: %v", err)
		}
	}

	if err := e.LoadMedia(gamePath); err != nil {
		dialog.Message("%s: %v", filepath.Base(gamePath), err).Title(emu.Name).Error()
		log.Fatalf("Failed to load media: %v", err)
	}

	if symPath := flag.Arg(1); symPath != "" {
		if f, err := os.Open(symPath); err != nil {
			log.Printf("Warning: symbols: %v", err)
		} else {
			if err := e.LoadSymbols(f); err != nil {
				log.Printf("Warning: symbols: %v", err)
			}
			f.Close()
		}
	}

	// Backup RAM and MB128 live next to the game file.
	base := strings.TrimSuffix(gamePath, filepath.Ext(gamePath))
	srmPath := base + ".srm"
	mbPath := base + ".mb128"
	if e.HasSRAM() {
		if data, err := os.ReadFile(srmPath); err == nil {
			e.SetSRAM(data)
		}
	}
	if data, err := os.ReadFile(mbPath); err == nil {
		e.SetMB128(data)
	}

	var opts cli.Options
	opts.StatePath = base + ".state"
	if *wavPath != "" {
		rec, err := ui.NewWavRecorder(*wavPath)
		if err != nil {
			log.Fatalf("Failed to start audio capture: %v", err)
		}
		opts.Wav = rec
	}

	w, h := e.NativeFrameSize()
	ebiten.SetWindowSize(h*4/3*2, h*2)
	ebiten.SetWindowTitle(e.GetMediaInfo().Title + " - " + emu.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(w, h, -1, -1)
	ebiten.SetFullscreen(fullscreen && !windowed)
	ebiten.SetTPS(60)

	defer e.Close()
	defer func() {
		if e.HasSRAM() {
			if data := e.GetSRAM(); data != nil {
				os.WriteFile(srmPath, data, 0644)
			}
		}
		if e.MB128Dirty() {
			os.WriteFile(mbPath, e.GetMB128(), 0644)
		}
	}()

	runner := cli.NewRunner(emubridge.NewEmulator(e), opts)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
