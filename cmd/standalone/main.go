//go:build !libretro && !ios

package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/empce/adapter"
)

func main() {
	romPath := flag.String("rom", "", "path to HuCard or HES file (opens UI if not provided)")
	sixButton := flag.Bool("six-button", false, "use an Avenue Pad 6 on every port")
	turboTap := flag.Bool("turbotap", false, "connect the five player multitap")
	flag.Parse()

	factory := &adapter.Factory{}

	if *romPath != "" {
		options := map[string]string{
			"pad_type":  "standard",
			"turbo_tap": strconv.FormatBool(*turboTap),
		}
		if *sixButton {
			options["pad_type"] = "avenue6"
		}
		if err := standalone.RunDirect(factory, *romPath, "ntsc", options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
