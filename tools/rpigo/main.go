package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/clktmr/rpiboot/tools/image"
	"github.com/clktmr/rpiboot/tools/run"
	"github.com/clktmr/rpiboot/tools/sdcard"
	"github.com/clktmr/rpiboot/tools/send"
)

const usageString = `rpigo is a tool for development of Raspberry Pi 3 firmware.

Usage:

	%s <command> [arguments]

The commands are:

	image    convert a firmware elf to a flat kernel image
	send     chainload an image over a serial port
	sdcard   write a bootable sd card image
	run      chainload an image into an emulated board

Settings are read from rpiboot.toml in the working directory if present.
Set RPIBOOT_LOG_LEVEL to change the log level.
`

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "image":
		image.Main(flag.Args())
	case "send":
		send.Main(flag.Args())
	case "sdcard":
		sdcard.Main(flag.Args())
	case "run":
		run.Main(flag.Args())
	default:
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
