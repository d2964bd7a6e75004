// Package config loads rpiboot.toml, the settings shared by the host tools.
// Every value has a default; the file only needs the ones that differ.
// Command line flags take precedence over both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the configuration file looked up in the working directory.
const File = "rpiboot.toml"

// MinSizeMiB is the smallest card that still fits a FAT32 file system.
const MinSizeMiB = 34

type Serial struct {
	Device string
	Baud   int
}

type Image struct {
	ELF    string
	Output string
}

type SDCard struct {
	Output    string
	SizeMiB   int64
	Firmware  string
	ConfigTxt []string
	Label     string
}

// Emulator.Command runs the chainloader. Its first serial port, UART0,
// must be its standard streams with signals off; "{console}" is replaced by
// the terminal the mini UART console is attached to.
type Emulator struct {
	Command string
}

type Config struct {
	Serial   Serial
	Image    Image
	SDCard   SDCard
	Emulator Emulator
}

type fileConfig struct {
	Serial struct {
		Device string `toml:"device"`
		Baud   int    `toml:"baud"`
	} `toml:"serial"`
	Image struct {
		ELF    string `toml:"elf"`
		Output string `toml:"output"`
	} `toml:"image"`
	SDCard struct {
		Output    string   `toml:"output"`
		SizeMiB   int64    `toml:"size_mib"`
		Firmware  string   `toml:"firmware"`
		ConfigTxt []string `toml:"config_txt"`
		Label     string   `toml:"label"`
	} `toml:"sdcard"`
	Emulator struct {
		Command string `toml:"command"`
	} `toml:"emulator"`
}

func Default() Config {
	return Config{
		Serial: Serial{
			Device: "/dev/ttyUSB0",
			Baud:   115200,
		},
		Image: Image{
			Output: "kernel8.img",
		},
		SDCard: SDCard{
			Output:   "sdcard.img",
			SizeMiB:  64,
			Firmware: "firmware",
			Label:    "RPIBOOT",
		},
		Emulator: Emulator{
			Command: "qemu-system-aarch64 -M raspi3b -display none" +
				" -chardev stdio,id=uart0,signal=off -serial chardev:uart0" +
				" -serial {console} -kernel chainloader.img",
		},
	}
}

// Load reads path over the defaults. A missing file is only an error if
// path is not the default File.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if errors.Is(err, fs.ErrNotExist) && path == File {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %s", undecoded[0])
	}

	if meta.IsDefined("serial", "device") {
		cfg.Serial.Device = strings.TrimSpace(raw.Serial.Device)
	}
	if meta.IsDefined("serial", "baud") {
		if raw.Serial.Baud <= 0 {
			return Config{}, fmt.Errorf("load config: invalid baud rate %d", raw.Serial.Baud)
		}
		cfg.Serial.Baud = raw.Serial.Baud
	}

	if meta.IsDefined("image", "elf") {
		cfg.Image.ELF = strings.TrimSpace(raw.Image.ELF)
	}
	if meta.IsDefined("image", "output") {
		cfg.Image.Output = strings.TrimSpace(raw.Image.Output)
	}

	if meta.IsDefined("sdcard", "output") {
		cfg.SDCard.Output = strings.TrimSpace(raw.SDCard.Output)
	}
	if meta.IsDefined("sdcard", "size_mib") {
		if raw.SDCard.SizeMiB < MinSizeMiB {
			return Config{}, fmt.Errorf("load config: sdcard size below %d MiB", MinSizeMiB)
		}
		cfg.SDCard.SizeMiB = raw.SDCard.SizeMiB
	}
	if meta.IsDefined("sdcard", "firmware") {
		cfg.SDCard.Firmware = strings.TrimSpace(raw.SDCard.Firmware)
	}
	if meta.IsDefined("sdcard", "config_txt") {
		cfg.SDCard.ConfigTxt = raw.SDCard.ConfigTxt
	}
	if meta.IsDefined("sdcard", "label") {
		cfg.SDCard.Label = strings.TrimSpace(raw.SDCard.Label)
	}

	if meta.IsDefined("emulator", "command") {
		cfg.Emulator.Command = strings.TrimSpace(raw.Emulator.Command)
	}

	return cfg, nil
}
