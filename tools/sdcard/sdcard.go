// Package sdcard writes bootable SD card images for the Raspberry Pi 3.
package sdcard

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"github.com/diskfs/go-diskfs/partition/mbr"

	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/tools/config"
	"github.com/clktmr/rpiboot/tools/image"
	"github.com/clktmr/rpiboot/tools/logging"
)

const usageString = `SD card image writer.

Usage: %s [flags] [image]

Creates a disk image with a single FAT32 partition holding the VideoCore
firmware files, a config.txt and the kernel image, which defaults to the
configured image output.

`

var (
	flags = flag.NewFlagSet("sdcard", flag.ExitOnError)

	cfgfile = flags.String("config", config.File, "configuration file")
	outfile = flags.String("o", "", "output file (default from config)")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "sdcard")
	flags.PrintDefaults()
}

const (
	sectorSize     = 512
	partitionStart = 2048 // 1 MiB aligned
	kernelName     = "kernel8.img"
)

// ConfigTxt returns the firmware configuration booting kernelName in 64-bit
// mode, followed by extra lines.
func ConfigTxt(extra []string) string {
	var b strings.Builder
	b.WriteString("arm_64bit=1\n")
	b.WriteString("kernel=" + kernelName + "\n")
	b.WriteString("enable_uart=1\n")
	for _, l := range extra {
		b.WriteString(l + "\n")
	}
	return b.String()
}

// Write creates the image described by cfg at cfg.Output and copies the
// firmware files and kernel into it.
func Write(cfg config.SDCard, kernel []byte) error {
	if cfg.SizeMiB < config.MinSizeMiB {
		return fmt.Errorf("sdcard: %d MiB is too small", cfg.SizeMiB)
	}
	firmware, err := os.ReadDir(cfg.Firmware)
	if err != nil {
		return fmt.Errorf("sdcard: firmware: %w", err)
	}

	size := cfg.SizeMiB << 20
	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("sdcard: %w", err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("sdcard: %w", err)
	}

	table := &mbr.Table{
		LogicalSectorSize:  sectorSize,
		PhysicalSectorSize: sectorSize,
		Partitions: []*mbr.Partition{{
			Bootable: true,
			Type:     mbr.Fat32LBA,
			Start:    partitionStart,
			Size:     uint32(size/sectorSize) - partitionStart,
		}},
	}
	if err := table.Write(f, size); err != nil {
		return fmt.Errorf("sdcard: partition: %w", err)
	}

	fs, err := fat32.Create(f, partitionSize(size), partitionStart*sectorSize, sectorSize, cfg.Label)
	if err != nil {
		return fmt.Errorf("sdcard: format: %w", err)
	}

	for _, e := range firmware {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(cfg.Firmware, e.Name()))
		if err != nil {
			return fmt.Errorf("sdcard: firmware: %w", err)
		}
		if err := writeFile(fs, e.Name(), data); err != nil {
			return err
		}
	}
	if err := writeFile(fs, "config.txt", []byte(ConfigTxt(cfg.ConfigTxt))); err != nil {
		return err
	}
	return writeFile(fs, kernelName, kernel)
}

func partitionSize(disk int64) int64 {
	return disk - partitionStart*sectorSize
}

func writeFile(fs *fat32.FileSystem, name string, data []byte) error {
	f, err := fs.OpenFile("/"+name, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return fmt.Errorf("sdcard: create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("sdcard: write %s: %w", name, err)
	}
	return nil
}

// ReadFile returns the contents of name in the boot partition of the image
// at path.
func ReadFile(path, name string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	table, err := mbr.Read(f, sectorSize, sectorSize)
	if err != nil {
		return nil, err
	}
	if len(table.Partitions) == 0 || table.Partitions[0].Type != mbr.Fat32LBA {
		return nil, fmt.Errorf("sdcard: %s has no FAT32 boot partition", path)
	}
	p := table.Partitions[0]
	if int64(p.Start+p.Size)*sectorSize > st.Size() {
		return nil, fmt.Errorf("sdcard: partition exceeds %s", path)
	}
	fs, err := fat32.Read(f, int64(p.Size)*sectorSize, int64(p.Start)*sectorSize, sectorSize)
	if err != nil {
		return nil, err
	}

	r, err := fs.OpenFile("/"+name, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func Main(args []string) {
	log := logging.Configure("sdcard")

	flags.Usage = usage
	flags.Parse(args[1:])

	cfg, err := config.Load(*cfgfile)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if *outfile != "" {
		cfg.SDCard.Output = *outfile
	}

	infile := cfg.Image.Output
	switch flags.NArg() {
	case 0:
	case 1:
		infile = flags.Arg(0)
	default:
		flags.Usage()
		os.Exit(1)
	}

	kernel, err := image.Load(infile)
	if err != nil {
		log.Fatal().Err(err).Str("file", infile).Msg("load")
	}
	if err := Write(cfg.SDCard, kernel); err != nil {
		log.Fatal().Err(err).Send()
	}
	log.Info().
		Str("file", cfg.SDCard.Output).
		Int64("size_mib", cfg.SDCard.SizeMiB).
		Uint8("kernel_crc8", chainload.Digest(kernel)).
		Msg("sd card image written")
}
