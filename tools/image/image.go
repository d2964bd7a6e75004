// Package image converts firmware ELF files into the flat images the Raspberry
// Pi firmware and the chainloader load.
package image

import (
	"bytes"
	"debug/elf"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/tools/config"
	"github.com/clktmr/rpiboot/tools/logging"
)

const usageString = `ELF to flat kernel image converter.

Usage: %s [flags] <elffile>

`

var (
	flags = flag.NewFlagSet("image", flag.ExitOnError)

	cfgfile = flags.String("config", config.File, "configuration file")
	outfile = flags.String("o", "", "output file (default from config)")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "image")
	flags.PrintDefaults()
}

var ErrEntry = errors.New("data before entry point")

// Objcopy places every allocated PROGBITS section of src at its address
// relative to the entry point. Sections without file contents, like .bss,
// are left out.
func Objcopy(dst io.WriterAt, src *elf.File) error {
	for _, s := range src.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return err
		}

		if s.Addr < src.Entry {
			return fmt.Errorf("%w: section %s", ErrEntry, s.Name)
		}

		_, err = dst.WriteAt(data, int64(s.Addr-src.Entry))
		if err != nil {
			return err
		}
	}

	return nil
}

// Load returns the flat image of the file at path. ELF files are converted,
// anything else is taken as an image already.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		return data, nil
	}

	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf Buffer
	if err := Objcopy(&buf, f); err != nil {
		return nil, fmt.Errorf("objcopy: %w", err)
	}
	return buf.Bytes(), nil
}

// Buffer is a growable in-memory io.WriterAt. Gaps are zero filled.
type Buffer struct {
	b []byte
}

func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("image: negative offset")
	}
	if end := int(off) + len(p); end > len(b.b) {
		b.b = append(b.b, make([]byte, end-len(b.b))...)
	}
	return copy(b.b[off:], p), nil
}

func (b *Buffer) Bytes() []byte {
	return b.b
}

func Main(args []string) {
	log := logging.Configure("image")

	flags.Usage = usage
	flags.Parse(args[1:])

	cfg, err := config.Load(*cfgfile)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	infile := cfg.Image.ELF
	if flags.NArg() == 1 {
		infile = flags.Arg(0)
	}
	if infile == "" || flags.NArg() > 1 {
		flags.Usage()
		os.Exit(1)
	}

	out := cfg.Image.Output
	if *outfile != "" {
		out = *outfile
	} else if flags.NArg() == 1 {
		out, _ = strings.CutSuffix(infile, ".elf")
		out += ".img"
	}

	img, err := Load(infile)
	if err != nil {
		log.Fatal().Err(err).Str("file", infile).Msg("load")
	}
	if err := os.WriteFile(out, img, 0o644); err != nil {
		log.Fatal().Err(err).Send()
	}
	log.Info().
		Str("file", out).
		Int("size", len(img)).
		Uint8("crc8", chainload.Digest(img)).
		Msg("image written")
}
