// Package send chainloads an image over a serial port.
package send

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/tools/config"
	"github.com/clktmr/rpiboot/tools/image"
	"github.com/clktmr/rpiboot/tools/logging"
	"github.com/mattn/go-tty"
	"github.com/rs/zerolog"
)

const usageString = `Send an image to a board running the chainloader.

Usage: %s [flags] [image]

The image defaults to the configured image output. ELF files are converted
on the fly. After the transfer the board's output is copied to stdout until
interrupted.

`

var (
	flags = flag.NewFlagSet("send", flag.ExitOnError)

	cfgfile = flags.String("config", config.File, "configuration file")
	device  = flags.String("dev", "", "serial device (default from config)")
	baud    = flags.Int("baud", 0, "baud rate (default from config)")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "send")
	flags.PrintDefaults()
}

// port joins the two halves of a terminal device.
type port struct {
	io.Reader
	io.Writer
}

// Transfer sends payload over rw and then copies everything the board
// prints to console until rw is closed.
func Transfer(rw io.ReadWriter, console io.Writer, payload []byte, log zerolog.Logger) error {
	if err := chainload.NewSender(rw, console, log).Send(payload); err != nil {
		return err
	}
	log.Info().Msg("transfer complete")

	_, err := io.Copy(console, rw)
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func Main(args []string) {
	log := logging.Configure("send")

	flags.Usage = usage
	flags.Parse(args[1:])

	cfg, err := config.Load(*cfgfile)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
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

	payload, err := image.Load(infile)
	if err != nil {
		log.Fatal().Err(err).Str("file", infile).Msg("load")
	}

	t, err := tty.OpenDevice(cfg.Serial.Device)
	if err != nil {
		log.Fatal().Err(err).Str("dev", cfg.Serial.Device).Msg("open")
	}
	restore := t.MustRaw()
	if err := setBaud(t.Input(), cfg.Serial.Baud); err != nil {
		log.Warn().Err(err).Int("baud", cfg.Serial.Baud).Msg("keeping current line settings")
	}

	sigintr := make(chan os.Signal, 1)
	signal.Notify(sigintr, os.Interrupt)
	go func() {
		<-sigintr
		restore()
		t.Close()
	}()

	log.Info().Str("dev", cfg.Serial.Device).Str("file", infile).Msg("waiting for board")
	err = Transfer(port{t.Input(), t.Output()}, os.Stdout, payload, log)
	restore()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
