// Package run chainloads an image into an emulated board.
package run

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/aymanbagabas/go-pty"
	"github.com/buildkite/shellwords"
	"github.com/rs/zerolog"

	"github.com/clktmr/rpiboot/chainload"
	"github.com/clktmr/rpiboot/tools/config"
	"github.com/clktmr/rpiboot/tools/image"
	"github.com/clktmr/rpiboot/tools/logging"
)

const usageString = `Run an image on an emulated Raspberry Pi 3.

Usage: %s [flags] [image]

The emulator is started with the chainloader on a pseudo terminal as its
first serial port. A second pseudo terminal is passed in place of %s in
the command line for the console UART. The image, which defaults to the
configured image output, is sent over the first one and the output of both
is mirrored to stdout until the program halts.

`

var (
	flags = flag.NewFlagSet("run", flag.ExitOnError)

	cfgfile  = flags.String("config", config.File, "configuration file")
	emulator = flags.String("emulator", "", "emulator command line (default from config)")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "run", ConsoleArg)
	flags.PrintDefaults()
}

// Status is the outcome of a run as reported by the program's last line.
type Status int

const (
	Running Status = iota // no halt line seen yet
	Halted                // orderly halt
	Failed                // fatal error or panic
)

// halted is the message of the kernel's orderly stop.
const halted = "fatal: end of kernel"

// Watch copies r to out line by line until the program halts or r ends.
func Watch(r io.Reader, out io.Writer) Status {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fmt.Fprintln(out, line)
		switch {
		case line == halted:
			return Halted
		case strings.HasPrefix(line, "fatal:"), strings.HasPrefix(line, "panic:"):
			return Failed
		}
	}
	return Running
}

// Session sends payload to the chainloader on transport and watches the
// output of transport and console, which may be nil, until the program
// halts.
func Session(transport io.ReadWriter, console io.Reader, out io.Writer, payload []byte, log zerolog.Logger) (Status, error) {
	if err := chainload.NewSender(transport, out, log).Send(payload); err != nil {
		return Failed, err
	}
	if console == nil {
		return Watch(transport, out), nil
	}
	r := mergeLines(transport, console)
	defer r.Close()
	return Watch(r, out), nil
}

// mergeLines returns a reader yielding the lines of all rs in the order they
// are completed. It ends when all rs have ended.
func mergeLines(rs ...io.Reader) *io.PipeReader {
	pr, pw := io.Pipe()
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, r := range rs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			br := bufio.NewReader(r)
			for {
				line, err := br.ReadBytes('\n')
				if len(line) > 0 {
					mu.Lock()
					_, werr := pw.Write(line)
					mu.Unlock()
					if werr != nil {
						return
					}
				}
				if err != nil {
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		pw.Close()
	}()
	return pr
}

// ConsoleArg is replaced by the console pseudo terminal's device path in
// the emulator command line.
const ConsoleArg = "{console}"

// Emulator is a running emulator with its serial ports on pseudo terminals.
type Emulator struct {
	Transport pty.Pty
	Console   pty.Pty
	Cmd       *pty.Cmd
}

// StartEmulator runs cmdline with the transport pseudo terminal as its
// standard streams. Both terminals are switched to raw mode first, so
// control characters in the payload reach the board instead of raising
// signals or being translated.
func StartEmulator(cmdline []string) (*Emulator, error) {
	if len(cmdline) == 0 {
		return nil, errors.New("empty emulator command")
	}
	e := &Emulator{}
	var err error
	if e.Transport, err = pty.New(); err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	if e.Console, err = pty.New(); err != nil {
		e.Transport.Close()
		return nil, fmt.Errorf("open pty: %w", err)
	}
	for _, p := range []pty.Pty{e.Transport, e.Console} {
		if up, ok := p.(pty.UnixPty); ok {
			if err := makeRaw(up.Slave()); err != nil {
				e.close()
				return nil, fmt.Errorf("raw mode: %w", err)
			}
		}
	}

	args := make([]string, len(cmdline)-1)
	for i, arg := range cmdline[1:] {
		args[i] = strings.ReplaceAll(arg, ConsoleArg, e.Console.Name())
	}
	e.Cmd = e.Transport.Command(cmdline[0], args...)
	if err := e.Cmd.Start(); err != nil {
		e.close()
		return nil, fmt.Errorf("start emulator: %w", err)
	}
	return e, nil
}

// Stop closes both terminals and interrupts the emulator's process group.
func (e *Emulator) Stop() error {
	e.close()
	return processGroupKill(e.Cmd.Process)
}

func (e *Emulator) close() {
	e.Transport.Close()
	e.Console.Close()
}

func Main(args []string) {
	log := logging.Configure("run")

	flags.Usage = usage
	flags.Parse(args[1:])

	cfg, err := config.Load(*cfgfile)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if *emulator != "" {
		cfg.Emulator.Command = *emulator
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

	cmdline, err := shellwords.Split(cfg.Emulator.Command)
	if err != nil || len(cmdline) == 0 {
		log.Fatal().Err(err).Str("command", cfg.Emulator.Command).Msg("parse emulator command")
	}

	emu, err := StartEmulator(cmdline)
	if err != nil {
		log.Fatal().Err(err).Strs("command", cmdline).Send()
	}
	log.Debug().
		Strs("command", cmdline).
		Int("pid", emu.Cmd.Process.Pid).
		Str("console", emu.Console.Name()).
		Msg("emulator started")

	stop := func() {
		if err := emu.Stop(); err != nil {
			log.Warn().Err(err).Msg("stop emulator")
		}
	}

	sigintr := make(chan os.Signal, 1)
	signal.Notify(sigintr, os.Interrupt)
	go func() {
		<-sigintr
		stop()
	}()

	status, err := Session(emu.Transport, emu.Console, os.Stdout, payload, log)
	if err != nil {
		log.Error().Err(err).Msg("chainload")
	}
	// give the emulator time to flush the rest of the output
	time.Sleep(500 * time.Millisecond)
	stop()
	emu.Cmd.Wait()

	if status == Failed {
		os.Exit(1)
	}
}
