// Package main provides a command-line tool for inspecting, merging and
// editing WAD archives.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/nwtools/wadtools/pkg/config"
	"github.com/nwtools/wadtools/pkg/edit"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds the parsed global flags and the state shared by every command.
type cli struct {
	app *kingpin.Application
	out io.Writer
	log *logrus.Logger
	cfg *config.Config

	configPath *string
	verbose    *bool
	inPlace    *bool
	iwad       *string
	chunkSize  *int

	handlers map[string]func() error
}

func newCLI(stdout, stderr io.Writer) *cli {
	app := kingpin.New("wadtool", "Inspect, merge and edit WAD archives.")
	app.HelpFlag.Short('h')
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	log := logrus.New()
	log.SetOutput(&warnWriter{w: stderr})

	c := &cli{
		app:      app,
		out:      stdout,
		log:      log,
		handlers: make(map[string]func() error),
	}
	c.configPath = app.Flag("config", "Configuration file.").Default(config.DefaultFile).String()
	c.verbose = app.Flag("verbose", "Log every relocated payload.").Short('v').Bool()
	c.inPlace = app.Flag("in-place", "Write append-only changes directly into the archive.").Bool()
	c.iwad = app.Flag("iwad", "Primary archive; searched for in the working directory if unset.").String()
	c.chunkSize = app.Flag("chunk-size", "Copy buffer size in bytes.").Int()

	c.registerInspect()
	c.registerMerge()
	c.registerEdit()
	c.registerLumps()
	return c
}

// handle sets the function run when cmd is selected.
func (c *cli) handle(cmd *kingpin.CmdClause, fn func() error) {
	c.handlers[cmd.FullCommand()] = fn
}

func run(args []string, stdout, stderr io.Writer) error {
	c := newCLI(stdout, stderr)

	selected, err := c.app.Parse(args)
	if err != nil {
		return err
	}
	if err := c.configure(); err != nil {
		return err
	}

	handler, ok := c.handlers[selected]
	if !ok {
		return fmt.Errorf("unknown command: %s", selected)
	}
	return handler()
}

// configure loads the configuration file and applies flag overrides.
func (c *cli) configure() error {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return err
	}
	if *c.chunkSize != 0 {
		cfg.ChunkSize = *c.chunkSize
	}
	if *c.inPlace {
		cfg.InPlace = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	c.log.SetLevel(cfg.Level())
	if *c.verbose {
		c.log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// editOptions returns the options passed to every edit operation.
func (c *cli) editOptions() []edit.Option {
	return []edit.Option{
		edit.WithLogger(c.log),
		edit.WithChunkSize(c.cfg.ChunkSize),
		edit.WithInPlace(c.cfg.InPlace),
	}
}

// primary returns the primary archive from --iwad or the configured search
// order in the working directory.
func (c *cli) primary() (string, error) {
	if *c.iwad != "" {
		return *c.iwad, nil
	}
	return c.cfg.FindIWAD(".")
}

// warnWriter highlights warning and error lines on the terminal.
type warnWriter struct {
	w io.Writer
}

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

func (ww *warnWriter) Write(p []byte) (int, error) {
	line := string(p)
	switch {
	case strings.Contains(line, "level=warning"):
		_, err := warnColor.Fprint(ww.w, line)
		return len(p), err
	case strings.Contains(line, "level=error"), strings.Contains(line, "level=fatal"):
		_, err := errorColor.Fprint(ww.w, line)
		return len(p), err
	}
	return ww.w.Write(p)
}
