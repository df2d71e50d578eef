package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"

	"github.com/mt-krainski/chrzaszcz-simple/internal/client"
)

type Options struct {
	URL     string        `long:"url" short:"u" default:"http://localhost:8080" env:"ROVER_URL" description:"Rover controller base URL"`
	Repeat  time.Duration `long:"repeat" default:"200ms" description:"Resend interval for a non-zero drive command"`
	Step    int           `long:"step" default:"100" description:"Joint nudge per up/down key press"`
	Timeout time.Duration `long:"timeout" default:"2s" description:"HTTP request timeout"`
}

func main() {
	var opts Options

	parser := flags.NewParser(&opts, flags.Default)
	parser.LongDescription = "Drive the rover and its arm from the keyboard"

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	if opts.Repeat <= 0 {
		return fmt.Errorf("--repeat must be positive, got %s", opts.Repeat)
	}

	c := client.New(opts.URL, opts.Timeout)
	m := newModel(context.Background(), c, opts.URL, opts.Repeat, opts.Step)

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("run keyboard ui: %w", err)
	}

	if fm, ok := final.(model); ok && fm.stopErr != nil {
		return fmt.Errorf("final stop command failed: %w", fm.stopErr)
	}

	return nil
}
