package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"ptoinfo/internal/platform/config"
)

// Run runs ptoctl against the database configured in the environment.
func Run(ctx context.Context, args []string) error {
	a := &app{
		out:     os.Stdout,
		backend: databaseBackend,
		now:     time.Now,
		noColor: !term.IsTerminal(int(os.Stdout.Fd())),
	}
	if err := a.command().Run(ctx, args); err != nil {
		return goerr.Wrap(err, "ptoctl failed")
	}
	return nil
}

type app struct {
	out     io.Writer
	backend BackendFactory
	now     func() time.Time
	noColor bool
}

func (a *app) command() *cli.Command {
	var (
		logLevel string
		noColor  bool
	)
	return &cli.Command{
		Name:      "ptoctl",
		Usage:     "Show and request paid time off from the terminal",
		Writer:    a.out,
		ErrWriter: a.out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "warn",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Destination: &logLevel,
			},
			&cli.BoolFlag{
				Name:        "no-color",
				Usage:       "Disable colored output",
				Sources:     cli.EnvVars("NO_COLOR"),
				Destination: &noColor,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level := config.Config{LogLevel: logLevel}.SlogLevel()
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			a.noColor = a.noColor || noColor
			return ctx, nil
		},
		Commands: []*cli.Command{
			a.cmdShow(),
			a.cmdStatement(),
			a.cmdRequest(),
		},
	}
}
