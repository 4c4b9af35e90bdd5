// Command assetctl is a terminal front end for the asset API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"asset-tracker/internal/config"
	"asset-tracker/internal/logging"
	"asset-tracker/pkg/assetapi"
	"asset-tracker/pkg/assetstate"
	"asset-tracker/pkg/httpclient"
	"asset-tracker/pkg/toast"
)

// errReported means the command already told the user what went wrong.
var errReported = errors.New("reported")

type runFunc func(ctx context.Context, a *app, args []string) error

type command struct {
	summary string
	define  func(fs *pflag.FlagSet) runFunc
}

var commands = map[string]command{
	"list":       {"list assets", defineList},
	"show":       {"show one asset: show ID", defineShow},
	"create":     {"create an asset", defineCreate},
	"update":     {"update an asset: update ID [fields]", defineUpdate},
	"delete":     {"delete an asset: delete ID", defineDelete},
	"categories": {"list categories in use", defineCategories},
	"statuses":   {"list valid statuses", defineStatuses},
}

type app struct {
	api    assetstate.API
	toasts *toast.Registry
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	fs := pflag.NewFlagSet("assetctl "+args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterClientFlags(fs)
	runCmd := cmd.define(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.LoadClient(fs)
	if err != nil {
		fmt.Fprintln(stderr, "configuration error:", err)
		return 1
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: "console", Writer: stderr})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	hc, err := httpclient.New(cfg.BaseURL,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithBearerToken(cfg.Token),
		httpclient.WithUserAgent("assetctl"),
		httpclient.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, "configuration error:", err)
		return 1
	}

	reg := toast.New(toast.WithLogger(logger))
	defer reg.Close()

	a := &app{
		api:    assetapi.New(hc),
		toasts: reg,
		logger: logger,
		out:    stdout,
		errOut: stderr,
	}
	ok = a.execute(ctx, runCmd, fs.Args())
	a.flushToasts()
	if !ok {
		return 1
	}
	return 0
}

// execute runs one command. Errors and panics become error toasts.
func (a *app) execute(ctx context.Context, fn runFunc, args []string) (ok bool) {
	defer a.toasts.Recover()
	err := fn(ctx, a, args)
	if err != nil && !errors.Is(err, errReported) {
		a.toasts.ShowError(err)
	}
	return err == nil
}

func (a *app) flushToasts() {
	for _, t := range a.toasts.List() {
		fmt.Fprintf(a.errOut, "[%s] %s\n", t.Type, t.Message)
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: assetctl <command> [flags]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-11s %s\n", name, commands[name].summary)
	}
	b.WriteString("\nEvery command accepts --base-url, --timeout, --token and --log-level.\n")
	b.WriteString("ASSET_API_BASE_URL, ASSET_API_TOKEN etc. are read when a flag is not set.\n")
	fmt.Fprint(w, b.String())
}
