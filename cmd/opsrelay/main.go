package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/opsrelay/config"
	"github.com/target/opsrelay/internal/bootstrap"
	"github.com/target/opsrelay/internal/data"
	"github.com/target/opsrelay/internal/domain/model"
	"github.com/target/opsrelay/internal/util"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdin  io.Reader
	Stdout io.Writer
}

// exitStatus carries a workflow status code out of a command.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("finished with status %d", int(e))
}

const defaultMigrationTimeout = 5 * time.Minute

func main() {
	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(model.ExitInternal) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		if err := printUsage(os.Stderr); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(model.ExitInternal) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.IsDev)
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(model.ExitInternal) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
	status := exitCode(cmd.run(cmdCtx, os.Args[2:]), logger, cmdName)
	stop()
	os.Exit(status) //nolint:forbidigo // the workflow status is the process exit status
}

// exitCode maps a command error to the process status.
func exitCode(err error, logger *slog.Logger, cmdName string) int {
	if err == nil {
		return model.ExitOK
	}
	var st exitStatus
	if errors.As(err, &st) {
		return int(st)
	}
	logger.Error("command failed", "command", cmdName, "error", err)
	return model.ExitInternal
}

func commands() map[string]command {
	cmds := map[string]command{
		"handle": {
			name:        "handle",
			description: "Handle one event (JSON on stdin or -event) using OPSRELAY_ACTION",
			run:         invokeAction(""),
		},
		"migrate": {
			name:        "migrate",
			description: "Apply run-history database migrations",
			run:         runMigrations,
		},
		"runs": {
			name:        "runs",
			description: "List recent reconciliation runs",
			run:         runListRuns,
		},
	}
	for _, a := range config.ValidActions() {
		if a == config.ActionAuto {
			continue
		}
		cmds[string(a)] = command{
			name:        string(a),
			description: "Run the " + string(a) + " workflow",
			run:         invokeAction(a),
		}
	}
	return cmds
}

func printUsage(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Usage: opsrelay <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  %-16s %s\n", name, commands()[name].description); err != nil {
			return err
		}
	}
	return nil
}

type invokeOptions struct {
	EventPath string
}

func parseInvokeFlags(name string, args []string) (invokeOptions, error) {
	var opts invokeOptions
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&opts.EventPath, "event", "-", "path to the event JSON, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func readEvent(r io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		if r == nil {
			return nil, nil
		}
		return io.ReadAll(r)
	}
	return os.ReadFile(path)
}

// invokeAction runs one workflow. An empty action uses the configured one.
func invokeAction(action config.Action) commandFn {
	return func(cmdCtx *commandContext, args []string) error {
		opts, err := parseInvokeFlags(string(action), args)
		if err != nil {
			return err
		}
		payload, err := readEvent(cmdCtx.Stdin, opts.EventPath)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if action == "" {
			action = cmdCtx.Config.Action
		}

		app, err := bootstrap.Open(cmdCtx.Ctx, &cmdCtx.Config, cmdCtx.Logger)
		if err != nil {
			return err
		}
		defer app.Close()

		if status := app.Dispatcher.HandleAction(cmdCtx.Ctx, action, payload); status != model.ExitOK {
			return exitStatus(status)
		}
		return nil
	}
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "maximum time to wait for migrations")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.History.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	applied, err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmdCtx.Stdout, "applied %d migration(s)\n", len(applied))
	return err
}

type runsOptions struct {
	Kind   string
	Target string
	Limit  int
}

func parseRunsFlags(args []string) (runsOptions, error) {
	var opts runsOptions
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.StringVar(&opts.Kind, "kind", "", "filter by target kind (deployment-group, instance, domain)")
	fs.StringVar(&opts.Target, "target", "", "filter by target id")
	fs.IntVar(&opts.Limit, "limit", 20, "maximum rows to show")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	switch model.TargetKind(opts.Kind) {
	case "", model.TargetDeploymentGroup, model.TargetInstance, model.TargetDomain:
	default:
		return opts, fmt.Errorf("unknown target kind %q", opts.Kind)
	}
	return opts, nil
}

func runListRuns(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.History.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	runs, err := data.NewRunRepo(db).List(ctx, model.RunListOptions{
		TargetKind: model.TargetKind(opts.Kind),
		TargetID:   opts.Target,
		Limit:      opts.Limit,
	})
	if err != nil {
		return err
	}
	return printRuns(cmdCtx.Stdout, runs)
}

func printRuns(w io.Writer, runs []model.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tTARGET\tOUTCOME\tSTATUS\tPOLLS\tELAPSED\tJOB")
	for _, r := range runs {
		job := r.JobID
		if job == "" {
			job = "-"
		}
		fmt.Fprintf(tw, "%s\t%s:%s\t%s\t%s\t%d\t%s\t%s\n",
			r.FinishedAt.Format(time.RFC3339), r.TargetKind, r.TargetID, r.Kind, r.Status, r.Polls, util.FormatElapsed(r.Elapsed), job)
	}
	return tw.Flush()
}
