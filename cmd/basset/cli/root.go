// Package cli implements the basset command-line interface using Cobra.
// basset observes a build command under ptrace and records every compiler
// invocation into a JSON compilation database.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/i-ky/basset/internal/compiledb"
	"github.com/i-ky/basset/internal/config"
	"github.com/i-ky/basset/internal/log"
	"github.com/i-ky/basset/internal/trace"
)

var (
	verbose     bool
	verboseSeen bool
	jsonOut     bool
	output      string
)

var rootCmd = &cobra.Command{
	Use:   "basset [flags] -- command [args...]",
	Short: "Record a compilation database while a build runs",
	Long: `Basset runs the build command under kernel process tracing, follows
every descendant across fork/clone/exec, and records each C-family compiler
invocation it observes into a compilation database (compile_commands.json).

The build's exit status is mirrored: basset exits with the build's exit code,
or dies by the same signal that killed the build.`,
	SilenceUsage: true,
	RunE:         runBuild,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.Var(newToggle(&verbose, &verboseSeen, true), "verbose", "enable diagnostic messages on stderr")
	f.Lookup("verbose").NoOptDefVal = "true"
	f.Var(newToggle(&verbose, &verboseSeen, false), "no-verbose", "disable diagnostic messages on stderr")
	f.Lookup("no-verbose").NoOptDefVal = "true"
	f.StringVar(&output, "output", "compile_commands.json", "compilation database path")
	f.BoolVar(&jsonOut, "json", false, "emit diagnostics in JSON format")
}

// buildCommand extracts the build command from the positional arguments.
// Everything after "--" is the command; positionals before it are a usage
// error, and the separator itself is mandatory.
func buildCommand(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return nil, errors.New(`missing "--" separator before the build command`)
	}
	if dash > 0 {
		return nil, fmt.Errorf("unsupported argument: %s", args[0])
	}
	if len(args) == 0 {
		return nil, errors.New("unexpected end of arguments: no build command")
	}
	return args, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	command, err := buildCommand(cmd, args)
	if err != nil {
		_ = cmd.Usage()
		return err
	}

	cfg := config.LoadGlobal()
	if !cmd.Flags().Changed("output") && cfg.Output != "" {
		output = cfg.Output
	}
	if !verboseSeen {
		verbose = cfg.Verbose
	}
	if !cmd.Flags().Changed("json") {
		// Structured diagnostics when stderr is redirected.
		jsonOut = !isatty.IsTerminal(os.Stderr.Fd())
	}
	log.Init(log.Options{Verbose: verbose, JSONFormat: jsonOut})

	matcher, err := compiledb.NewMatcher(cfg.Compilers.ExtraPatterns...)
	if err != nil {
		return err
	}
	recogniser := compiledb.NewRecogniser(cfg.Sources.ExtraExtensions...)

	db := compiledb.New(recogniser.IsSource)
	if err := db.Load(output); err != nil {
		return err
	}

	tracer, err := trace.New(trace.Config{
		Command:    command,
		IsCompiler: matcher.Match,
		OnCompile: func(ev trace.ExecEvent) {
			n := db.Add(ev.WorkingDir, ev.Argv)
			slog.Debug("captured compilation",
				"pid", ev.PID, "exe", ev.Executable, "entries", n)
		},
	})
	if err != nil {
		return err
	}

	status, err := tracer.Run()
	if err != nil {
		return err
	}

	// The database must be durable before the exit status is mirrored.
	if err := db.Save(output); err != nil {
		return err
	}

	exitWith(status)
	return nil
}

// exitWith mirrors the build root's termination. A normal exit becomes our
// exit code; a fatal signal is re-raised against ourselves with its default
// disposition restored, so the caller observes the same death.
func exitWith(status trace.Status) {
	if status.Signaled() {
		signal.Reset(status.Signal)
		if err := unix.Kill(unix.Getpid(), status.Signal); err != nil {
			slog.Error("cannot re-raise signal", "signal", status.Signal, "error", err)
			os.Exit(1)
		}
		// Delivery is asynchronous in a multithreaded process.
		time.Sleep(100 * time.Millisecond)
		// The signal terminated the child but did not kill us.
		os.Exit(1)
	}
	os.Exit(status.Code)
}
