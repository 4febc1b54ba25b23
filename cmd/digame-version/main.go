package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"digame/firmware/config"
	"digame/firmware/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by bad arguments rather than bad input files.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("digame-version", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	envFile := fs.String("env-file", ".env", "Load settings from this .env file if it exists")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (or DIGAME_LOG_LEVEL)")
	logFormat := fs.String("log-format", "", "Log format: text, logfmt, json (or DIGAME_LOG_FORMAT)")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	// Load .env before reading any configuration
	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if *logLevel == "" {
		*logLevel = config.LogLevel()
	}
	if *logFormat == "" {
		*logFormat = config.LogFormat()
	}
	h, err := logging.CreateHandler(stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	logger := slog.New(h)

	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return exitUsage
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	logger.Debug("cli:command", slog.String("cmd", cmd), slog.Any("args", rest))

	switch cmd {
	case "show":
		err = runShow(rest, stdout)
	case "version":
		err = runVersion(rest, stdout)
	case "terse":
		err = runTerse(rest, stdout)
	case "check":
		err = runCheck(rest, stdout, logger)
	case "gen":
		err = runGen(rest, stdout, logger)
	case "history":
		err = runHistory(rest, stdout)
	case "help":
		printUsage(stdout, fs)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printUsage(stderr, fs)
		return exitUsage
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.As(err, new(usageError)):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "digame-version - firmware build identity tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  digame-version [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  show [-o text|json|yaml]        Show the version this tool was built from")
	fmt.Fprintln(w, "  version                         Same as 'show -o text'")
	fmt.Fprintln(w, "  terse <version>...              Derive the terse tag, e.g. 0.9.90 -> 0990")
	fmt.Fprintln(w, "  check [--release] [header]      Validate SW_VERSION, TERSE_SW_VERSION and changelog")
	fmt.Fprintln(w, "  gen [-o file] [--from header] [--note text]")
	fmt.Fprintln(w, "                                  Generate the header from the embedded version")
	fmt.Fprintln(w, "  history [header]                List changelog entries")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  %-22s header path (default %s)\n", config.EnvHeaderPath, config.DefaultHeaderPath)
	fmt.Fprintf(w, "  %-22s include guard (default %s)\n", config.EnvHeaderGuard, config.DefaultHeaderGuard)
	fmt.Fprintf(w, "  %-22s log level (default %s)\n", config.EnvLogLevel, config.DefaultLogLevel)
	fmt.Fprintf(w, "  %-22s log format (default %s)\n", config.EnvLogFormat, config.DefaultLogFormat)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  digame-version terse 0.9.90")
	fmt.Fprintln(w, "  digame-version check --release src/digameVersion.h")
	fmt.Fprintln(w, "  digame-version gen --note \"Limit web UI to AP mode\" -o src/digameVersion.h")
}
