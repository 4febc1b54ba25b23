package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"digame/firmware/config"
	"digame/firmware/header"
	"digame/firmware/version"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var errNotRelease = errors.New("header is not the current release")

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError{fmt.Errorf("%s: %w", fs.Name(), err)}
	}
	return nil
}

// headerArg returns the single optional header path argument, falling back
// to the configured header.
func headerArg(fs *pflag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 0:
		return config.HeaderPath(), nil
	case 1:
		return fs.Arg(0), nil
	default:
		return "", usagef("%s: want at most one header path, got %d", fs.Name(), fs.NArg())
	}
}

// readHeader parses the header file at path
func readHeader(path string) (*header.File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := header.Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// runShow prints the identity of the running build
func runShow(args []string, stdout io.Writer) error {
	fs := newFlagSet("show")
	output := fs.StringP("output", "o", formatText, "Output format: text, json, yaml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("show: unexpected argument %q", fs.Arg(0))
	}

	b := version.Snapshot()
	switch *output {
	case formatText:
		fmt.Fprintf(stdout, "Version: %s\n", b.Version)
		fmt.Fprintf(stdout, "Terse:   %s\n", b.Terse)
		if b.GitSHA != "" {
			fmt.Fprintf(stdout, "Git SHA: %s\n", version.ShortSHA())
		}
		if b.BuildDate != "" {
			fmt.Fprintf(stdout, "Built:   %s\n", b.BuildDate)
		}
		return nil
	case formatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case formatYAML:
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	default:
		return usagef("show: unknown output format %q", *output)
	}
}

// runVersion is show with text output and no options
func runVersion(args []string, stdout io.Writer) error {
	fs := newFlagSet("version")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("version: unexpected argument %q", fs.Arg(0))
	}
	return runShow([]string{"--output", formatText}, stdout)
}

// runTerse prints the terse tag for each dotted version argument
func runTerse(args []string, stdout io.Writer) error {
	fs := newFlagSet("terse")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("terse: no version given")
	}
	for _, arg := range fs.Args() {
		terse, err := version.TerseOf(arg)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, terse)
	}
	return nil
}

// runCheck validates a header and prints every problem found
func runCheck(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("check")
	release := fs.Bool("release", false, "Also require SW_VERSION to equal the embedded release version")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	path, err := headerArg(fs)
	if err != nil {
		return err
	}

	f, err := readHeader(path)
	if err != nil {
		return err
	}
	logger.Debug("header:parsed",
		slog.String("path", path),
		slog.String("version", f.Version),
		slog.String("terse", f.Terse),
		slog.Int("entries", len(f.Changelog)),
	)

	var merr *multierror.Error
	if err := header.Check(f); err != nil {
		merr = multierror.Append(merr, err)
	}
	if *release && f.Version != version.Dotted() {
		merr = multierror.Append(merr, fmt.Errorf("%w: %s is %q, release is %q",
			errNotRelease, header.NameVersion, f.Version, version.Dotted()))
	}

	if merr.ErrorOrNil() != nil {
		for _, e := range merr.Errors {
			fmt.Fprintf(stdout, "%s: %v\n", path, e)
		}
		logger.Warn("header:check-failed", slog.String("path", path), slog.Int("problems", len(merr.Errors)))
		return fmt.Errorf("%s: %d problem(s) found", path, len(merr.Errors))
	}

	fmt.Fprintf(stdout, "%s: ok (%s %s, %s %s, %d changelog entries)\n",
		path, header.NameVersion, f.Version, header.NameTerse, f.Terse, len(f.Changelog))
	logger.Info("header:checked", slog.String("path", path), slog.String("version", f.Version))
	return nil
}

// runGen renders a header for the embedded release, keeping the changelog
// of an existing header
func runGen(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("gen")
	output := fs.StringP("output", "o", "-", "Write the header to this file ('-' for stdout)")
	from := fs.String("from", "", "Carry the changelog over from this header (default: configured header if present)")
	note := fs.String("note", "", "Changelog note for the current release")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("gen: unexpected argument %q", fs.Arg(0))
	}

	src := *from
	if src == "" {
		if _, err := os.Stat(config.HeaderPath()); err == nil {
			src = config.HeaderPath()
		}
	}

	release := version.Current()
	var changelog []header.Entry
	if src != "" {
		prev, err := readHeader(src)
		if err != nil {
			return err
		}
		changelog = prev.Changelog
		logger.Debug("gen:changelog-loaded", slog.String("from", src), slog.Int("entries", len(changelog)))
		if prev.Version != release.Dotted() {
			logger.Info("gen:release-bump", slog.String("from", prev.Version), slog.String("to", release.Dotted()))
		}
	}

	f := header.Generate(release, changelog)
	f.Guard = config.HeaderGuard()
	if *note != "" {
		if err := f.Record(release, *note); err != nil {
			return err
		}
	}
	if err := header.Check(f); err != nil {
		return fmt.Errorf("generated header is inconsistent: %w", err)
	}

	if *output == "-" || *output == "" {
		return header.Render(stdout, f)
	}

	var buf bytes.Buffer
	if err := header.Render(&buf, f); err != nil {
		return err
	}
	if err := os.WriteFile(*output, buf.Bytes(), 0644); err != nil {
		return err
	}
	logger.Info("gen:written", slog.String("path", *output), slog.Any("release", release))
	return nil
}

// runHistory lists the changelog: a table on a terminal, tab-separated otherwise
func runHistory(args []string, stdout io.Writer) error {
	fs := newFlagSet("history")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	path, err := headerArg(fs)
	if err != nil {
		return err
	}

	f, err := readHeader(path)
	if err != nil {
		return err
	}

	if !isTerminal(stdout) {
		for _, e := range f.Changelog {
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", e.Version, terseOrDash(e.Version), e.Note)
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.AppendHeader(table.Row{"Version", "Terse", "Note"})
	for _, e := range f.Changelog {
		v := e.Version
		if v == f.Version {
			v = text.FgGreen.Sprint(v)
		}
		t.AppendRow(table.Row{v, terseOrDash(e.Version), e.Note})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d entries, %s %s", len(f.Changelog), header.NameVersion, f.Version)})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// terseOrDash derives the terse tag, or "-" for an invalid changelog version
func terseOrDash(dotted string) string {
	terse, err := version.TerseOf(dotted)
	if err != nil {
		return "-"
	}
	return terse
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
