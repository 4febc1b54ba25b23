// Package header reads, checks and writes digameVersion.h, the version
// header compiled into the C side of the firmware.
//
// The header carries the dotted version, the terse tag and a changelog in a
// block comment. Only the dotted version is authoritative; Generate derives
// everything else so the two strings can no longer drift apart.
package header

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/hashicorp/go-multierror"

	"digame/firmware/version"
)

// DefaultGuard is the include guard used by the firmware sources.
const DefaultGuard = "__DIGAME_VERSION_H__"

// Names of the two string constants in the header.
const (
	NameVersion = "SW_VERSION"
	NameTerse   = "TERSE_SW_VERSION"
)

var (
	// ErrNoVersion is returned by Parse when SW_VERSION is not declared.
	ErrNoVersion = errors.New("SW_VERSION not declared")
	// ErrTerseMismatch reports a TERSE_SW_VERSION not derived from SW_VERSION.
	ErrTerseMismatch = errors.New("terse version out of sync")
	// ErrChangelog reports an invalid or out-of-order changelog entry.
	ErrChangelog = errors.New("changelog")
)

var (
	guardRe = regexp.MustCompile(`^\s*#ifndef\s+(\w+)`)
	constRe = regexp.MustCompile(`^\s*(?:const\s+\w+\s+(\w+)\s*=|#define\s+(\w+))\s*"([^"]*)"`)
	entryRe = regexp.MustCompile(`^(\d+\.[0-9A-Za-z.+-]*)(?:\s+-\s*(.*))?$`)
)

// Entry is one changelog line: "0.9.88 - Updates to support ...".
type Entry struct {
	Version string
	Note    string
}

// File is the content of a version header.
type File struct {
	Guard     string
	Version   string
	Terse     string
	Changelog []Entry
}

// Parse extracts the guard, both version strings and the changelog.
// Values are returned as written; use Check to validate them.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	haveVersion := false
	inComment := false
	last := -1 // entry that takes continuation lines

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()

		// A line can hold code and comments in any order, e.g.
		// `const String SW_VERSION = "0.9.90"; /* release */`.
		for {
			if inComment {
				idx := strings.Index(line, "*/")
				if idx < 0 {
					last = f.commentLine(line, last)
					break
				}
				f.commentLine(line[:idx], last)
				last = -1
				inComment = false
				line = line[idx+2:]
				continue
			}

			idx := strings.Index(line, "/*")
			if idx < 0 {
				haveVersion = f.codeLine(line) || haveVersion
				break
			}
			haveVersion = f.codeLine(line[:idx]) || haveVersion
			inComment = true
			line = line[idx+2:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !haveVersion {
		return nil, ErrNoVersion
	}
	return f, nil
}

// codeLine picks the guard and version constants out of code outside
// comments. It reports whether SW_VERSION was declared.
func (f *File) codeLine(code string) bool {
	if f.Guard == "" {
		if m := guardRe.FindStringSubmatch(code); m != nil {
			f.Guard = m[1]
			return false
		}
	}

	m := constRe.FindStringSubmatch(code)
	if m == nil {
		return false
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	switch name {
	case NameVersion:
		f.Version = m[3]
		return true
	case NameTerse:
		f.Terse = m[3]
	}
	return false
}

// commentLine handles one line of block comment text and returns the index
// of the entry that should receive continuation text, or -1.
func (f *File) commentLine(body string, last int) int {
	text := strings.TrimSpace(body)
	text = strings.TrimSpace(strings.TrimPrefix(text, "*"))
	if text == "" {
		return -1
	}
	if m := entryRe.FindStringSubmatch(text); m != nil {
		f.Changelog = append(f.Changelog, Entry{Version: m[1], Note: strings.TrimSpace(m[2])})
		return len(f.Changelog) - 1
	}
	if last >= 0 {
		e := &f.Changelog[last]
		if e.Note == "" {
			e.Note = text
		} else {
			e.Note += " " + text
		}
	}
	return last
}

// Check reports every problem in f at once. The returned error is a
// *multierror.Error whose entries wrap ErrTerseMismatch, ErrChangelog or
// version.ErrInvalid.
func Check(f *File) error {
	var merr *multierror.Error

	release, err := version.Parse(f.Version)
	releaseOK := err == nil
	if err != nil {
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", NameVersion, err))
	} else if want := release.Terse(); f.Terse != want {
		if f.Terse == "" {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s missing, want %q",
				ErrTerseMismatch, NameTerse, want))
		} else {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s is %q but %s %s derives %q",
				ErrTerseMismatch, NameTerse, f.Terse, NameVersion, release, want))
		}
	}

	var prev version.Info
	havePrev := false
	for _, e := range f.Changelog {
		v, err := version.Parse(e.Version)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%w: entry %w", ErrChangelog, err))
			continue
		}
		if havePrev && v.Compare(prev) < 0 {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s listed after %s", ErrChangelog, v, prev))
		}
		if releaseOK && v.Compare(release) > 0 {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s is newer than %s %s",
				ErrChangelog, v, NameVersion, release))
		}
		prev, havePrev = v, true
	}

	return merr.ErrorOrNil()
}

// Generate builds a consistent header for release v.
func Generate(v version.Info, changelog []Entry) *File {
	return &File{
		Guard:     DefaultGuard,
		Version:   v.Dotted(),
		Terse:     v.Terse(),
		Changelog: slices.Clone(changelog),
	}
}

// Record adds a changelog note for v. Entries must not go backwards. A
// note for the version already at the end of the changelog fills in an
// empty note; a different existing note is an error.
func (f *File) Record(v version.Info, note string) error {
	note = strings.TrimSpace(note)
	if err := checkNote(note); err != nil {
		return err
	}

	if n := len(f.Changelog); n > 0 {
		last := &f.Changelog[n-1]
		if lv, err := version.Parse(last.Version); err == nil {
			switch c := v.Compare(lv); {
			case c < 0:
				return fmt.Errorf("%w: %s is older than last entry %s", ErrChangelog, v, lv)
			case c == 0:
				if note == "" || note == last.Note {
					return nil
				}
				if last.Note != "" {
					return fmt.Errorf("%w: %s already recorded as %q", ErrChangelog, v, last.Note)
				}
				last.Note = note
				return nil
			}
		}
	}

	f.Changelog = append(f.Changelog, Entry{Version: v.Dotted(), Note: note})
	return nil
}

func checkNote(note string) error {
	if strings.ContainsAny(note, "\r\n") || strings.Contains(note, "*/") {
		return fmt.Errorf("%w: note %q must be a single line without \"*/\"", ErrChangelog, note)
	}
	return nil
}

var tmpl = template.Must(template.New("header").Parse(`#ifndef {{.Guard}}
#define {{.Guard}}

const String SW_VERSION       = "{{.Version}}";
const String TERSE_SW_VERSION = "{{.Terse}}";

/*
{{- range .Changelog}}
 * {{.Version}}{{with .Note}} - {{.}}{{end}}
{{- end}}
 *
 */

#endif
`))

// Render writes f in the firmware's header layout.
func Render(w io.Writer, f *File) error {
	data := *f
	if data.Guard == "" {
		data.Guard = DefaultGuard
	}
	for _, e := range data.Changelog {
		if err := checkNote(e.Note); err != nil {
			return err
		}
	}
	return tmpl.Execute(w, &data)
}
