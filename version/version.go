// Package version holds the firmware build identity.
//
// The release version is written down exactly once, in version.text. The
// terse build tag shown on the device and in reports is always derived from
// it, never stored alongside.
package version

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
)

// Build information (injected via ldflags - must NOT have default values)
var (
	GitSHA    string
	BuildDate string
)

// Release version, e.g. "0.9.90". Bump this file to cut a release.
//
//go:embed version.text
var release string

// ErrInvalid is returned when a string is not a MAJOR.MINOR.PATCH version.
var ErrInvalid = errors.New("invalid version")

// current is parsed once at startup. A binary without a valid identity
// must not run, so a bad version.text panics here.
var current = MustParse(strings.TrimSpace(release))

// Info is a parsed dotted version.
type Info struct {
	v semver.Version
}

// Parse parses a dotted version of exactly three non-negative decimal
// components. Leading zeros, pre-release and build suffixes are rejected.
func Parse(s string) (Info, error) {
	if s == "" {
		return Info{}, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	if strings.Count(s, ".") != 2 {
		return Info{}, fmt.Errorf("%w: %q: want MAJOR.MINOR.PATCH", ErrInvalid, s)
	}
	v, err := semver.Parse(s)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	if len(v.Pre) > 0 || len(v.Build) > 0 {
		return Info{}, fmt.Errorf("%w: %q: suffixes are not allowed", ErrInvalid, s)
	}
	return Info{v: v}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Info {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

// TerseOf derives the terse build tag from a dotted version.
func TerseOf(dotted string) (string, error) {
	i, err := Parse(dotted)
	if err != nil {
		return "", err
	}
	return i.Terse(), nil
}

// Dotted returns the human-readable form, e.g. "0.9.90".
func (i Info) Dotted() string {
	return i.v.String()
}

// Terse returns the components concatenated without separators or
// padding: "0.9.90" becomes "0990". Distinct versions can share a terse
// tag (1.11.1 and 11.1.1), so it is for display only.
func (i Info) Terse() string {
	b := make([]byte, 0, 8)
	b = strconv.AppendUint(b, i.v.Major, 10)
	b = strconv.AppendUint(b, i.v.Minor, 10)
	b = strconv.AppendUint(b, i.v.Patch, 10)
	return string(b)
}

func (i Info) String() string {
	return i.Dotted()
}

// Compare returns -1, 0 or 1 comparing components numerically.
func (i Info) Compare(o Info) int {
	return i.v.Compare(o.v)
}

// LogValue implements slog.LogValuer.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("version", i.Dotted()),
		slog.String("terse", i.Terse()),
	)
}

// Current returns the release this binary was built from.
func Current() Info {
	return current
}

// Dotted returns the dotted release version of this build.
func Dotted() string {
	return current.Dotted()
}

// Terse returns the terse build tag of this build.
func Terse() string {
	return current.Terse()
}

// Build is a snapshot of the build identity for reporting.
type Build struct {
	Version   string `json:"version" yaml:"version"`
	Terse     string `json:"terse" yaml:"terse"`
	GitSHA    string `json:"git_sha,omitempty" yaml:"git_sha,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
}

// Snapshot returns the identity of the running build.
func Snapshot() Build {
	return Build{
		Version:   current.Dotted(),
		Terse:     current.Terse(),
		GitSHA:    GitSHA,
		BuildDate: BuildDate,
	}
}

// ShortSHA returns the first 7 characters of GitSHA
func ShortSHA() string {
	if len(GitSHA) >= 7 {
		return GitSHA[:7]
	}
	return GitSHA
}
