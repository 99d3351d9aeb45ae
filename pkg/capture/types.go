package capture

import (
	"context"
	"fmt"
	"strings"
)

// Mode selects how the captured HTML is written to the destination file.
type Mode string

const (
	// ModeOverwrite truncates the destination before writing (default)
	ModeOverwrite Mode = "overwrite"

	// ModeAppend writes after any existing content, creating the file if absent
	ModeAppend Mode = "append"
)

// ParseMode accepts the long names as well as the short "w"/"a" file-mode
// spellings. An empty string yields ModeOverwrite.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "w", "overwrite":
		return ModeOverwrite, nil
	case "a", "append":
		return ModeAppend, nil
	default:
		return "", fmt.Errorf("invalid mode %q (must be 'w', 'a', 'overwrite' or 'append')", s)
	}
}

// String returns the long name of the mode.
func (m Mode) String() string {
	if m == "" {
		return string(ModeOverwrite)
	}
	return string(m)
}

// Request describes a single capture.
type Request struct {
	// URL is handed to the browser as-is; syntax is not validated locally
	URL string

	// FilePath may be relative or absolute. A bare filename targets the current directory.
	FilePath string

	// Mode defaults to ModeOverwrite when empty
	Mode Mode
}

// Result describes a successful capture.
type Result struct {
	URL     string
	Path    string // destination as requested
	AbsPath string // destination as resolved by the filesystem
	Mode    Mode
	Bytes   int
	Created bool // the file did not exist before the write
}

// WriteInfo is reported by a Filesystem after a successful write.
type WriteInfo struct {
	AbsPath string
	Bytes   int
	Created bool
}

// Browser is the browser-control collaborator.
//
// HTML must return the markup of the page most recently loaded by Navigate
// on the same handle. Implementations that also satisfy sync.Locker are
// locked by the Capturer for the whole navigate/extract span.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
}

// Filesystem is the persistence collaborator.
type Filesystem interface {
	// EnsureDir creates dir and any missing ancestors. An existing directory is not an error.
	EnsureDir(ctx context.Context, dir string) error

	// WriteFile writes content to path in a single write using the given mode.
	WriteFile(ctx context.Context, path string, content string, mode Mode) (WriteInfo, error)
}

// State is a step in the capture lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateNavigated
	StateExtracted
	StatePersisted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateNavigated:
		return "navigated"
	case StateExtracted:
		return "extracted"
	case StatePersisted:
		return "persisted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can occur.
func (s State) Terminal() bool {
	return s == StatePersisted || s == StateFailed
}

// Transition is delivered to an Observer each time a capture changes state.
type Transition struct {
	Request Request
	From    State
	To      State
	Err     error // set when To is StateFailed
}

// Observer receives state transitions. It is called synchronously.
type Observer func(Transition)

// Logger is the subset of logging.Logger used by the Capturer.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}
