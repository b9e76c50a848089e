// Package filesink appends formatted report records to a local file.
package filesink

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/opsgate/errship"
)

// Config captures the target of the file sink.
type Config struct {
	Path string
	// NoCreate fails delivery when the file is absent instead of creating
	// it.
	NoCreate bool
	// Mode is the permission for a created file. Zero means 0644.
	Mode os.FileMode
}

// Sink appends one record per delivered report. Concurrent deliveries to the
// same Sink are serialised so records never interleave.
type Sink struct {
	path string
	flag int
	mode os.FileMode

	mu sync.Mutex
}

// New validates the config and builds the sink. The file itself is only
// touched at delivery time.
func New(cfg Config) (*Sink, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("file path is required")
	}

	flag := os.O_WRONLY | os.O_APPEND
	if !cfg.NoCreate {
		flag |= os.O_CREATE
	}

	mode := cfg.Mode
	if mode == 0 {
		mode = 0o644
	}

	return &Sink{path: path, flag: flag, mode: mode}, nil
}

// Name identifies the sink in outcomes and logs.
func (s *Sink) Name() string { return "file:" + s.path }

// Kind reports the formatting this sink expects.
func (s *Sink) Kind() errship.Kind { return errship.KindFile }

// Deliver appends the record, syncing before release. The handle is closed on
// every exit path, error paths included.
func (s *Sink) Deliver(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, s.flag, s.mode)
	if err != nil {
		return &errship.IOError{Err: err}
	}

	_, writeErr := f.WriteString(message)
	syncErr := f.Sync()
	closeErr := f.Close()

	if err := errors.Join(writeErr, syncErr, closeErr); err != nil {
		return &errship.IOError{Err: err}
	}
	return nil
}
