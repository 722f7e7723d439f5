package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotMapping indicates a configuration file whose top-level document is
	// a scalar or a sequence.
	ErrNotMapping = errors.New("top-level document is not a mapping")
)

// FileError reports a failure to read or parse one cascade file.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
