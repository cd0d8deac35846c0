// Package rom reads CHIP-8 programs from disk.
package rom

import (
	"os"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/pkg/errors"
)

// ErrUnreadable is matched by every failure to read the rom file.
var ErrUnreadable = errors.New("rom unreadable")

type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return "reading rom " + e.Path + ": " + e.Err.Error()
}

func (e *UnreadableError) Unwrap() error { return e.Err }

func (e *UnreadableError) Is(target error) bool { return target == ErrUnreadable }

// Read returns the raw program bytes stored at path.
// Files that cannot fit above 0x200 are refused with cpu.ErrRomTooLarge.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(&UnreadableError{Path: path, Err: err})
	}
	if len(data) > cpu.MaxRomSize {
		return nil, errors.Wrapf(cpu.ErrRomTooLarge, "%s is %d bytes, can't cross %d", path, len(data), cpu.MaxRomSize)
	}
	return data, nil
}
