package patch

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
)

var errIsDir = errors.New("is a directory")

// Sink persists the patched buffer back to the artifact's path.
type Sink struct {
	// Atomic writes to a temporary file in the same directory and renames
	// it over the artifact, so a crash leaves either the old or the new
	// content on disk.
	Atomic bool
}

// Write encodes text like src was loaded and overwrites src.Path. It
// returns false without touching the file when the text or the encoded
// bytes equal what was loaded. Failures are returned as *PersistError.
func (k Sink) Write(src *Source, text string) (bool, error) {
	if text == src.Text {
		return false, nil
	}
	data, err := src.Encode(text)
	if err != nil {
		return false, &PersistError{Path: src.Path, Err: err}
	}
	if bytes.Equal(data, src.raw) {
		return false, nil
	}

	if k.Atomic {
		err = writeAtomic(src.Path, data, src.mode)
	} else {
		err = os.WriteFile(src.Path, data, src.mode)
	}
	if err != nil {
		return false, &PersistError{Path: src.Path, Err: err}
	}
	return true, nil
}

func writeAtomic(dest string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".leappatch-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// Best effort: persist the rename itself.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
