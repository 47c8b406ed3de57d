package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// FilePersister stores the library as one JSON file.
// Writes go to a temp file in the same directory and are renamed over the
// target, so readers see either the old or the new state. A sibling .lock
// file serializes access between processes sharing the path.
type FilePersister struct {
	path string
	lock *flock.Flock
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the file backing the library.
func (p *FilePersister) Path() string { return p.path }

func (p *FilePersister) Load(ctx context.Context) (State, error) {
	if err := p.ensureDir(); err != nil {
		return State{}, err
	}

	locked, err := p.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return State{}, fmt.Errorf("failed to lock library file: %w", err)
	}
	if !locked {
		return State{}, fmt.Errorf("library file %s is locked", p.path)
	}
	defer func() { _ = p.lock.Unlock() }()

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("failed to read library file: %w", err)
	}

	return Decode(data)
}

func (p *FilePersister) Save(ctx context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := p.ensureDir(); err != nil {
		return err
	}

	locked, err := p.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock library file: %w", err)
	}
	if !locked {
		return fmt.Errorf("library file %s is locked", p.path)
	}
	defer func() { _ = p.lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp library file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write library file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync library file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close library file: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace library file: %w", err)
	}

	return nil
}

func (p *FilePersister) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create library directory: %w", err)
	}
	return nil
}
