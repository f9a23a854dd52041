package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Lock-file tuning for read-modify-write of shared files.
const (
	lockRetryInterval = 25 * time.Millisecond
	lockTimeout       = 10 * time.Second
	lockStaleAfter    = time.Minute
)

// WriteParquet writes rows to path atomically: the data goes to a temporary
// file in the same directory which is synced and then renamed into place.
// Readers never observe a partially written file.
func WriteParquet[T any](path string, rows []T) error {
	return WriteAtomic(path, func(w io.Writer) error {
		writer := parquet.NewGenericWriter[T](w)
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write data to parquet file: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to finalize parquet file: %w", err)
		}
		return nil
	})
}

// ReadParquet reads every row of a parquet file into T.
func ReadParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := parquet.NewGenericReader[T](f)
	defer func() { _ = reader.Close() }()

	out := make([]T, reader.NumRows())
	n, err := reader.Read(out)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out[:n], nil
}

// WriteAtomic streams write into a temporary sibling of path, syncs it and
// renames it into place.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// withFileLock serializes read-modify-write cycles on a shared file across
// processes using an O_EXCL lock file next to it.
func withFileLock(path string, fn func() error) error {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	deadline := time.Now().Add(lockTimeout)
	for {
		lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = lock.Close()
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create lock %s: %w", lockPath, err)
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			_ = os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for lock %s", lockPath)
		}
		time.Sleep(lockRetryInterval)
	}
	defer func() { _ = os.Remove(lockPath) }()
	return fn()
}
