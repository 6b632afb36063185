// Package fsutil provides file system utility functions for staging run directories.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether path exists. Errors other than fs.ErrNotExist are
// returned to the caller.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// CopyFile copies the contents and permission bits of src to dst,
// replacing dst if it exists. Symlinks are followed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("copy %s: %w", src, errIsDir)
	}

	perm := info.Mode().Perm()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	// OpenFile applies the umask; match the source mode exactly.
	return os.Chmod(dst, perm)
}

var errIsDir = errors.New("is a directory")

// CopyTree recursively copies the directory src to dst. dst must not exist;
// its parent must. Symlinks inside src are followed and their targets copied.
// It returns an error wrapping fs.ErrExist if dst already exists.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "copytree", Path: src, Err: errors.New("not a directory")}
	}

	// Owner write is kept so the tree can be populated.
	if err := os.Mkdir(dst, info.Mode().Perm()|0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(from)
			if err != nil {
				return err
			}
			isDir = target.IsDir()
		}

		if isDir {
			if err := CopyTree(from, to); err != nil {
				return err
			}
			continue
		}
		if err := CopyFile(from, to); err != nil {
			return err
		}
	}
	return nil
}
