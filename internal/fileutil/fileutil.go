package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// CopyFileAtomic streams src into a pending file beside dst, checks the
// written bytes against the source digest, and renames the result over dst.
// dst is never observed partially written. Returns the number of bytes copied.
func CopyFileAtomic(src, dst string, mode os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("copy source %q is a directory", src)
	}

	pending, err := renameio.NewPendingFile(dst, renameio.WithPermissions(mode))
	if err != nil {
		return 0, fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(pending, io.TeeReader(in, srcHasher))
	if err != nil {
		return 0, err
	}
	if written != info.Size() {
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}

	if _, err := pending.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind pending file: %w", err)
	}
	dstHasher := sha256.New()
	if _, err := io.Copy(dstHasher, pending); err != nil {
		return 0, fmt.Errorf("read back pending file: %w", err)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return 0, errors.New("copy hash mismatch: file corrupted during copy")
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("replace %q: %w", dst, err)
	}
	return written, nil
}

// SizeOf returns the size of the regular file at path.
func SizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%q is not a regular file", path)
	}
	return info.Size(), nil
}
