// Package fileutil holds the byte-level copy primitives used when a file
// cannot simply be renamed or linked into the library.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// CopyFileVerified streams src to dst, then re-reads dst and compares its
// size and SHA256 with what was read from src. dst is created with src's
// permission bits and must not already exist. dst is removed on any failure.
func CopyFileVerified(src, dst string) error {
	return copyVerified(src, dst, nil)
}

// copyVerified runs beforeVerify, when set, between the write and the
// read-back of dst.
func copyVerified(src, dst string, beforeVerify func(dst string) error) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && beforeVerify != nil {
		err = beforeVerify(dst)
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	dstSum, dstSize, err := digest(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("read back copy: %w", err)
	}
	if dstSize != written || !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch: destination differs from source")
	}
	return nil
}

// SameContent reports whether two files hold byte-identical content.
func SameContent(a, b string) (bool, error) {
	sumA, sizeA, err := digest(a)
	if err != nil {
		return false, err
	}
	sumB, sizeB, err := digest(b)
	if err != nil {
		return false, err
	}
	return sizeA == sizeB && bytes.Equal(sumA, sumB), nil
}

func digest(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), n, nil
}
