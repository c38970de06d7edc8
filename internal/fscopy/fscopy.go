// Package fscopy implements the recursive, attribute-preserving copy the
// Placer uses to move a torrent's files into its category destination or
// into the seed directory.
package fscopy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Copy copies src to dst, overwriting dst if it already exists. If src is
// a directory the whole tree is copied; if src is a file and dst is an
// existing directory (or vice versa) it is an error.
//
// On Linux the copy is attempted via "cp --reflink=auto" so that copies
// within the same filesystem are instant CoW clones; any failure (missing
// cp, cross-device reflink refusal, or one of the rare cp errors) falls
// back to a plain Go walk-and-copy. Re-running Copy on a destination that
// already holds a partial earlier placement overwrites in place, giving
// the idempotent retry spec.md requires.
func Copy(src, dst string) error {
	if err := reflinkCopy(src, dst); err == nil {
		return nil
	} else {
		log.Debug().Err(err).Str("src", src).Str("dst", dst).Msg("reflink copy unavailable, falling back")
	}
	return fallbackCopy(src, dst)
}

func reflinkCopy(src, dst string) error {
	cmd := exec.Command("cp", "-d", "-f", "-R", "--reflink=auto", "-T", "--", src, dst)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("fscopy: cp: %w: %s", err, out)
	}
	return nil
}

func fallbackCopy(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("fscopy: stat %q: %w", src, err)
	}
	if info.IsDir() {
		return copyTree(src, dst, info)
	}
	return copyFile(src, dst, info)
}

func copyTree(src, dst string, srcInfo os.FileInfo) error {
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("fscopy: mkdir %q: %w", dst, err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("fscopy: read dir %q: %w", src, err)
	}
	for _, entry := range entries {
		childSrc := src + "/" + entry.Name()
		childDst := dst + "/" + entry.Name()
		info, err := os.Lstat(childSrc)
		if err != nil {
			return fmt.Errorf("fscopy: stat %q: %w", childSrc, err)
		}
		if info.IsDir() {
			if err := copyTree(childSrc, childDst, info); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(childSrc, childDst, info); err != nil {
			return err
		}
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}

func copyFile(src, dst string, srcInfo os.FileInfo) error {
	if srcInfo.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("fscopy: readlink %q: %w", src, err)
		}
		os.Remove(dst)
		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fscopy: open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("fscopy: create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := copyBuffered(out, in); err != nil {
		return fmt.Errorf("fscopy: copy %q -> %q: %w", src, dst, err)
	}
	return os.Chmod(dst, srcInfo.Mode().Perm())
}

func copyBuffered(dst *os.File, src *os.File) (int64, error) {
	buf := make([]byte, 1<<20)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, werr
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return total, nil
			}
			return total, rerr
		}
	}
}
