// Package fs implements the filesystem-backed parts of docpkg: the local
// source adapter, the install ledger file, and the index file.
package fs

import (
	"io"
	"os"
	"path/filepath"
)

// CopyDir copies the regular files below src into dst, creating dst and
// parent directories as needed. A dst nested inside src is skipped so a
// project can install itself.
func CopyDir(src, dst string) error {
	absDst, _ := filepath.Abs(dst)
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs, _ := filepath.Abs(path); d.IsDir() && abs == absDst {
			return filepath.SkipDir
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return CopyFile(path, filepath.Join(dst, rel))
	})
}

// CopyFile copies a single regular file, creating parent directories and
// keeping the source permission bits.
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
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// EmptyDir removes dir and everything below it, then recreates it empty.
func EmptyDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
