package npm

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/docpkg"
)

// Untar extracts a gzip compressed tarball into dir, stripping the leading
// path component ("package/" in npm tarballs). Entries that would land
// outside dir are rejected. Only directories and regular files are
// materialized.
func Untar(tarball, dir string) error {
	f, err := os.Open(tarball)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return docpkg.Errorf(docpkg.EINVALID, "not a gzip archive: %v", err)
	}
	defer gz.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return docpkg.Errorf(docpkg.EINVALID, "corrupt tar archive: %v", err)
		}

		rel, ok, err := stripComponent(hdr.Name)
		if err != nil {
			return err
		} else if !ok {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return docpkg.Errorf(docpkg.EINVALID, "tar entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

// stripComponent drops the first segment of a tar entry name. Entries with
// nothing below the first segment are skipped.
func stripComponent(name string) (string, bool, error) {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false, docpkg.Errorf(docpkg.EINVALID, "tar entry escapes destination: %s", name)
	}
	_, rest, ok := strings.Cut(clean, "/")
	if !ok || rest == "" {
		return "", false, nil
	}
	return rest, true, nil
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
