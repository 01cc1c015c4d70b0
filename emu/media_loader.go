package emu

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zip"
	"github.com/nwaples/rardecode/v2"
	"github.com/spf13/afero"
)

// archiveVisitor receives every regular file of an archive.
type archiveVisitor func(name string, r io.Reader) error

// walkArchive calls fn for each file in a zip, 7z or rar archive.
func walkArchive(ext string, ra io.ReaderAt, size int64, fn archiveVisitor) error {
	switch ext {
	case ".zip":
		zr, err := zip.NewReader(ra, size)
		if err != nil {
			return fmt.Errorf("zip: %w", err)
		}
		for _, f := range zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			if err := visitEntry(f.Name, f.Open, fn); err != nil {
				return err
			}
		}
	case ".7z":
		zr, err := sevenzip.NewReader(ra, size)
		if err != nil {
			return fmt.Errorf("7z: %w", err)
		}
		for _, f := range zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			if err := visitEntry(f.Name, f.Open, fn); err != nil {
				return err
			}
		}
	case ".rar":
		rr, err := rardecode.NewReader(io.NewSectionReader(ra, 0, size))
		if err != nil {
			return fmt.Errorf("rar: %w", err)
		}
		for {
			h, err := rr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("rar: %w", err)
			}
			if h.IsDir {
				continue
			}
			if err := fn(h.Name, rr); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("archive %s: %w", ext, ErrUnsupportedFormat)
	}
	return nil
}

func visitEntry(name string, open func() (io.ReadCloser, error), fn archiveVisitor) error {
	rc, err := open()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer rc.Close()
	return fn(name, rc)
}

// entryPath turns an archive member name into a relative path that cannot
// leave the extraction directory.
func entryPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// extractInto writes every file of the archive into dst and returns the
// member to load: the shallowest CUE sheet, else the first ROM image.
func extractInto(dst afero.Fs, ext string, ra io.ReaderAt, size int64) (string, error) {
	var names []string
	err := walkArchive(ext, ra, size, func(name string, r io.Reader) error {
		p := entryPath(name)
		if p == "" {
			return nil
		}
		if err := afero.WriteReader(dst, p, r); err != nil {
			return fmt.Errorf("extract %s: %w", p, err)
		}
		names = append(names, p)
		return nil
	})
	if err != nil {
		return "", err
	}
	return pickArchiveMember(names)
}

func pickArchiveMember(names []string) (string, error) {
	sort.SliceStable(names, func(i, j int) bool {
		return strings.Count(names[i], "/") < strings.Count(names[j], "/")
	})
	for _, n := range names {
		if strings.EqualFold(filepath.Ext(n), ".cue") {
			return n, nil
		}
	}
	for _, n := range names {
		if kind, ok := mediaExtensions[strings.ToLower(filepath.Ext(n))]; ok && kind != MediaCD {
			return n, nil
		}
	}
	return "", fmt.Errorf("archive has no loadable media: %w", ErrUnsupportedFormat)
}

// extractArchive unpacks an archive from fs into a temporary directory on
// the same file system. The returned cleanup removes the directory.
func extractArchive(fs afero.Fs, name string) (afero.Fs, string, func(), error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", name, ErrInvalidPath)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", name, err)
	}
	if st.Size() == 0 {
		return nil, "", nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	dir, err := afero.TempDir(fs, "", "empce-")
	if err != nil {
		return nil, "", nil, fmt.Errorf("temp dir: %w", err)
	}
	cleanup := func() { fs.RemoveAll(dir) }
	dst := afero.NewBasePathFs(fs, dir)
	member, err := extractInto(dst, strings.ToLower(filepath.Ext(name)), f, st.Size())
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return dst, member, cleanup, nil
}

// extractArchiveBytes unpacks an in-memory archive into a memory file
// system.
func extractArchiveBytes(name string, data []byte) (afero.Fs, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	dst := afero.NewMemMapFs()
	member, err := extractInto(dst, strings.ToLower(filepath.Ext(name)), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", err
	}
	return dst, member, nil
}
