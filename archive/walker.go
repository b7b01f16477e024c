// Package archive builds Walk abstraction on top of "archive/zip" for
// archives held in memory.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmpty is returned by Open when there is nothing to open.
var ErrEmpty = errors.New("empty archive data")

// Entry is a single file from the archive with its name and content. Content
// is always UTF-8 when source had a byte order mark.
type Entry struct {
	Name string
	Data []byte
}

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The name argument is the entry name after code page
// conversion, file is the zip.File structure for the entry. If an error is
// returned, processing stops.
type WalkFunc func(name string, file *zip.File) error

// MatchFunc decides if entry with a given name should be visited.
type MatchFunc func(name string) bool

// Options control how entries are selected and named.
type Options struct {
	// Extension entries must end with, compared case-insensitively. Empty
	// means all files.
	Extension string
	// CodePage is used to decode names not marked as UTF-8 in archive.
	CodePage encoding.Encoding
}

// Open opens zip container from memory.
func Open(data []byte) (*zip.Reader, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

// Walk walks all files in the archive which satisfy match condition, calling
// walkFn for each item in container order. Directories and entries with path
// traversal components ("..") or absolute paths are silently skipped.
func Walk(r *zip.Reader, cp encoding.Encoding, match MatchFunc, walkFn WalkFunc) error {
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := entryName(f, cp)
		if !isSafePath(name) {
			continue
		}
		if match != nil && !match(name) {
			continue
		}
		if err := walkFn(name, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadEntries opens archive and returns content of all selected entries in
// container order.
func ReadEntries(data []byte, opts Options) ([]Entry, error) {
	r, err := Open(data)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(opts.Extension)
	match := func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), ext)
	}

	var entries []Entry
	err = Walk(r, opts.CodePage, match, func(name string, f *zip.File) error {
		content, err := readFile(f)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Data: content})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return toUTF8(raw), nil
}

// toUTF8 strips UTF-8 BOM and transcodes UTF-16 content marked with BOM.
// Anything else is passed through untouched, XML decoder handles declared
// encodings by itself.
func toUTF8(raw []byte) []byte {
	if !hasBOM(raw) {
		return raw
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), raw)
	if err != nil {
		return raw
	}
	return out
}

func hasBOM(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(raw, []byte{0xFF, 0xFE})
}

// entryName returns name of the entry, forcing code page for names zip does
// not mark as UTF-8.
func entryName(f *zip.File, cp encoding.Encoding) string {
	name := f.FileHeader.Name
	if cp == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	if n, err := cp.NewDecoder().String(name); err == nil {
		return n
	}
	return name
}

// isSafePath returns false for absolute paths and those containing ".."
// components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
