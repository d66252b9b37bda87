package ebook

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// maxEntrySize bounds the decompressed size of a single archive entry.
// Guards against zip bombs; well above any legitimate EPUB resource.
const maxEntrySize int64 = 256 * 1024 * 1024

// Index is a read-only view of one ebook archive. Entry paths are exposed in
// the archive's listing order, which the resolver's case-insensitive pass
// depends on.
type Index struct {
	reader  *zip.Reader
	entries []string
	byPath  map[string]*zip.File
}

// NewIndex parses data as a zip container.
func NewIndex(data []byte) (*Index, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "index", "parse zip container", err)
	}

	idx := &Index{
		reader:  reader,
		entries: make([]string, 0, len(reader.File)),
		byPath:  make(map[string]*zip.File, len(reader.File)),
	}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		idx.entries = append(idx.entries, file.Name)
		if _, ok := idx.byPath[file.Name]; !ok {
			idx.byPath[file.Name] = file
		}
	}
	return idx, nil
}

// Entries returns the archive's file paths in listing order.
func (idx *Index) Entries() []string {
	return idx.entries
}

// Has reports whether path exists in the archive exactly as given.
func (idx *Index) Has(path string) bool {
	_, ok := idx.byPath[path]
	return ok
}

// Read returns the decompressed contents of the entry at path, which must be
// an exact entry name (use the resolver for tolerant lookup).
func (idx *Index) Read(path string) ([]byte, error) {
	file, ok := idx.byPath[path]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "ebook", "read", fmt.Sprintf("no entry %q", path), nil)
	}
	if file.UncompressedSize64 > uint64(maxEntrySize) {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "read",
			fmt.Sprintf("entry %q declares %d bytes", path, file.UncompressedSize64), nil)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "read", fmt.Sprintf("open entry %q", path), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "read", fmt.Sprintf("decompress entry %q", path), err)
	}
	if int64(len(data)) > maxEntrySize {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "read",
			fmt.Sprintf("entry %q exceeds decompression limit", path), nil)
	}
	return data, nil
}
