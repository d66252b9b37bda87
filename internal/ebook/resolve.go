package ebook

import "strings"

// Resolution classifies the outcome of a path lookup.
type Resolution int

const (
	// ResolutionFound means an archive entry matched and bytes are available.
	ResolutionFound Resolution = iota
	// ResolutionNotFound means no entry matched and the path is not optional.
	ResolutionNotFound
	// ResolutionOptionalMissing means no entry matched but the path belongs
	// to a class of files readers probe for and archives legitimately omit.
	ResolutionOptionalMissing
)

// OptionalStubXML is the body served for optional-missing paths. Apple's
// reader probes for iBooks display-options files and treats an error response
// as fatal for the whole book, so a minimal valid document is returned instead.
const OptionalStubXML = `<?xml version="1.0" encoding="UTF-8"?><display_options/>`

// matcher attempts to map a requested path to an exact archive entry name.
type matcher func(requested string, idx *Index) (string, bool)

// matchers are applied in order with first match winning. The order is a
// compatibility contract with idiosyncratic archive producers: exact lookup,
// leading-slash stripped, leading-slash added, then case-insensitive. Do not
// reorder or merge these.
var matchers = []matcher{
	matchExact,
	matchStrippedSlash,
	matchAddedSlash,
	matchCaseInsensitive,
}

// Resolve maps a requested internal path to archive bytes. When no strategy
// matches, the resolution reports whether the path is a recognized optional
// file class or a genuine miss.
func Resolve(requested string, idx *Index) ([]byte, Resolution, error) {
	for _, match := range matchers {
		entry, ok := match(requested, idx)
		if !ok {
			continue
		}
		data, err := idx.Read(entry)
		if err != nil {
			return nil, ResolutionNotFound, err
		}
		return data, ResolutionFound, nil
	}

	if isOptionalPath(requested) {
		return nil, ResolutionOptionalMissing, nil
	}
	return nil, ResolutionNotFound, nil
}

func matchExact(requested string, idx *Index) (string, bool) {
	if idx.Has(requested) {
		return requested, true
	}
	return "", false
}

func matchStrippedSlash(requested string, idx *Index) (string, bool) {
	stripped := strings.TrimPrefix(requested, "/")
	if stripped != requested && idx.Has(stripped) {
		return stripped, true
	}
	return "", false
}

func matchAddedSlash(requested string, idx *Index) (string, bool) {
	if strings.HasPrefix(requested, "/") {
		return "", false
	}
	prefixed := "/" + requested
	if idx.Has(prefixed) {
		return prefixed, true
	}
	return "", false
}

// matchCaseInsensitive compares every entry, in listing order, against the
// three candidate spellings of the requested path. The first listed entry
// that matches any candidate wins.
func matchCaseInsensitive(requested string, idx *Index) (string, bool) {
	candidates := map[string]struct{}{
		strings.ToLower(requested):                          {},
		strings.ToLower(strings.TrimPrefix(requested, "/")): {},
	}
	if !strings.HasPrefix(requested, "/") {
		candidates[strings.ToLower("/"+requested)] = struct{}{}
	}

	for _, entry := range idx.Entries() {
		if _, ok := candidates[strings.ToLower(entry)]; ok {
			return entry, true
		}
	}
	return "", false
}

// isOptionalPath recognizes Apple-specific metadata files that some archives
// legitimately omit.
func isOptionalPath(requested string) bool {
	return strings.Contains(requested, "META-INF") && strings.Contains(requested, "com.apple")
}
