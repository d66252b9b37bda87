// Package ebook serves internal EPUB resources straight from remotely stored
// archives.
//
// A request flows through a linear pipeline: fetch the archive bytes from the
// ebook's remote address, index them as a zip container, resolve the requested
// internal path against the index, and hand the bytes (or a sentinel) back to
// the HTTP layer. Archive producers are inconsistent about leading slashes and
// casing, so resolution applies a fixed, ordered list of matching strategies
// rather than a single lookup; the order is part of the contract and must not
// change.
//
// A small TTL cache of parsed archives sits in front of the fetch step purely
// as an optimization; behaviour with the cache disabled is identical.
package ebook
