// Package ingest turns directories of uploaded files into ordered library
// entries. Filenames carry the ordering: chapter and episode numbers are
// parsed out, titles are derived from the remaining text, and the results are
// naturally ordered before insertion.
package ingest
