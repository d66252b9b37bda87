package testsupport

import (
	"archive/zip"
	"bytes"
	"testing"
)

// ZipEntry is one file to place in a test archive.
type ZipEntry struct {
	Name string
	Body []byte
}

// BuildZip assembles an in-memory zip archive with the given entries, in order.
func BuildZip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Body); err != nil {
			t.Fatalf("write zip entry %s: %v", entry.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

// BuildEpub assembles a minimal valid EPUB archive: mimetype, container.xml,
// an OPF with the provided title/author, and any extra entries.
func BuildEpub(t testing.TB, title, author string, extra ...ZipEntry) []byte {
	t.Helper()

	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>` + title + `</dc:title>
    <dc:creator>` + author + `</dc:creator>
  </metadata>
  <manifest/>
  <spine/>
</package>`
	container := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

	entries := []ZipEntry{
		{Name: "mimetype", Body: []byte("application/epub+zip")},
		{Name: "META-INF/container.xml", Body: []byte(container)},
		{Name: "OEBPS/content.opf", Body: []byte(opf)},
	}
	entries = append(entries, extra...)
	return BuildZip(t, entries...)
}
