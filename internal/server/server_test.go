package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/covers"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ebook"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/ingest"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/storage"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/testsupport"
)

type fixture struct {
	cfg     *config.Config
	store   *library.Store
	api     *httptest.Server
	archive *httptest.Server
	// archiveStatus, when non-zero, makes the archive host fail every request.
	archiveStatus int
	archiveData   []byte

	objectHost *httptest.Server
	objectMu   sync.Mutex
	objectData map[string][]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{objectData: map[string][]byte{}}
	f.archive = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.archiveStatus != 0 {
			http.Error(w, "archive host failure", f.archiveStatus)
			return
		}
		w.Write(f.archiveData)
	}))
	t.Cleanup(f.archive.Close)

	f.objectHost = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.objectMu.Lock()
		defer f.objectMu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.objectData[r.URL.Path] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			delete(f.objectData, r.URL.Path)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.objectHost.Close)

	f.cfg = testsupport.NewConfig(t, testsupport.WithStorage(f.objectHost.URL, "test-token"))
	f.store = testsupport.MustOpenStore(t, f.cfg)

	ebooks := ebook.NewService(f.cfg, f.store, logging.NewNop()).
		WithFetcher(ebook.NewFetcher(f.archive.Client(), 0))
	ingestSvc := ingest.NewService(f.store, logging.NewNop())
	objects, err := storage.NewClient(f.cfg)
	if err != nil {
		t.Fatalf("storage.NewClient: %v", err)
	}

	srv, err := New(f.cfg, Options{
		Store:   f.store,
		Ebooks:  ebooks,
		Ingest:  ingestSvc,
		Objects: objects,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.api = httptest.NewServer(srv.Handler())
	t.Cleanup(f.api.Close)
	return f
}

// storedObject returns the single uploaded object's body, failing the test
// when the host holds anything but one object.
func (f *fixture) storedObject(t *testing.T) []byte {
	t.Helper()
	f.objectMu.Lock()
	defer f.objectMu.Unlock()
	if len(f.objectData) != 1 {
		t.Fatalf("object host holds %d objects, want 1", len(f.objectData))
	}
	for _, body := range f.objectData {
		return body
	}
	return nil
}

func (f *fixture) addEbook(t *testing.T, archive []byte) *library.Ebook {
	t.Helper()
	f.archiveData = archive
	return testsupport.NewEbook(t, f.store, "Fixture Book", "Fixture Author", f.archive.URL+"/book.epub")
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestResourceSpellingVariants(t *testing.T) {
	css := []byte("p { margin: 0 }")
	f := newFixture(t)
	record := f.addEbook(t, testsupport.BuildEpub(t, "B", "A",
		testsupport.ZipEntry{Name: "OEBPS/styles/main.css", Body: css}))

	for _, requested := range []string{
		"OEBPS/styles/main.css",
		"OEBPS/Styles/MAIN.CSS",
		"oebps/styles/main.css",
	} {
		url := fmt.Sprintf("%s/ebook-library/%s?ebookId=%d", f.api.URL, requested, record.ID)
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET %s: %v", url, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", requested, resp.StatusCode)
		}
		if !bytes.Equal(body, css) {
			t.Fatalf("GET %s returned wrong bytes", requested)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "text/css" {
			t.Errorf("Content-Type = %q, want text/css", ct)
		}
		if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
			t.Errorf("Cache-Control = %q", cc)
		}
		if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q", origin)
		}
	}
}

func TestResourceOptionalMissingStub(t *testing.T) {
	f := newFixture(t)
	record := f.addEbook(t, testsupport.BuildEpub(t, "B", "A"))

	url := fmt.Sprintf("%s/ebook-library/META-INF/com.apple.ibooks.display-options.xml?ebookId=%d",
		f.api.URL, record.ID)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if string(body) != ebook.OptionalStubXML {
		t.Fatalf("body = %q, want display options stub", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q, want application/xml", ct)
	}
}

func TestResourceNotFoundNamesPath(t *testing.T) {
	f := newFixture(t)
	record := f.addEbook(t, testsupport.BuildEpub(t, "B", "A"))

	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	resp := getJSON(t,
		fmt.Sprintf("%s/ebook-library/OEBPS/missing.xhtml?ebookId=%d", f.api.URL, record.ID),
		&payload)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(payload.Details, "OEBPS/missing.xhtml") {
		t.Fatalf("details = %q, must name the requested path", payload.Details)
	}
}

func TestResourceUnknownEbookFailsBeforeFetch(t *testing.T) {
	f := newFixture(t)
	f.archiveStatus = http.StatusInternalServerError

	resp := getJSON(t, f.api.URL+"/ebook-library/OEBPS/ch1.xhtml?ebookId=12345", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 without touching the archive host", resp.StatusCode)
	}
}

func TestResourceMissingIDIsBadRequest(t *testing.T) {
	f := newFixture(t)
	f.addEbook(t, testsupport.BuildEpub(t, "B", "A"))

	for _, url := range []string{
		f.api.URL + "/ebook-library/OEBPS/ch1.xhtml",
		f.api.URL + "/ebook-library/OEBPS/ch1.xhtml?ebookId=",
		f.api.URL + "/ebook-library/OEBPS/ch1.xhtml?ebookId=abc",
	} {
		var payload struct {
			Error string `json:"error"`
		}
		resp := getJSON(t, url, &payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("GET %s = %d, want 400", url, resp.StatusCode)
		}
		if payload.Error == "" {
			t.Fatalf("GET %s returned no error message", url)
		}
	}
}

func TestResourceRefererFallback(t *testing.T) {
	f := newFixture(t)
	record := f.addEbook(t, testsupport.BuildEpub(t, "B", "A",
		testsupport.ZipEntry{Name: "OEBPS/ch1.xhtml", Body: []byte("<html/>")}))

	req, err := http.NewRequest(http.MethodGet, f.api.URL+"/ebook-library/OEBPS/ch1.xhtml", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Referer", fmt.Sprintf("http://reader.local/ebook-library/%d/read", record.ID))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 via Referer fallback", resp.StatusCode)
	}
}

func TestResourceOptionsCORS(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.api.URL+"/ebook-library/OEBPS/ch1.xhtml", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(body) != 0 {
		t.Fatalf("body = %q, want empty", body)
	}
	for _, header := range []string{
		"Access-Control-Allow-Origin",
		"Access-Control-Allow-Methods",
		"Access-Control-Allow-Headers",
	} {
		if resp.Header.Get(header) == "" {
			t.Errorf("%s header missing", header)
		}
	}
}

func TestResourceUpstreamStatusCarried(t *testing.T) {
	f := newFixture(t)
	record := f.addEbook(t, nil)

	f.archiveStatus = http.StatusNotFound
	resp := getJSON(t, fmt.Sprintf("%s/ebook-library/OEBPS/ch1.xhtml?ebookId=%d", f.api.URL, record.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want upstream 404 carried", resp.StatusCode)
	}

	f.archiveStatus = http.StatusInternalServerError
	resp = getJSON(t, fmt.Sprintf("%s/ebook-library/OEBPS/ch1.xhtml?ebookId=%d", f.api.URL, record.ID), nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 for upstream server failure", resp.StatusCode)
	}
}

func TestResourceCorruptArchiveIsServerError(t *testing.T) {
	f := newFixture(t)
	record := f.addEbook(t, []byte("definitely not a zip"))

	resp := getJSON(t, fmt.Sprintf("%s/ebook-library/OEBPS/ch1.xhtml?ebookId=%d", f.api.URL, record.ID), nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 for corrupt archive", resp.StatusCode)
	}
}

func TestEbookCRUD(t *testing.T) {
	f := newFixture(t)

	create := bytes.NewBufferString(`{"title":"Dune","author":"Frank Herbert","remote_address":"http://host/dune.epub"}`)
	resp, err := http.Post(f.api.URL+"/api/ebooks", "application/json", create)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	var created ebookJSON
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.ID == 0 {
		t.Fatalf("create = %d %+v", resp.StatusCode, created)
	}

	var page pageResponse[ebookJSON]
	if resp := getJSON(t, f.api.URL+"/api/ebooks?q=dune", &page); resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != "Dune" {
		t.Fatalf("page = %+v", page)
	}

	var got ebookJSON
	if resp := getJSON(t, fmt.Sprintf("%s/api/ebooks/%d", f.api.URL, created.ID), &got); resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got.Author != "Frank Herbert" {
		t.Fatalf("got = %+v", got)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/ebooks/%d", f.api.URL, created.ID), nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}

	if resp := getJSON(t, fmt.Sprintf("%s/api/ebooks/%d", f.api.URL, created.ID), nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", resp.StatusCode)
	}
}

func TestEbookUpdateDropsCachedArchive(t *testing.T) {
	f := newFixture(t)
	record := f.addEbook(t, testsupport.BuildEpub(t, "B", "A",
		testsupport.ZipEntry{Name: "OEBPS/ch1.xhtml", Body: []byte("first edition")}))

	resourceURL := fmt.Sprintf("%s/ebook-library/OEBPS/ch1.xhtml?ebookId=%d", f.api.URL, record.ID)
	resp, err := http.Get(resourceURL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "first edition" {
		t.Fatalf("first GET = %d %q", resp.StatusCode, body)
	}

	// Point the record at a revised archive. The cached copy of the first
	// archive must not outlive the update.
	f.archiveData = testsupport.BuildEpub(t, "B", "A",
		testsupport.ZipEntry{Name: "OEBPS/ch1.xhtml", Body: []byte("second edition")})

	update := bytes.NewBufferString(fmt.Sprintf(`{"remote_address":%q}`, f.archive.URL+"/revised.epub"))
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/api/ebooks/%d", f.api.URL, record.ID), update)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	var updated ebookJSON
	if err := json.NewDecoder(putResp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", putResp.StatusCode)
	}
	if updated.RemoteAddress != f.archive.URL+"/revised.epub" {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Title != "Fixture Book" {
		t.Fatalf("omitted title must keep its value, got %q", updated.Title)
	}

	resp, err = http.Get(resourceURL)
	if err != nil {
		t.Fatalf("GET after update: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "second edition" {
		t.Fatalf("GET after update = %d %q, want the revised archive", resp.StatusCode, body)
	}
}

func TestEbookUpdateUnknownID(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodPut, f.api.URL+"/api/ebooks/9999",
		bytes.NewBufferString(`{"title":"Ghost"}`))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestEbookTOCRoute(t *testing.T) {
	ncx := `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="p1"><navLabel><text>Start</text></navLabel><content src="ch1.xhtml"/></navPoint>
  </navMap>
</ncx>`
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>B</dc:title></metadata>
  <manifest><item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/></manifest>
  <spine toc="ncx"/>
</package>`
	container := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

	f := newFixture(t)
	record := f.addEbook(t, testsupport.BuildZip(t,
		testsupport.ZipEntry{Name: "mimetype", Body: []byte("application/epub+zip")},
		testsupport.ZipEntry{Name: "META-INF/container.xml", Body: []byte(container)},
		testsupport.ZipEntry{Name: "OEBPS/content.opf", Body: []byte(opf)},
		testsupport.ZipEntry{Name: "OEBPS/toc.ncx", Body: []byte(ncx)},
	))

	var entries []tocEntryJSON
	resp := getJSON(t, fmt.Sprintf("%s/api/ebooks/%d/toc", f.api.URL, record.ID), &entries)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(entries) != 1 || entries[0].Title != "Start" || entries[0].Href != "OEBPS/ch1.xhtml" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestComicIngestRoute(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.api.URL+"/api/comics", "application/json",
		bytes.NewBufferString(`{"title":"Test Comic"}`))
	if err != nil {
		t.Fatalf("POST comic: %v", err)
	}
	var comic comicJSON
	if err := json.NewDecoder(resp.Body).Decode(&comic); err != nil {
		t.Fatalf("decode comic: %v", err)
	}
	resp.Body.Close()

	staged := filepath.Join(f.cfg.Paths.StagingDir, "test-comic")
	for _, name := range []string{"ch2.cbz", "ch1.cbz", "ch10.cbz"} {
		path := filepath.Join(staged, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	resp, err = http.Post(fmt.Sprintf("%s/api/comics/%d/ingest", f.api.URL, comic.ID),
		"application/json", bytes.NewBufferString(`{"directory":"test-comic"}`))
	if err != nil {
		t.Fatalf("POST ingest: %v", err)
	}
	var chapters []chapterJSON
	if err := json.NewDecoder(resp.Body).Decode(&chapters); err != nil {
		t.Fatalf("decode chapters: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest status = %d", resp.StatusCode)
	}
	if len(chapters) != 3 || chapters[0].Number != 1 || chapters[2].Number != 10 {
		t.Fatalf("chapters = %+v", chapters)
	}

	var listed []chapterJSON
	if resp := getJSON(t, fmt.Sprintf("%s/api/comics/%d/chapters", f.api.URL, comic.ID), &listed); resp.StatusCode != http.StatusOK {
		t.Fatalf("chapters status = %d", resp.StatusCode)
	}
	if len(listed) != 3 {
		t.Fatalf("listed = %+v", listed)
	}
}

func buildPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func postCover(t *testing.T, url string, cover []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("cover", "cover.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(cover); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	resp, err := http.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestComicCoverUpload(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.api.URL+"/api/comics", "application/json",
		bytes.NewBufferString(`{"title":"Covered"}`))
	if err != nil {
		t.Fatalf("POST comic: %v", err)
	}
	var comic comicJSON
	if err := json.NewDecoder(resp.Body).Decode(&comic); err != nil {
		t.Fatalf("decode comic: %v", err)
	}
	resp.Body.Close()

	resp = postCover(t, fmt.Sprintf("%s/api/comics/%d/cover", f.api.URL, comic.ID), buildPNG(t, 800, 1200))
	var payload struct {
		CoverAddress string `json:"cover_address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(payload.CoverAddress, f.objectHost.URL+"/objects/") {
		t.Fatalf("cover_address = %q, want an object host address", payload.CoverAddress)
	}

	var got comicJSON
	if resp := getJSON(t, fmt.Sprintf("%s/api/comics/%d", f.api.URL, comic.ID), &got); resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got.CoverAddress != payload.CoverAddress {
		t.Fatalf("record cover_address = %q, want %q", got.CoverAddress, payload.CoverAddress)
	}

	stored := f.storedObject(t)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
	if err != nil {
		t.Fatalf("stored object is not a JPEG: %v", err)
	}
	if cfg.Width > covers.DefaultWidth || cfg.Height > covers.DefaultHeight {
		t.Fatalf("thumbnail %dx%d exceeds %dx%d", cfg.Width, cfg.Height, covers.DefaultWidth, covers.DefaultHeight)
	}
}

func TestMovieCoverUpload(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.api.URL+"/api/movies", "application/json",
		bytes.NewBufferString(`{"title":"Covered","year":1999}`))
	if err != nil {
		t.Fatalf("POST movie: %v", err)
	}
	var movie movieJSON
	if err := json.NewDecoder(resp.Body).Decode(&movie); err != nil {
		t.Fatalf("decode movie: %v", err)
	}
	resp.Body.Close()

	resp = postCover(t, fmt.Sprintf("%s/api/movies/%d/cover", f.api.URL, movie.ID), buildPNG(t, 100, 150))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	var got movieJSON
	if resp := getJSON(t, fmt.Sprintf("%s/api/movies/%d", f.api.URL, movie.ID), &got); resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got.CoverAddress == "" {
		t.Fatalf("movie cover_address not recorded")
	}
}

func TestCoverUploadRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.api.URL+"/api/comics", "application/json",
		bytes.NewBufferString(`{"title":"Covered"}`))
	if err != nil {
		t.Fatalf("POST comic: %v", err)
	}
	var comic comicJSON
	if err := json.NewDecoder(resp.Body).Decode(&comic); err != nil {
		t.Fatalf("decode comic: %v", err)
	}
	resp.Body.Close()
	coverURL := fmt.Sprintf("%s/api/comics/%d/cover", f.api.URL, comic.ID)

	resp = postCover(t, coverURL, []byte("not an image"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("garbage image status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Post(coverURL, "application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("POST without form: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing cover field status = %d, want 400", resp.StatusCode)
	}

	resp = postCover(t, f.api.URL+"/api/comics/9999/cover", buildPNG(t, 10, 10))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown comic status = %d, want 404", resp.StatusCode)
	}
}

func TestIngestRejectsEscapingDirectory(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.api.URL+"/api/comics", "application/json",
		bytes.NewBufferString(`{"title":"Escape"}`))
	if err != nil {
		t.Fatalf("POST comic: %v", err)
	}
	var comic comicJSON
	if err := json.NewDecoder(resp.Body).Decode(&comic); err != nil {
		t.Fatalf("decode comic: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Post(fmt.Sprintf("%s/api/comics/%d/ingest", f.api.URL, comic.ID),
		"application/json", bytes.NewBufferString(`{"directory":"../outside"}`))
	if err != nil {
		t.Fatalf("POST ingest: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for escaping directory", resp.StatusCode)
	}
}

func TestStatusRoute(t *testing.T) {
	f := newFixture(t)

	var status Status
	resp := getJSON(t, f.api.URL+"/api/status", &status)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !status.Running || status.DatabasePath == "" {
		t.Fatalf("payload = %+v", status)
	}
}
