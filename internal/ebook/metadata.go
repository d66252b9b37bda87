package ebook

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// containerPath is the well-known location of container.xml in an EPUB archive.
const containerPath = "META-INF/container.xml"

// Metadata carries the display fields extracted from an EPUB package document.
type Metadata struct {
	Title  string
	Author string
}

// TOCEntry is one navigation link from the book's table of contents.
type TOCEntry struct {
	Title string
	Href  string
}

type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Titles   []string `xml:"title"`
		Creators []string `xml:"creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		TOC string `xml:"toc,attr"`
	} `xml:"spine"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// ExtractMetadata pulls title and author from the archive's OPF package
// document. Missing fields come back empty rather than failing; callers fall
// back to filename-derived values.
func ExtractMetadata(idx *Index) (Metadata, error) {
	_, pkg, err := parsePackage(idx)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{}
	if len(pkg.Metadata.Titles) > 0 {
		meta.Title = strings.TrimSpace(pkg.Metadata.Titles[0])
	}
	if len(pkg.Metadata.Creators) > 0 {
		meta.Author = strings.TrimSpace(pkg.Metadata.Creators[0])
	}
	return meta, nil
}

// TableOfContents extracts navigation entries, preferring the EPUB 3 nav
// document and falling back to the EPUB 2 NCX. Hrefs are returned relative
// to the archive root so they can be served straight back through the
// resource route.
func TableOfContents(idx *Index) ([]TOCEntry, error) {
	opfPath, pkg, err := parsePackage(idx)
	if err != nil {
		return nil, err
	}
	opfDir := path.Dir(opfPath)

	if navPath := findNavDocument(pkg, opfDir); navPath != "" {
		entries, err := parseNavDocument(idx, navPath)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
	}
	if ncxPath := findNCX(pkg, opfDir); ncxPath != "" {
		return parseNCX(idx, ncxPath)
	}
	return nil, nil
}

func parsePackage(idx *Index) (string, *opfPackage, error) {
	data, resolution, err := Resolve(containerPath, idx)
	if err != nil {
		return "", nil, err
	}
	if resolution != ResolutionFound {
		return "", nil, services.Wrap(services.ErrCorruptArchive, "ebook", "metadata", "archive has no container.xml", nil)
	}

	var container containerXML
	if err := xml.Unmarshal(stripBOM(data), &container); err != nil {
		return "", nil, services.Wrap(services.ErrCorruptArchive, "ebook", "metadata", "parse container.xml", err)
	}

	opfPath := ""
	for _, rf := range container.RootFiles {
		if strings.TrimSpace(rf.FullPath) == "" {
			continue
		}
		opfPath = strings.TrimSpace(rf.FullPath)
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), "application/oebps-package+xml") {
			break
		}
	}
	if opfPath == "" {
		return "", nil, services.Wrap(services.ErrCorruptArchive, "ebook", "metadata", "container.xml names no rootfile", nil)
	}

	opfData, resolution, err := Resolve(opfPath, idx)
	if err != nil {
		return "", nil, err
	}
	if resolution != ResolutionFound {
		return "", nil, services.Wrap(services.ErrCorruptArchive, "ebook", "metadata", "rootfile "+opfPath+" missing from archive", nil)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(stripBOM(opfData), &pkg); err != nil {
		return "", nil, services.Wrap(services.ErrCorruptArchive, "ebook", "metadata", "parse package document", err)
	}
	return opfPath, &pkg, nil
}

func findNavDocument(pkg *opfPackage, opfDir string) string {
	for _, item := range pkg.Manifest.Items {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "nav" {
				return joinArchivePath(opfDir, item.Href)
			}
		}
	}
	return ""
}

func findNCX(pkg *opfPackage, opfDir string) string {
	tocID := strings.TrimSpace(pkg.Spine.TOC)
	for _, item := range pkg.Manifest.Items {
		if tocID != "" && item.ID == tocID {
			return joinArchivePath(opfDir, item.Href)
		}
		if strings.EqualFold(item.MediaType, "application/x-dtbncx+xml") {
			return joinArchivePath(opfDir, item.Href)
		}
	}
	return ""
}

func parseNavDocument(idx *Index, navPath string) ([]TOCEntry, error) {
	data, resolution, err := Resolve(navPath, idx)
	if err != nil {
		return nil, err
	}
	if resolution != ResolutionFound {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "toc", "parse nav document", err)
	}

	navDir := path.Dir(navPath)
	var entries []TOCEntry
	doc.Find("nav").EachWithBreak(func(_ int, nav *goquery.Selection) bool {
		navType, _ := nav.Attr("epub:type")
		if navType != "" && navType != "toc" {
			return true
		}
		nav.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			title := strings.TrimSpace(link.Text())
			if href == "" || title == "" {
				return
			}
			entries = append(entries, TOCEntry{
				Title: title,
				Href:  joinArchivePath(navDir, href),
			})
		})
		return len(entries) == 0
	})
	return entries, nil
}

type ncxDocument struct {
	XMLName xml.Name   `xml:"ncx"`
	Points  []ncxPoint `xml:"navMap>navPoint"`
}

type ncxPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
}

func parseNCX(idx *Index, ncxPath string) ([]TOCEntry, error) {
	data, resolution, err := Resolve(ncxPath, idx)
	if err != nil {
		return nil, err
	}
	if resolution != ResolutionFound {
		return nil, nil
	}

	var ncx ncxDocument
	if err := xml.Unmarshal(stripBOM(data), &ncx); err != nil {
		return nil, services.Wrap(services.ErrCorruptArchive, "ebook", "toc", "parse ncx", err)
	}

	ncxDir := path.Dir(ncxPath)
	entries := make([]TOCEntry, 0, len(ncx.Points))
	for _, point := range ncx.Points {
		title := strings.TrimSpace(point.Label)
		src := strings.TrimSpace(point.Content.Src)
		if title == "" || src == "" {
			continue
		}
		entries = append(entries, TOCEntry{Title: title, Href: joinArchivePath(ncxDir, src)})
	}
	return entries, nil
}

// joinArchivePath resolves href relative to dir, keeping the result inside
// the archive root. Fragments survive so reader apps can deep-link.
func joinArchivePath(dir, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	fragment := ""
	if i := strings.IndexByte(href, '#'); i >= 0 {
		fragment = href[i:]
		href = href[:i]
	}
	joined := path.Clean(path.Join(dir, href))
	if joined == ".." || strings.HasPrefix(joined, "../") || strings.HasPrefix(joined, "/") {
		return ""
	}
	return joined + fragment
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
