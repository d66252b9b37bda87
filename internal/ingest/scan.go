package ingest

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// item is one scanned file with its parsed ordering fields.
type item struct {
	// Path is the absolute path of the file.
	Path string
	// Name is the display title derived from the filename.
	Name string
	// Number is the chapter or episode number parsed from the filename;
	// negative when no number was found.
	Number float64
	// Season is parsed from an SxxEyy marker or a "Season N" parent
	// directory; zero when absent.
	Season int
}

var (
	seasonEpisodeRE = regexp.MustCompile(`(?i)\bs(\d{1,3})[ ._-]?e(\d{1,4})\b`)
	seasonDirRE     = regexp.MustCompile(`(?i)^season[ ._-]*(\d{1,3})$`)
	chapterMarkerRE = regexp.MustCompile(`(?i)\b(?:ch(?:apter)?|ep(?:isode)?)[ ._-]*(\d+(?:\.\d+)?)`)
	numberRE        = regexp.MustCompile(`\d+(?:\.\d+)?`)
	separatorRE     = regexp.MustCompile(`[._]+`)
	spaceRE         = regexp.MustCompile(`\s+`)
)

// scanDirectory walks root and returns one item per regular file, in natural
// order of filename (numeric runs compare as numbers, so "ch2" sorts before
// "ch10"). Hidden files and directories are skipped.
func scanDirectory(root string) ([]item, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "scan", "directory is required", nil)
	}

	var items []item
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		items = append(items, parseItem(root, path))
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "scan", "walk "+root, err)
	}

	sortNatural(items)
	return items, nil
}

func parseItem(root, path string) item {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	it := item{Path: path, Number: -1}

	if m := seasonEpisodeRE.FindStringSubmatch(stem); m != nil {
		it.Season, _ = strconv.Atoi(m[1])
		if n, err := strconv.ParseFloat(m[2], 64); err == nil {
			it.Number = n
		}
	} else if m := chapterMarkerRE.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			it.Number = n
		}
	} else if m := numberRE.FindString(stem); m != "" {
		if n, err := strconv.ParseFloat(m, 64); err == nil {
			it.Number = n
		}
	}

	if it.Season == 0 {
		parent := filepath.Base(filepath.Dir(path))
		if parent != filepath.Base(root) {
			if m := seasonDirRE.FindStringSubmatch(parent); m != nil {
				it.Season, _ = strconv.Atoi(m[1])
			}
		}
	}

	it.Name = displayTitle(stem)
	return it
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// displayTitle turns a filename stem into a presentable title: separators
// become spaces and the first letter of each word is capitalized. Words that
// already carry capitals are left alone.
func displayTitle(stem string) string {
	name := separatorRE.ReplaceAllString(stem, " ")
	name = spaceRE.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return stem
	}
	return titleCaser.String(name)
}

// sortNatural orders items by filename with numeric runs compared as numbers.
func sortNatural(items []item) {
	coll := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		return coll.CompareString(filepath.Base(items[i].Path), filepath.Base(items[j].Path)) < 0
	})
}
