package catalog

import (
	"path"
	"sort"
	"strings"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

const (
	demoMarker  = "## Demo"
	setupMarker = "## Setup"
)

// ExtractReadme rewrites image references and splits a README into its
// description, setup and demo sections.
//
// Markers are matched case-insensitively on their first textual occurrence.
// The text before the first marker is the description without its first
// line, which repeats the product title.
func ExtractReadme(text string, imageURLs map[string]string) domain.ReadmeSections {
	text = RewriteImageLinks(text, imageURLs)

	demo := indexFold(text, demoMarker)
	setup := indexFold(text, setupMarker)

	head := text
	switch {
	case demo >= 0 && setup >= 0:
		head = text[:min(demo, setup)]
	case demo >= 0:
		head = text[:demo]
	case setup >= 0:
		head = text[:setup]
	}

	var s domain.ReadmeSections
	s.Description = removeFirstLine(strings.TrimSpace(head))

	switch {
	case demo >= 0 && setup >= 0 && demo < setup:
		s.Demo = strings.TrimSpace(text[demo+len(demoMarker) : setup])
		s.Setup = strings.TrimSpace(text[setup+len(setupMarker):])
	case demo >= 0 && setup >= 0:
		s.Setup = strings.TrimSpace(text[setup+len(setupMarker) : demo])
		s.Demo = strings.TrimSpace(text[demo+len(demoMarker):])
	case demo >= 0:
		s.Demo = strings.TrimSpace(text[demo+len(demoMarker):])
	case setup >= 0:
		s.Setup = strings.TrimSpace(text[setup+len(setupMarker):])
	}
	return s
}

// RewriteImageLinks replaces every images/<name> reference that has an
// entry in imageURLs with the mapped URL. Unmapped references are kept.
func RewriteImageLinks(text string, imageURLs map[string]string) string {
	if len(imageURLs) == 0 {
		return text
	}

	names := make([]string, 0, len(imageURLs))
	for name := range imageURLs {
		if name != "" {
			names = append(names, name)
		}
	}
	// Longer names first so "a.png.bak" is not shadowed by "a.png".
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, ImagesDir+"/"+name, imageURLs[name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// ImageURLs builds the image name to download URL mapping of a product
// directory. A top-level png or jpeg image, the logo included, wins;
// otherwise every file of the images subdirectory is mapped.
func ImageURLs(root, images []domain.DirEntry) map[string]string {
	var candidates []domain.DirEntry
	for _, e := range root {
		if e.IsDir() || !isReadmeImage(e.Name) {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
		return map[string]string{candidates[0].Name: candidates[0].DownloadURL}
	}

	urls := make(map[string]string, len(images))
	for _, e := range images {
		if e.IsDir() || e.DownloadURL == "" {
			continue
		}
		urls[e.Name] = e.DownloadURL
	}
	return urls
}

func isReadmeImage(name string) bool {
	ext := path.Ext(name)
	if len(ext) == len(name) {
		return false
	}
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func indexFold(s, marker string) int {
	n := len(marker)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], marker) {
			return i
		}
	}
	return -1
}

func removeFirstLine(text string) string {
	i := strings.IndexByte(text, '\n')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i+1:])
}
