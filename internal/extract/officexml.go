package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Text-bearing tags in OOXML presentations and OpenDocument content.
var officeTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<a:t[^>]*>(.*?)</a:t>`),
	regexp.MustCompile(`<text:p[^>]*>(.*?)</text:p>`),
	regexp.MustCompile(`<text:h[^>]*>(.*?)</text:h>`),
}

var xmlTag = regexp.MustCompile(`<[^>]*>`)

// extractOfficeXML scrapes text from zip-container office formats (pptx and
// the OpenDocument family). It scans every XML entry for known text-bearing
// tag patterns; when none match it falls back to crude tag-stripping.
func extractOfficeXML(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open document container: %w", err)
	}

	entries := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".xml") {
			entries = append(entries, f)
		}
	}
	// Slide entries carry an ordinal in the name; lexical order keeps the
	// document reading order close enough.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	raws := make([]string, 0, len(entries))
	var b strings.Builder
	for _, entry := range entries {
		raw, err := readZipEntry(entry)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", entry.Name, err)
		}
		raws = append(raws, raw)

		for _, pattern := range officeTextPatterns {
			for _, m := range pattern.FindAllStringSubmatch(raw, -1) {
				if line := cleanXMLText(m[1]); line != "" {
					b.WriteString(line)
					b.WriteString("\n")
				}
			}
		}
	}

	// No recognized markers anywhere: crude tag-stripping over every entry.
	if b.Len() == 0 {
		for _, raw := range raws {
			if line := cleanXMLText(raw); line != "" {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}

	return b.String(), nil
}

func readZipEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// cleanXMLText strips residual tags and entities from a scraped fragment.
func cleanXMLText(s string) string {
	s = xmlTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
