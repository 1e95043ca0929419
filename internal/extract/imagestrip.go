package extract

import (
	"regexp"
	"strings"
)

// Embedded-image artifacts that parsers leave behind in extracted text.
var (
	markdownImageRef = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	bracketedImage   = regexp.MustCompile(`(?i)\[(?:image|img|picture|photo|figure)[^\]]*\]`)
	base64ImageURI   = regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]+`)
	imageFileRef     = regexp.MustCompile(`(?i)\b[\w./\\-]+\.(?:png|jpe?g|gif|bmp|svg|webp|tiff?|ico)\b`)

	excessSpaces     = regexp.MustCompile(`[ \t]{2,}`)
	excessBlankLines = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+\n`)
	trailingSpaces   = regexp.MustCompile(`[ \t]+\n`)
)

// StripImageArtifacts removes embedded-image noise from extracted text:
// bracketed image placeholders, base64 image data URIs and image file
// references, then collapses the excess whitespace and blank lines the
// removals leave behind. The pass is idempotent.
func StripImageArtifacts(text string) string {
	if text == "" {
		return ""
	}

	text = base64ImageURI.ReplaceAllString(text, " ")
	text = markdownImageRef.ReplaceAllString(text, " ")
	text = bracketedImage.ReplaceAllString(text, " ")
	text = imageFileRef.ReplaceAllString(text, " ")

	text = excessSpaces.ReplaceAllString(text, " ")
	text = trailingSpaces.ReplaceAllString(text, "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
