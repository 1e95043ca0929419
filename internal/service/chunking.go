package service

import (
	"regexp"
	"strings"
)

const (
	// charsPerToken approximates one token as a fixed number of characters.
	charsPerToken = 4

	// MaxCharsPerChunk is the hard ceiling on a single chunk, independent of
	// policy. The embedding API rejects inputs above this size.
	MaxCharsPerChunk = 30000

	paragraphSeparator = "\n\n"
)

// ChunkingPolicy controls how extracted text is split for embedding.
type ChunkingPolicy struct {
	// MinTokens drops accumulated chunks below this size unless they are the
	// only content of the document.
	MinTokens int
	// MaxTokens bounds chunk size before the hard API ceiling applies.
	MaxTokens int
	// OverlapTokens is the trailing content carried into the next chunk for
	// context continuity.
	OverlapTokens int
}

// DefaultChunkingPolicy provides sane defaults for chunking.
func DefaultChunkingPolicy() ChunkingPolicy {
	return ChunkingPolicy{
		MinTokens:     100,
		MaxTokens:     300,
		OverlapTokens: 50,
	}
}

var paragraphBreak = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

// ChunkText splits text into an ordered sequence of chunks honoring the
// policy's size and overlap bounds. Paragraphs are packed greedily; a
// paragraph too large for any chunk goes through splitLargeText. Every
// returned chunk is at most MaxCharsPerChunk characters, and any non-empty
// input yields at least one chunk.
func ChunkText(text string, policy ChunkingPolicy) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if policy.MaxTokens <= 0 {
		policy = DefaultChunkingPolicy()
	}

	minChars := policy.MinTokens * charsPerToken
	maxChars := policy.MaxTokens * charsPerToken
	if maxChars > MaxCharsPerChunk {
		maxChars = MaxCharsPerChunk
	}
	overlapChars := policy.OverlapTokens * charsPerToken

	paragraphs := splitParagraphs(clean)

	chunks := make([]string, 0, 8)
	current := ""

	// Below-minimum accumulations are discarded, not merged backward.
	flush := func() {
		if current != "" && len([]rune(current)) >= minChars {
			chunks = append(chunks, current)
		}
	}

	for _, para := range paragraphs {
		paraLen := len([]rune(para))

		switch {
		case paraLen > MaxCharsPerChunk:
			flush()
			chunks = append(chunks, splitLargeText(para, maxChars, overlapChars)...)
			current = ""

		case current != "" && len([]rune(current))+len(paragraphSeparator)+paraLen > maxChars:
			flush()
			// Seed the next chunk with the tail of the previous one so
			// context carries across the boundary.
			if tail := overlapTail(current, overlapChars); tail != "" {
				current = tail + paragraphSeparator + para
			} else {
				current = para
			}

		case current == "":
			current = para

		default:
			current += paragraphSeparator + para
		}
	}
	flush()

	// Degenerate-input guard: a non-empty document must never chunk to
	// nothing, even when everything fell below the minimum size.
	if len(chunks) == 0 {
		chunks = append(chunks, clean)
	}

	// Safety pass: the degenerate guard above is exempt from maxChars, so
	// re-split anything that still exceeds the hard ceiling.
	final := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len([]rune(c)) > MaxCharsPerChunk {
			final = append(final, splitLargeText(c, maxChars, overlapChars)...)
		} else {
			final = append(final, c)
		}
	}

	return final
}

// splitParagraphs splits text on blank-line boundaries, trimming each
// paragraph and discarding empty ones.
func splitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitLargeText splits text that does not fit a single chunk. Greedy
// forward scan: propose a maxChars window, snap the cut to the latest
// sentence terminator or line break in the back half of the window, then
// advance with overlap. Advancing at least one character guarantees
// termination even when overlapChars >= maxChars.
func splitLargeText(text string, maxChars, overlapChars int) []string {
	if maxChars <= 0 || maxChars > MaxCharsPerChunk {
		maxChars = MaxCharsPerChunk
	}

	runes := []rune(text)
	out := make([]string, 0, len(runes)/maxChars+1)

	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer a natural boundary, but not one so early it would
			// produce a pathologically short chunk.
			floor := start + maxChars/2
			for i := end - 1; i > floor; i-- {
				if isBreakRune(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}

		if end >= len(runes) {
			break
		}

		next := end - overlapChars
		if next < start+1 {
			next = start + 1
		}
		start = next
	}

	return out
}

func isBreakRune(r rune) bool {
	return r == '.' || r == '?' || r == '!' || r == '\n'
}

// overlapTail returns the last overlapChars characters of chunk.
func overlapTail(chunk string, overlapChars int) string {
	if overlapChars <= 0 {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= overlapChars {
		return chunk
	}
	return string(runes[len(runes)-overlapChars:])
}
