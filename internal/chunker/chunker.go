// Package chunker splits cleaned document text into byte-bounded chunks
// with a configurable trailing overlap carried into the next chunk.
package chunker

import "strings"

// Byte budgets are measured as UTF-8 byte length, not code points — the
// same limit is enforced byte-for-byte on the indexing side.
const (
	DefaultMaxChunkBytes = 2000
	DefaultOverlapBytes  = 200
)

// Chunk splits text into chunks of at most maxChunkBytes. Paragraphs
// (non-empty lines split on \n) are accumulated until the next paragraph
// would exceed the budget; the closed chunk's trailing paragraphs, up to
// overlapBytes, seed the next chunk. A paragraph that alone exceeds the
// budget is split on sentence boundaries, and an oversized atomic
// sentence is emitted whole rather than truncated. Empty input yields
// no chunks.
func Chunk(text string, maxChunkBytes, overlapBytes int) []string {
	if maxChunkBytes <= 0 {
		maxChunkBytes = DefaultMaxChunkBytes
	}
	if overlapBytes < 0 {
		overlapBytes = 0
	}

	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var pending []string

	for _, para := range paragraphs {
		if len(para) > maxChunkBytes {
			// Oversized paragraph: flush what we have, then split it
			// on sentence boundaries.
			if len(pending) > 0 {
				chunks = append(chunks, strings.Join(pending, "\n"))
				pending = nil
			}
			chunks = append(chunks, splitBySentences(para, maxChunkBytes, overlapBytes)...)
			continue
		}

		if len(pending) > 0 && joinedLen(pending)+1+len(para) > maxChunkBytes {
			chunks = append(chunks, strings.Join(pending, "\n"))
			pending = trailingSegments(pending, overlapBytes)
			// The overlap seed plus the new paragraph must still fit.
			if len(pending) > 0 && joinedLen(pending)+1+len(para) > maxChunkBytes {
				pending = nil
			}
		}
		pending = append(pending, para)
	}

	if len(pending) > 0 {
		chunks = append(chunks, strings.Join(pending, "\n"))
	}

	return chunks
}

// TrailingOverlap returns the trailing paragraphs of text whose joined
// byte length stays within overlapBytes. Used to stitch context across
// a chunk boundary that falls outside Chunk's own overlap handling, so
// unlike the in-chunk overlap it returns the whole text when that fits
// the budget: the carried context lands in a different chunk and cannot
// duplicate the one it came from.
func TrailingOverlap(text string, overlapBytes int) string {
	paras := SplitParagraphs(text)
	if len(paras) == 0 || overlapBytes <= 0 {
		return ""
	}
	if joinedLen(paras) <= overlapBytes {
		return strings.Join(paras, "\n")
	}
	return strings.Join(trailingSegments(paras, overlapBytes), "\n")
}

// SplitParagraphs splits text on newlines into non-empty, trimmed
// paragraph strings.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitBySentences breaks an oversized paragraph into sentence-based
// chunks. A single sentence exceeding the budget is emitted verbatim.
func splitBySentences(para string, maxChunkBytes, overlapBytes int) []string {
	sentences := splitSentences(para)

	var chunks []string
	var pending []string

	for _, sent := range sentences {
		if len(sent) > maxChunkBytes {
			if len(pending) > 0 {
				chunks = append(chunks, strings.Join(pending, " "))
				pending = nil
			}
			chunks = append(chunks, sent)
			continue
		}
		if len(pending) > 0 && joinedLen(pending)+1+len(sent) > maxChunkBytes {
			chunks = append(chunks, strings.Join(pending, " "))
			pending = trailingSegments(pending, overlapBytes)
			if len(pending) > 0 && joinedLen(pending)+1+len(sent) > maxChunkBytes {
				pending = nil
			}
		}
		pending = append(pending, sent)
	}

	if len(pending) > 0 {
		chunks = append(chunks, strings.Join(pending, " "))
	}

	return chunks
}

// splitSentences splits on sentence-ending punctuation followed by
// whitespace. Go regexp has no lookbehind, so this is a plain scan.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// trailingSegments selects segments from the end of parts, stopping once
// the cumulative joined byte length would exceed budget. The whole input
// is never returned: overlapping an entire chunk would just duplicate it.
func trailingSegments(parts []string, budget int) []string {
	if budget <= 0 || len(parts) == 0 {
		return nil
	}
	total := 0
	i := len(parts)
	for i > 0 {
		n := len(parts[i-1])
		if total > 0 {
			n++ // joining separator
		}
		if total+n > budget {
			break
		}
		total += n
		i--
	}
	if i == 0 || i == len(parts) {
		return nil
	}
	out := make([]string, len(parts)-i)
	copy(out, parts[i:])
	return out
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += len(p)
	}
	return n
}
