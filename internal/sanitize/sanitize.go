// Package sanitize normalizes extracted document text before chunking.
package sanitize

import "strings"

// Clean normalizes line endings to \n and strips code points the search
// index rejects on ingestion: C0 controls (except \n), DEL, C1 controls,
// and the noncharacters U+FDD0..U+FDEF, U+FFFE, U+FFFF.
// Best-effort stripping, never fails.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r < 0x20 || r == 0x7F:
			return -1
		case r >= 0x80 && r <= 0x9F:
			return -1
		case r >= 0xFDD0 && r <= 0xFDEF:
			return -1
		case r == 0xFFFE || r == 0xFFFF:
			return -1
		}
		return r
	}, raw)
}
