package pptx

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/deckgest/deckgest/internal/ooxml"
)

// SpeakerNotes extracts the notes-slide counterpart of a slide, if
// present. Notes are supplementary: any failure (missing part, parse
// error) returns an empty string, never an error.
func SpeakerNotes(c *ooxml.Container, slideNumber int, log *slog.Logger) string {
	if log == nil {
		log = slog.Default()
	}
	path := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", slideNumber)
	tree, err := c.ReadXML(path)
	if err != nil {
		log.Warn("notes slide unreadable", "slide", slideNumber, "error", err)
		return ""
	}
	spTree := shapeTree(tree)
	if spTree == nil {
		return ""
	}

	var parts []string
	for _, sh := range spTree.ChildrenNamed("sp") {
		// Notes placeholders carry body/obj types; the slide-thumbnail
		// (sldImg) and slide-number/header/footer placeholders are
		// chrome, not content.
		switch placeholderType(sh) {
		case "body", "obj", "":
			if text := shapeText(sh); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}
