// Package pptx extracts ordered content from PowerPoint slide parts:
// titles, body text, tables, chart labels, speaker notes and image
// references, in human reading order.
package pptx

// ItemKind classifies a piece of slide content.
type ItemKind int

const (
	KindTitle ItemKind = iota
	KindText
	KindTable
	KindNotes
	KindImage
)

func (k ItemKind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindText:
		return "text"
	case KindTable:
		return "table"
	case KindNotes:
		return "notes"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// ContentItem is one typed unit of slide content. SequencePosition is
// assigned in discovery order within a slide (title first, then shape
// traversal order). Immutable once created.
type ContentItem struct {
	Kind             ItemKind
	Content          string
	ImageRelID       string
	SequencePosition int
	SlideNumber      int
}
