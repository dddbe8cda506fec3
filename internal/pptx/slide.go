package pptx

import (
	"log/slog"

	"github.com/deckgest/deckgest/internal/ooxml"
)

// ExtractSlideContent walks one slide's parsed XML tree and returns its
// typed content items in reading order: the title placeholder first, then
// ungrouped shapes, picture shapes, and shapes nested one level inside
// group shapes. A nil or malformed tree yields an empty list — one bad
// slide never aborts the document.
func ExtractSlideContent(slideTree *ooxml.Node, slideNumber int, log *slog.Logger) []ContentItem {
	if log == nil {
		log = slog.Default()
	}
	spTree := shapeTree(slideTree)
	if spTree == nil {
		log.Warn("slide has no shape tree", "slide", slideNumber)
		return nil
	}

	var items []ContentItem
	seq := 0
	emit := func(kind ItemKind, content, relID string) {
		items = append(items, ContentItem{
			Kind:             kind,
			Content:          content,
			ImageRelID:       relID,
			SequencePosition: seq,
			SlideNumber:      slideNumber,
		})
		seq++
	}

	shapes := collectShapes(spTree)

	// Title placeholder is always emitted first.
	var titleShape *ooxml.Node
	for _, sh := range shapes {
		if classifyShape(sh) == shapeTitle {
			titleShape = sh
			if text := shapeText(sh); text != "" {
				emit(KindTitle, "## "+text, "")
			}
			break
		}
	}

	for _, sh := range shapes {
		if sh == titleShape {
			continue
		}
		switch classifyShape(sh) {
		case shapeTable:
			// Table rendering suppresses separate text/image emission
			// for the same shape.
			if t := tableText(sh); t != "" {
				emit(KindTable, t, "")
			}
		case shapeChart:
			if t := chartText(sh); t != "" {
				emit(KindText, t, "")
			}
		default:
			for _, relID := range blipRelIDs(sh) {
				emit(KindImage, "", relID)
			}
			if text := shapeText(sh); text != "" {
				emit(KindText, text, "")
			}
		}
	}

	return items
}

// shapeTree locates cSld/spTree under the slide root.
func shapeTree(slideTree *ooxml.Node) *ooxml.Node {
	if slideTree == nil {
		return nil
	}
	cSld := slideTree.Child("cSld")
	if cSld == nil {
		return nil
	}
	return cSld.Child("spTree")
}

// collectShapes gathers shapes from three sources in fixed order:
// ungrouped shapes (including table/chart graphic frames) in document
// order, then picture shapes, then each group's text and picture
// sub-shapes, group by group.
func collectShapes(spTree *ooxml.Node) []*ooxml.Node {
	var shapes []*ooxml.Node
	for _, c := range spTree.Children {
		if c.Name == "sp" || c.Name == "graphicFrame" {
			shapes = append(shapes, c)
		}
	}
	shapes = append(shapes, spTree.ChildrenNamed("pic")...)
	for _, grp := range spTree.ChildrenNamed("grpSp") {
		shapes = append(shapes, grp.ChildrenNamed("sp")...)
		shapes = append(shapes, grp.ChildrenNamed("pic")...)
	}
	return shapes
}
