package pptx

import (
	"strings"

	"github.com/deckgest/deckgest/internal/ooxml"
)

// shapeKind is the closed classification of a slide shape, evaluated once
// per shape and switched on in the extractor.
type shapeKind int

const (
	shapeUnknown shapeKind = iota
	shapeTitle
	shapeTable
	shapeChart
	shapePicture
	shapePlainText
)

// classifyShape decides what a shape contributes. Title placeholders win,
// then tables, then charts, then picture content, then plain run text.
func classifyShape(sh *ooxml.Node) shapeKind {
	switch placeholderType(sh) {
	case "title", "ctrTitle":
		return shapeTitle
	}
	if len(sh.Find("tbl")) > 0 {
		return shapeTable
	}
	if isChart(sh) {
		return shapeChart
	}
	if len(blipRelIDs(sh)) > 0 {
		return shapePicture
	}
	if shapeText(sh) != "" {
		return shapePlainText
	}
	return shapeUnknown
}

// placeholderType returns the ph type attribute of a shape, or "".
func placeholderType(sh *ooxml.Node) string {
	phs := sh.Find("ph")
	if len(phs) == 0 {
		return ""
	}
	return phs[0].Attr("type")
}

func isChart(sh *ooxml.Node) bool {
	if len(sh.Find("chart")) > 0 {
		return true
	}
	for _, gd := range sh.Find("graphicData") {
		if strings.Contains(gd.Attr("uri"), "chart") {
			return true
		}
	}
	return false
}

// blipRelIDs returns the relationship ID of every image blip in the
// shape, in document order. A single shape can reference several images.
func blipRelIDs(sh *ooxml.Node) []string {
	var ids []string
	for _, blip := range sh.Find("blip") {
		if id := blip.Attr("embed"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// shapeText extracts run text from a shape's text body, preserving
// intra-shape line structure: runs concatenate within a paragraph,
// explicit breaks and empty paragraph-end markers insert newlines, and
// paragraphs join with \n.
func shapeText(sh *ooxml.Node) string {
	body := firstDescendant(sh, "txBody")
	if body == nil {
		return ""
	}

	var lines []string
	for _, para := range body.ChildrenNamed("p") {
		var sb strings.Builder
		hasRunText := false
		for _, child := range para.Children {
			switch child.Name {
			case "r":
				if tn := child.Child("t"); tn != nil {
					sb.WriteString(tn.Text)
					hasRunText = true
				}
			case "br":
				sb.WriteString("\n")
			}
		}
		if !hasRunText && para.Child("endParaRPr") != nil {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, sb.String())
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// tableText renders a table shape as markdown-ish rows: | cell | cell |.
func tableText(sh *ooxml.Node) string {
	tbls := sh.Find("tbl")
	if len(tbls) == 0 {
		return ""
	}

	var rows []string
	for _, tr := range tbls[0].Find("tr") {
		var cells []string
		for _, tc := range tr.ChildrenNamed("tc") {
			cells = append(cells, strings.ReplaceAll(cellText(tc), "\n", " "))
		}
		if len(cells) > 0 {
			rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

func cellText(tc *ooxml.Node) string {
	var parts []string
	for _, tn := range tc.Find("t") {
		if tn.Text != "" {
			parts = append(parts, tn.Text)
		}
	}
	return strings.Join(parts, " ")
}

// chartText collects textual chart labels reachable in the slide part
// itself: title, tx and string-reference subtrees.
func chartText(sh *ooxml.Node) string {
	var parts []string
	seen := make(map[string]bool)
	for _, name := range []string{"title", "tx", "strRef"} {
		for _, n := range sh.Find(name) {
			for _, leaf := range []string{"t", "v"} {
				for _, tn := range n.Find(leaf) {
					if tn.Text != "" && !seen[tn.Text] {
						seen[tn.Text] = true
						parts = append(parts, tn.Text)
					}
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}

func firstDescendant(n *ooxml.Node, name string) *ooxml.Node {
	found := n.Find(name)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}
