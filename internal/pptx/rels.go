package pptx

import (
	"strings"

	"github.com/deckgest/deckgest/internal/ooxml"
)

// ResolveRelationships maps a slide's relationship IDs to zip-internal
// asset paths. Targets beginning with ../ are relative to the package
// root rather than the part's own directory; the prefix is stripped so
// callers can join against ppt/. A nil or malformed relationships tree
// yields an empty map.
func ResolveRelationships(relsTree *ooxml.Node) map[string]string {
	rels := make(map[string]string)
	if relsTree == nil {
		return rels
	}
	for _, rel := range relsTree.ChildrenNamed("Relationship") {
		id := rel.Attr("Id")
		target := strings.TrimPrefix(rel.Attr("Target"), "../")
		if id != "" && target != "" {
			rels[id] = target
		}
	}
	return rels
}
