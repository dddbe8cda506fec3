package pptx

import (
	"testing"

	"github.com/deckgest/deckgest/internal/ooxml"
)

func TestResolveRelationships(t *testing.T) {
	relsXML := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>` +
		`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image2.jpeg"/>` +
		`</Relationships>`
	tree, err := ooxml.Parse([]byte(relsXML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	rels := ResolveRelationships(tree)
	if len(rels) != 3 {
		t.Fatalf("expected 3 relationships, got %d", len(rels))
	}
	if rels["rId2"] != "media/image1.png" {
		t.Errorf("expected ../ prefix stripped, got %q", rels["rId2"])
	}
	if rels["rId3"] != "media/image2.jpeg" {
		t.Errorf("expected target kept as-is, got %q", rels["rId3"])
	}
}

func TestResolveRelationships_NilTree(t *testing.T) {
	rels := ResolveRelationships(nil)
	if rels == nil || len(rels) != 0 {
		t.Errorf("expected empty map for nil tree, got %v", rels)
	}
}

func TestResolveRelationships_MalformedEntries(t *testing.T) {
	relsXML := `<Relationships>` +
		`<Relationship Id="" Target="media/x.png"/>` +
		`<Relationship Id="rId1" Target=""/>` +
		`<Relationship Id="rId2" Target="media/ok.png"/>` +
		`</Relationships>`
	tree, err := ooxml.Parse([]byte(relsXML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	rels := ResolveRelationships(tree)
	if len(rels) != 1 || rels["rId2"] != "media/ok.png" {
		t.Errorf("expected only the complete entry, got %v", rels)
	}
}
