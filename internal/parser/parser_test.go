package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	blocks, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, w := range want {
		if blocks[i].Text != w {
			t.Errorf("block[%d]: expected %q, got %q", i, w, blocks[i].Text)
		}
		if blocks[i].Heading {
			t.Errorf("block[%d]: plain text should never be a heading", i)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	blocks, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected 0 blocks for empty input, got %d", len(blocks))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	blocks, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
}

func TestMarkdownParser_HeadingsAndBody(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	blocks, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Block{
		{Heading: true, Text: "Title"},
		{Text: "Intro text."},
		{Heading: true, Text: "Section A"},
		{Text: "Section A content."},
		{Heading: true, Text: "Section B"},
		{Text: "Section B content."},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
	}
	for i, w := range want {
		if blocks[i] != w {
			t.Errorf("block[%d]: expected %+v, got %+v", i, w, blocks[i])
		}
	}
}

func TestMarkdownParser_ParagraphTextNotDuplicated(t *testing.T) {
	input := "Intro text.\n\nA second paragraph with a [link](https://example.com) inline.\n"

	p := &MarkdownParser{}
	blocks, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d: %+v", len(blocks), blocks)
	}
	if n := strings.Count(blocks[0].Text, "Intro text."); n != 1 {
		t.Errorf("paragraph text emitted %d times, want once: %q", n, blocks[0].Text)
	}
	if n := strings.Count(blocks[0].Text, "second paragraph"); n != 1 {
		t.Errorf("inline-bearing paragraph emitted %d times, want once: %q", n, blocks[0].Text)
	}
}

func TestMarkdownParser_ListItemsExtracted(t *testing.T) {
	input := "- first item\n- second item\n"

	p := &MarkdownParser{}
	blocks, err := p.Parse(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var all string
	for _, b := range blocks {
		all += b.Text + "\n"
	}
	for _, want := range []string{"first item", "second item"} {
		if strings.Count(all, want) != 1 {
			t.Errorf("expected %q exactly once in %q", want, all)
		}
	}
}

func TestMarkdownParser_CodeBlocksKept(t *testing.T) {
	input := "## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	blocks, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body string
	for _, b := range blocks {
		if !b.Heading {
			body += b.Text + "\n"
		}
	}
	if !strings.Contains(body, "GET /api/users") {
		t.Errorf("expected code block content in body, got %q", body)
	}
	if !strings.Contains(body, "More text after code.") {
		t.Errorf("expected post-code text, got %q", body)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	blocks, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected 0 blocks for empty input, got %d", len(blocks))
	}
}

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	input := `<html><head><title>ignored</title><style>p{color:red}</style></head>
<body>
<h1>Welcome</h1>
<p>First paragraph.</p>
<script>alert("skip me")</script>
<h2>Details</h2>
<p>Second paragraph.</p>
</body></html>`

	p := &HTMLParser{}
	blocks, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Block{
		{Heading: true, Text: "Welcome"},
		{Text: "First paragraph."},
		{Heading: true, Text: "Details"},
		{Text: "Second paragraph."},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
	}
	for i, w := range want {
		if blocks[i] != w {
			t.Errorf("block[%d]: expected %+v, got %+v", i, w, blocks[i])
		}
	}
}

func TestCSVParser_HeadersRepeatedPerBatch(t *testing.T) {
	var input strings.Builder
	input.WriteString("name,score\n")
	for i := 0; i < 25; i++ {
		input.WriteString("row,1\n")
	}

	p := &CSVParser{}
	blocks, err := p.Parse(strings.NewReader(input.String()), "scores.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 25 rows with a batch size of 20 gives two blocks.
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if !strings.Contains(b.Text, "Headers: name, score") {
			t.Errorf("block[%d]: missing header line: %q", i, b.Text)
		}
		if !strings.Contains(b.Text, "name: row, score: 1") {
			t.Errorf("block[%d]: missing labelled row: %q", i, b.Text)
		}
	}
}

func TestCSVParser_EmptyInput(t *testing.T) {
	p := &CSVParser{}
	blocks, err := p.Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected 0 blocks, got %d", len(blocks))
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"report.txt", false},
		{"README.md", false},
		{"notes.markdown", false},
		{"data.csv", false},
		{"page.HTML", false},
		{"paper.pdf", false},
		{"letter.docx", false},
		{"deck.pptx", true}, // presentations take the slide path
		{"binary.exe", true},
		{"noext", true},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.filename)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q): err=%v, wantErr=%v", tt.filename, err, tt.wantErr)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("a.TXT") {
		t.Error("expected .TXT to be supported")
	}
	if IsSupportedExtension("deck.pptx") {
		t.Error("pptx is handled by the slide extractor, not this package")
	}
}
