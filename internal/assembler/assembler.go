// Package assembler drives document extraction end to end: it walks a
// presentation slide by slide (or a long-form text document block by
// block), buffers text, processes embedded images, and emits bounded
// chunks in a single global position order.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/deckgest/deckgest/internal/chunker"
	"github.com/deckgest/deckgest/internal/imagepipe"
	"github.com/deckgest/deckgest/internal/metrics"
	"github.com/deckgest/deckgest/internal/ooxml"
	"github.com/deckgest/deckgest/internal/parser"
	"github.com/deckgest/deckgest/internal/pptx"
	"github.com/deckgest/deckgest/internal/sanitize"
)

// DefaultMaxTextBytes caps how much text one document may contribute
// before processing stops and the partial result is returned.
const DefaultMaxTextBytes = 500_000

// ProcessingResult holds the ordered chunks extracted from one document.
// TextChunks pairs with TextChunkPos and ImageChunks with ImageChunkPos;
// positions from both arrays merge into one strictly increasing sequence.
type ProcessingResult struct {
	TextChunks    []string `json:"text_chunks"`
	ImageChunks   []string `json:"image_chunks"`
	TextChunkPos  []int    `json:"text_chunk_pos"`
	ImageChunkPos []int    `json:"image_chunk_pos"`
}

// Options are the per-request extraction switches.
type Options struct {
	ExtractImages  bool
	DescribeImages bool
}

// Config bounds the output of one document pass.
type Config struct {
	MaxTextBytes  int
	MaxChunkBytes int
	OverlapBytes  int
}

func (c *Config) defaults() {
	if c.MaxTextBytes <= 0 {
		c.MaxTextBytes = DefaultMaxTextBytes
	}
	if c.MaxChunkBytes <= 0 {
		c.MaxChunkBytes = chunker.DefaultMaxChunkBytes
	}
	if c.OverlapBytes <= 0 {
		c.OverlapBytes = chunker.DefaultOverlapBytes
	}
}

// Assembler converts document bytes into a ProcessingResult.
type Assembler struct {
	cfg    Config
	images *imagepipe.Pipeline
	log    *slog.Logger
}

func New(cfg Config, images *imagepipe.Pipeline, log *slog.Logger) *Assembler {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{cfg: cfg, images: images, log: log}
}

// assemblerState carries the counters for one document pass. A fresh
// state is created per Process call; nothing here is shared.
type assemblerState struct {
	seq       int      // next global position
	textBytes int      // text accepted so far, in bytes
	overlap   string   // carried-over text and image tokens seeding the next flush
	buffer    []string // item texts awaiting a flush
	exhausted bool     // text budget reached, stop taking input
	result    ProcessingResult
}

func newState() *assemblerState {
	// Slices start non-nil so an empty result marshals as [] not null.
	return &assemblerState{
		result: ProcessingResult{
			TextChunks:    []string{},
			ImageChunks:   []string{},
			TextChunkPos:  []int{},
			ImageChunkPos: []int{},
		},
	}
}

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
var slideNumRe = regexp.MustCompile(`slide(\d+)\.xml$`)

// Process extracts chunks from one document. Presentation files take the
// slide path; everything else goes through the long-form text parsers.
// An unreadable container yields an empty result and a nil error: the
// caller should treat an empty result as "not indexable".
func (a *Assembler) Process(ctx context.Context, docID, filename string, data []byte, opts Options) (*ProcessingResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pptx", ".pptm", ".potx", ".ppsx":
		return a.processDeck(ctx, docID, data, opts)
	default:
		return a.processText(ctx, docID, filename, data)
	}
}

func (a *Assembler) processDeck(ctx context.Context, docID string, data []byte, opts Options) (*ProcessingResult, error) {
	c, err := ooxml.Open(data)
	if err != nil {
		if errors.Is(err, ooxml.ErrPasswordProtected) {
			a.log.Warn("skipping password-protected document", "doc_id", docID)
			metrics.Documents.WithLabelValues("password_protected").Inc()
		} else {
			a.log.Error("unreadable archive", "doc_id", docID, "error", err)
			metrics.Documents.WithLabelValues("corrupt").Inc()
		}
		return &newState().result, nil
	}

	st := newState()
	cache := imagepipe.NewCache()

	for _, part := range c.Parts(slidePartRe) {
		if ctx.Err() != nil {
			// Cancellation is honored at slide boundaries; the
			// in-flight buffer is discarded.
			a.log.Warn("processing cancelled", "doc_id", docID, "part", part)
			st.buffer = st.buffer[:0]
			st.overlap = ""
			break
		}
		a.processSlide(ctx, c, part, docID, st, cache, opts)
		if st.exhausted {
			a.log.Info("text budget reached, truncating document",
				"doc_id", docID, "part", part, "max_bytes", a.cfg.MaxTextBytes)
			break
		}
		if !opts.ExtractImages {
			a.flush(st)
		}
	}
	a.flush(st)

	metrics.Documents.WithLabelValues("completed").Inc()
	return &st.result, nil
}

func (a *Assembler) processSlide(ctx context.Context, c *ooxml.Container, part, docID string, st *assemblerState, cache *imagepipe.Cache, opts Options) {
	slideNum := slideNumberOf(part)

	tree, err := c.ReadXML(part)
	if err != nil || tree == nil {
		a.log.Warn("skipping malformed slide", "doc_id", docID, "part", part, "error", err)
		return
	}

	items := pptx.ExtractSlideContent(tree, slideNum, a.log)
	if notes := pptx.SpeakerNotes(c, slideNum, a.log); notes != "" {
		items = append(items, pptx.ContentItem{
			Kind:             pptx.KindNotes,
			Content:          notes,
			SequencePosition: len(items),
			SlideNumber:      slideNum,
		})
	}

	var rels map[string]string
	if opts.ExtractImages {
		rels = a.slideRelationships(c, part, docID)
	}

	for _, item := range items {
		if item.Kind == pptx.KindImage {
			if opts.ExtractImages {
				a.processImage(ctx, c, item, rels, docID, st, cache, opts)
			}
			continue
		}
		if item.Content == "" {
			continue
		}
		if st.textBytes+len(item.Content) > a.cfg.MaxTextBytes {
			st.exhausted = true
			return
		}
		st.buffer = append(st.buffer, item.Content)
		st.textBytes += len(item.Content)
	}
}

func (a *Assembler) slideRelationships(c *ooxml.Container, part, docID string) map[string]string {
	relsPath := path.Dir(part) + "/_rels/" + path.Base(part) + ".rels"
	tree, err := c.ReadXML(relsPath)
	if err != nil {
		a.log.Warn("unreadable relationships part", "doc_id", docID, "part", relsPath, "error", err)
		return nil
	}
	if tree == nil {
		return nil
	}
	return pptx.ResolveRelationships(tree)
}

func (a *Assembler) processImage(ctx context.Context, c *ooxml.Container, item pptx.ContentItem, rels map[string]string, docID string, st *assemblerState, cache *imagepipe.Cache, opts Options) {
	target, ok := rels[item.ImageRelID]
	if !ok {
		a.log.Warn("image relationship not resolved",
			"doc_id", docID, "slide", item.SlideNumber, "rel_id", item.ImageRelID)
		return
	}
	data, err := c.ReadPart("ppt/" + target)
	if err != nil || data == nil {
		a.log.Warn("image asset missing from archive",
			"doc_id", docID, "path", target, "error", err)
		return
	}

	// Flush buffered text before the image so the image chunk lands
	// after the text that precedes it; the tail of that text seeds the
	// next flush as overlap.
	if last := a.flush(st); last != "" {
		st.overlap = chunker.TrailingOverlap(last, a.cfg.OverlapBytes)
	}

	desc, err := a.images.Describe(ctx, data, target, cache, opts.DescribeImages)
	if err != nil {
		var se *imagepipe.SkipError
		if errors.As(err, &se) {
			a.log.Debug("image skipped", "doc_id", docID, "path", target, "reason", string(se.Reason))
		} else {
			a.log.Warn("describe image", "doc_id", docID, "path", target, "error", err)
		}
		return
	}

	pos := st.seq
	st.seq++
	if _, err := a.images.Persist(docID, pos, target, data); err != nil {
		// The position is consumed; a gap is harmless as long as the
		// merged sequence stays increasing.
		a.log.Warn("persist image", "doc_id", docID, "path", target, "error", err)
		return
	}

	st.result.ImageChunks = append(st.result.ImageChunks, desc)
	st.result.ImageChunkPos = append(st.result.ImageChunkPos, pos)
	metrics.Chunks.WithLabelValues("image").Inc()

	token := fmt.Sprintf("[[IMG#%d]]", pos)
	if st.overlap != "" {
		st.overlap += "\n" + token
	} else {
		st.overlap = token
	}
}

// flush chunks the buffered text, prefixed by any pending cross-image
// overlap, and appends the chunks to the result. It returns the last
// chunk emitted, or "" when the buffer was empty (a pending overlap is
// kept for the next flush in that case).
func (a *Assembler) flush(st *assemblerState) string {
	if len(st.buffer) == 0 {
		return ""
	}
	text := strings.Join(st.buffer, "\n")
	if st.overlap != "" {
		text = st.overlap + "\n" + text
	}
	st.buffer = st.buffer[:0]

	chunks := chunker.Chunk(sanitize.Clean(text), a.cfg.MaxChunkBytes, a.cfg.OverlapBytes)
	if len(chunks) == 0 {
		// Sanitization emptied the buffer; keep the pending overlap
		// (and any image tokens in it) for the next flush.
		return ""
	}
	st.overlap = ""
	for _, chunk := range chunks {
		st.result.TextChunks = append(st.result.TextChunks, chunk)
		st.result.TextChunkPos = append(st.result.TextChunkPos, st.seq)
		st.seq++
		metrics.Chunks.WithLabelValues("text").Inc()
	}
	return chunks[len(chunks)-1]
}

func (a *Assembler) processText(ctx context.Context, docID, filename string, data []byte) (*ProcessingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		metrics.Documents.WithLabelValues("unsupported").Inc()
		return nil, err
	}

	blocks, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		a.log.Error("parse document", "doc_id", docID, "filename", filename, "error", err)
		metrics.Documents.WithLabelValues("corrupt").Inc()
		return &newState().result, nil
	}

	st := newState()
	for _, b := range blocks {
		text := b.Text
		if b.Heading {
			text = "## " + text
		}
		if st.textBytes+len(text) > a.cfg.MaxTextBytes {
			a.log.Info("text budget reached, truncating document",
				"doc_id", docID, "max_bytes", a.cfg.MaxTextBytes)
			break
		}
		st.buffer = append(st.buffer, text)
		st.textBytes += len(text)
	}
	a.flush(st)

	metrics.Documents.WithLabelValues("completed").Inc()
	return &st.result, nil
}

func slideNumberOf(part string) int {
	m := slideNumRe.FindStringSubmatch(part)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
