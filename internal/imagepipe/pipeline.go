// Package imagepipe validates, deduplicates, describes and persists
// embedded images pulled out of documents.
package imagepipe

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/deckgest/deckgest/internal/caption"
	"github.com/deckgest/deckgest/internal/metrics"
)

// SkipReason says why an image was dropped without failing the document.
type SkipReason string

const (
	SkipTooSmall      SkipReason = "too_small"
	SkipTooLarge      SkipReason = "too_large"
	SkipUnsupported   SkipReason = "unsupported_type"
	SkipUndecodable   SkipReason = "undecodable"
	SkipNoDescription SkipReason = "no_description"
	SkipCaptionFailed SkipReason = "caption_failed"
)

// SkipError is the terminal, non-fatal outcome of a validation gate or a
// declined caption. Callers detect it with errors.As and continue.
type SkipError struct {
	Reason SkipReason
	Detail string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("image skipped (%s): %s", e.Reason, e.Detail)
}

func skip(reason SkipReason, format string, args ...any) error {
	metrics.ImagesSkipped.WithLabelValues(string(reason)).Inc()
	return &SkipError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// PlaceholderDescription is used when describing is disabled: the image
// is still persisted and emitted, only the model call is skipped.
const PlaceholderDescription = "Embedded document image"

// A caption call is given this long before the image is skipped.
const describeTimeout = 90 * time.Second

// Images are downscaled to fit this bound before the caption call; the
// original bytes are what get persisted.
const maxCaptionEdge = 1536

// Config bounds what the pipeline accepts.
type Config struct {
	// MinBytes filters decorative, logo-sized images.
	MinBytes int
	// MaxBytes guards against resource exhaustion from huge media.
	MaxBytes int
	// Extensions is the supported extension allow-list (lowercase,
	// without the dot).
	Extensions map[string]bool
}

func (c *Config) defaults() {
	if c.MinBytes <= 0 {
		c.MinBytes = 10 * 1024
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 20 * 1024 * 1024
	}
	if len(c.Extensions) == 0 {
		c.Extensions = map[string]bool{
			"png": true, "jpg": true, "jpeg": true,
			"gif": true, "bmp": true, "tiff": true,
		}
	}
}

// Cache deduplicates caption calls by content hash for the duration of
// one document run. It records declined outcomes too, so repeat bytes
// never re-invoke the model.
type Cache struct {
	entries map[string]cacheEntry
}

type cacheEntry struct {
	description string
	declined    bool
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Pipeline processes embedded image assets for one or more documents.
type Pipeline struct {
	cfg       Config
	describer caption.Describer
	store     *Store
	log       *slog.Logger
}

func New(cfg Config, describer caption.Describer, store *Store, log *slog.Logger) *Pipeline {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, describer: describer, store: store, log: log}
}

// Describe runs the validation gates, deduplicates by content hash, and
// obtains a description for the image — from the cache, the placeholder,
// or the captioning model. A *SkipError result means drop this image and
// continue.
func (p *Pipeline) Describe(ctx context.Context, data []byte, assetPath string, cache *Cache, describe bool) (string, error) {
	ext := extensionOf(assetPath)

	if len(data) < p.cfg.MinBytes {
		return "", skip(SkipTooSmall, "%s is %d bytes, below minimum %d", assetPath, len(data), p.cfg.MinBytes)
	}
	if len(data) > p.cfg.MaxBytes {
		return "", skip(SkipTooLarge, "%s is %d bytes, above maximum %d", assetPath, len(data), p.cfg.MaxBytes)
	}
	if !p.cfg.Extensions[ext] {
		return "", skip(SkipUnsupported, "%s has unsupported extension %q", assetPath, ext)
	}

	hash := contentHash(data)
	if e, ok := cache.entries[hash]; ok {
		if e.declined {
			return "", skip(SkipNoDescription, "%s previously declined (hash %s)", assetPath, hash)
		}
		return e.description, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", skip(SkipUndecodable, "%s does not decode: %v", assetPath, err)
	}

	if !describe || p.describer == nil {
		cache.entries[hash] = cacheEntry{description: PlaceholderDescription}
		return PlaceholderDescription, nil
	}

	// Shrink oversized pixels before shipping them to the model.
	payload := data
	bounds := img.Bounds()
	if bounds.Dx() > maxCaptionEdge || bounds.Dy() > maxCaptionEdge {
		fitted := imaging.Fit(img, maxCaptionEdge, maxCaptionEdge, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, fitted, imaging.PNG); err == nil {
			payload = buf.Bytes()
		}
	}

	desc, err := p.describeWithRetry(ctx, payload)
	if err != nil {
		return "", skip(SkipCaptionFailed, "%s: %v", assetPath, err)
	}
	if caption.NotWorthDescribing(desc) {
		// Remember the decline so repeat bytes skip the model call.
		cache.entries[hash] = cacheEntry{declined: true}
		return "", skip(SkipNoDescription, "%s declined by model", assetPath)
	}

	cache.entries[hash] = cacheEntry{description: desc}
	return desc, nil
}

func (p *Pipeline) describeWithRetry(ctx context.Context, payload []byte) (string, error) {
	var desc string
	var err error
	for attempt := 0; attempt < caption.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, describeTimeout)
		desc, err = p.describer.Describe(callCtx, payload)
		cancel()
		if err == nil {
			metrics.CaptionRequests.WithLabelValues("ok").Inc()
			return desc, nil
		}
		metrics.CaptionRequests.WithLabelValues("error").Inc()
		if !caption.IsRetryable(err) {
			break
		}
		p.log.Warn("retryable caption error", "attempt", attempt, "error", err)
		select {
		case <-time.After(caption.Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", err
}

// Persist writes the raw image bytes under the document's image
// directory, named by the chunk's global position.
func (p *Pipeline) Persist(docID string, globalPosition int, assetPath string, data []byte) (string, error) {
	if p.store == nil {
		return "", errors.New("no image store configured")
	}
	name := fmt.Sprintf("%d.%s", globalPosition, extensionOf(assetPath))
	return p.store.Write(docID, name, data)
}

func extensionOf(assetPath string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(assetPath), "."))
}

func contentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
