package imagepipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// countingDescriber is a deterministic captioning stub.
type countingDescriber struct {
	calls    int
	response string
	err      error
}

func (d *countingDescriber) Describe(ctx context.Context, img []byte) (string, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	return d.response, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func testConfig() Config {
	return Config{MinBytes: 1, MaxBytes: 1 << 20}
}

func skipReason(t *testing.T, err error) SkipReason {
	t.Helper()
	var se *SkipError
	if !errors.As(err, &se) {
		t.Fatalf("expected SkipError, got %v", err)
	}
	return se.Reason
}

func TestDescribe_HappyPath(t *testing.T) {
	d := &countingDescriber{response: "A colorful gradient."}
	p := New(testConfig(), d, nil, nil)

	desc, err := p.Describe(context.Background(), pngBytes(t, 16, 16), "media/image1.png", NewCache(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc != "A colorful gradient." {
		t.Errorf("expected model description, got %q", desc)
	}
	if d.calls != 1 {
		t.Errorf("expected 1 caption call, got %d", d.calls)
	}
}

func TestDescribe_DuplicateBytesSingleCaptionCall(t *testing.T) {
	d := &countingDescriber{response: "The company logo."}
	p := New(testConfig(), d, nil, nil)
	cache := NewCache()
	data := pngBytes(t, 16, 16)

	for i := 0; i < 3; i++ {
		desc, err := p.Describe(context.Background(), data, fmt.Sprintf("media/image%d.png", i+1), cache, true)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if desc != "The company logo." {
			t.Errorf("call %d: expected cached description, got %q", i, desc)
		}
	}
	if d.calls != 1 {
		t.Errorf("expected exactly 1 caption call for identical bytes, got %d", d.calls)
	}
}

func TestDescribe_DeclinedIsCached(t *testing.T) {
	d := &countingDescriber{response: "NOT_WORTH_DESCRIBING"}
	p := New(testConfig(), d, nil, nil)
	cache := NewCache()
	data := pngBytes(t, 16, 16)

	for i := 0; i < 2; i++ {
		_, err := p.Describe(context.Background(), data, "media/a.png", cache, true)
		if got := skipReason(t, err); got != SkipNoDescription {
			t.Errorf("call %d: expected no_description skip, got %v", i, got)
		}
	}
	if d.calls != 1 {
		t.Errorf("declined bytes must not re-invoke the model, got %d calls", d.calls)
	}
}

func TestDescribe_SizeGates(t *testing.T) {
	p := New(Config{MinBytes: 100, MaxBytes: 200}, &countingDescriber{}, nil, nil)

	_, err := p.Describe(context.Background(), make([]byte, 50), "media/tiny.png", NewCache(), true)
	if got := skipReason(t, err); got != SkipTooSmall {
		t.Errorf("expected too_small, got %v", got)
	}

	_, err = p.Describe(context.Background(), make([]byte, 500), "media/huge.png", NewCache(), true)
	if got := skipReason(t, err); got != SkipTooLarge {
		t.Errorf("expected too_large, got %v", got)
	}
}

func TestDescribe_UnsupportedExtension(t *testing.T) {
	p := New(testConfig(), &countingDescriber{}, nil, nil)
	_, err := p.Describe(context.Background(), pngBytes(t, 8, 8), "media/movie.wmv", NewCache(), true)
	if got := skipReason(t, err); got != SkipUnsupported {
		t.Errorf("expected unsupported_type, got %v", got)
	}
}

func TestDescribe_UndecodableBytes(t *testing.T) {
	p := New(testConfig(), &countingDescriber{}, nil, nil)
	_, err := p.Describe(context.Background(), []byte("not an image at all"), "media/x.png", NewCache(), true)
	if got := skipReason(t, err); got != SkipUndecodable {
		t.Errorf("expected undecodable, got %v", got)
	}
}

func TestDescribe_CaptionFailureSkips(t *testing.T) {
	d := &countingDescriber{err: errors.New("model exploded")}
	p := New(testConfig(), d, nil, nil)
	_, err := p.Describe(context.Background(), pngBytes(t, 8, 8), "media/x.png", NewCache(), true)
	if got := skipReason(t, err); got != SkipCaptionFailed {
		t.Errorf("expected caption_failed, got %v", got)
	}
}

func TestDescribe_DisabledUsesPlaceholder(t *testing.T) {
	d := &countingDescriber{response: "should not be called"}
	p := New(testConfig(), d, nil, nil)
	desc, err := p.Describe(context.Background(), pngBytes(t, 8, 8), "media/x.png", NewCache(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc != PlaceholderDescription {
		t.Errorf("expected placeholder description, got %q", desc)
	}
	if d.calls != 0 {
		t.Errorf("model must not be called when describing is disabled, got %d calls", d.calls)
	}
}

func TestStore_WriteLayout(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	path, err := s.Write("doc-123", "4.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "doc-123", "4.png")
	if path != want {
		t.Errorf("expected path %q, got %q", want, path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("expected persisted bytes, got %q (%v)", data, err)
	}
}

func TestStore_FailedWriteCleansUpCreatedDir(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	// An empty name resolves the destination to the directory itself,
	// so the write fails right after the directory was created.
	if _, err := s.Write("doc-new", "", []byte("data")); err == nil {
		t.Fatal("expected write failure")
	}
	if _, err := os.Stat(filepath.Join(root, "doc-new")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected just-created directory to be removed, got %v", err)
	}
}

func TestStore_FailedWritePreservesExistingDir(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	// A directory squatting on the target filename forces the write to
	// fail. The document directory existed before the call, so cleanup
	// must leave it alone.
	if err := os.MkdirAll(filepath.Join(root, "doc-x", "4.png"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := s.Write("doc-x", "4.png", []byte("data")); err == nil {
		t.Fatal("expected write failure")
	}
	if _, err := os.Stat(filepath.Join(root, "doc-x")); err != nil {
		t.Errorf("pre-existing directory must survive a failed write: %v", err)
	}
}

func TestPersist_NamesByGlobalPosition(t *testing.T) {
	root := t.TempDir()
	p := New(testConfig(), &countingDescriber{}, NewStore(root), nil)
	path, err := p.Persist("doc-9", 17, "ppt/media/image3.JPEG", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "17.jpeg" {
		t.Errorf("expected 17.jpeg, got %q", filepath.Base(path))
	}
}
