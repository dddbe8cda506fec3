package imagepipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the filesystem sink for persisted image assets, laid out as
// <root>/<documentID>/<globalPosition>.<ext>.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Write performs a scoped write: create the document directory, write
// the file, and on write failure remove the directory that was just
// created so a failed write never leaves partial state.
func (s *Store) Write(docID, name string, data []byte) (string, error) {
	dir := filepath.Join(s.root, docID)
	created := false
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		created = true
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		if created {
			os.RemoveAll(dir)
		}
		return "", fmt.Errorf("write image: %w", err)
	}
	return dst, nil
}
