// Package ooxml reads zip-packaged Office Open XML containers and parses
// their XML parts into generic attributed trees.
package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

var (
	// ErrPasswordProtected marks an encrypted document. Expected,
	// recoverable input class: callers skip and log at warn.
	ErrPasswordProtected = errors.New("document is password protected")

	// ErrCorruptArchive marks a container that is not a readable zip.
	ErrCorruptArchive = errors.New("corrupt archive")
)

// Encrypted OOXML files are OLE compound files, not zips.
var cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Container is an opened OOXML package.
type Container struct {
	parts map[string]*zip.File
	names []string
}

// Open loads data as a zip archive. Password protection is reported as
// ErrPasswordProtected, any other open failure as ErrCorruptArchive.
func Open(data []byte) (*Container, error) {
	if bytes.HasPrefix(data, cfbMagic) {
		return nil, ErrPasswordProtected
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	c := &Container{parts: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		// General purpose flag bit 0 marks per-entry encryption.
		if f.Flags&0x1 != 0 {
			return nil, ErrPasswordProtected
		}
		c.parts[f.Name] = f
		c.names = append(c.names, f.Name)
	}
	return c, nil
}

// Parts returns archive entry names matching re, sorted by the first
// embedded integer so slide2.xml sorts before slide10.xml. Names without
// an embedded integer sort after numbered ones, lexicographically.
func (c *Container) Parts(re *regexp.Regexp) []string {
	var out []string
	for _, name := range c.names {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, oki := embeddedInt(out[i])
		nj, okj := embeddedInt(out[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return out[i] < out[j]
		}
	})
	return out
}

var intRe = regexp.MustCompile(`\d+`)

func embeddedInt(name string) (int, bool) {
	m := intRe.FindString(name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ReadXML parses the named part into a Node tree. A missing part returns
// (nil, nil): not every slide has notes or relationships.
func (c *Container) ReadXML(path string) (*Node, error) {
	data, err := c.ReadPart(path)
	if err != nil || data == nil {
		return nil, err
	}
	node, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("part %s: %w", path, err)
	}
	return node, nil
}

// ReadPart returns the raw bytes of the named part, or (nil, nil) when
// the part is absent.
func (c *Container) ReadPart(path string) ([]byte, error) {
	f, ok := c.parts[path]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", path, err)
	}
	return data, nil
}

// HasPart reports whether the archive contains the named entry.
func (c *Container) HasPart(path string) bool {
	_, ok := c.parts[path]
	return ok
}
