// Package sites reads the flat list of hostnames to monitor.
package sites

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hamed0406/certwatch/internal/domain"
)

// Parse reads one hostname per line (first CSV column). Blank lines and lines
// starting with '#' are skipped, names are trimmed and lowercased, entries
// without a dot are rejected and duplicates keep their first position.
func Parse(r io.Reader) ([]domain.Host, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	seen := make(map[domain.Host]struct{})
	var out []domain.Host
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("parse sites: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(rec[0]))
		if name == "" || strings.HasPrefix(name, "#") || !strings.Contains(name, ".") {
			continue
		}
		h := domain.Host(name)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out, nil
}

// File is a reloadable site list backed by a path on disk.
type File struct {
	Path string
}

// Load re-reads the file. A missing or unreadable file is an error; callers
// decide whether to keep their previous list.
func (f File) Load() ([]domain.Host, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open sites: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}
