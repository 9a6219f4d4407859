package httpapi

import (
	_ "embed"
	"os"
	"sync"
	"time"
)

//go:embed fallback.html
var fallbackPage []byte

// Dashboard serves template.html from disk, re-reading it only when its
// modification time changes. When the file cannot be read the last good copy
// is served, or the built-in page if there never was one.
type Dashboard struct {
	Path string

	mu    sync.Mutex
	cache []byte
	mtime time.Time
}

func NewDashboard(path string) *Dashboard {
	return &Dashboard{Path: path}
}

func (d *Dashboard) Page() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	fi, err := os.Stat(d.Path)
	if err != nil {
		return d.fallbackLocked()
	}
	if d.cache == nil || fi.ModTime().After(d.mtime) {
		b, err := os.ReadFile(d.Path)
		if err != nil {
			return d.fallbackLocked()
		}
		d.cache = b
		d.mtime = fi.ModTime()
	}
	return d.cache
}

func (d *Dashboard) fallbackLocked() []byte {
	if d.cache != nil {
		return d.cache
	}
	return fallbackPage
}
