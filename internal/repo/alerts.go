package repo

import "github.com/hamed0406/certwatch/internal/domain"

// AlertHistory maps a host to the calendar date (domain.DateLayout) of its
// most recent expiry alert.
type AlertHistory map[domain.Host]string

// Clone returns an independent copy; a nil history clones to an empty one.
func (h AlertHistory) Clone() AlertHistory {
	out := make(AlertHistory, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
