package dispatch

import (
	"bytes"
	"strings"
)

// BlockDetector decides whether a response signals throttling, blocking, or
// an anti-bot interstitial. Detection accuracy is a tunable boundary, so the
// predicate is pluggable rather than baked into the dispatcher.
type BlockDetector interface {
	Blocked(status int, body []byte) bool
}

// MarkerDetector flags configured status codes plus case-insensitive body
// markers typical of challenge interstitials.
type MarkerDetector struct {
	statuses map[int]struct{}
	markers  [][]byte
}

// defaultMarkers match the interstitial pages Cloudflare serves in front of
// blocked origins.
var defaultMarkers = []string{
	"cf-browser-verification",
	"just a moment",
	"checking your browser",
	"attention required! | cloudflare",
}

// NewMarkerDetector builds a detector for the given block statuses. When
// markers is nil the default interstitial markers are used.
func NewMarkerDetector(statuses []int, markers []string) *MarkerDetector {
	if markers == nil {
		markers = defaultMarkers
	}
	d := &MarkerDetector{
		statuses: make(map[int]struct{}, len(statuses)),
		markers:  make([][]byte, 0, len(markers)),
	}
	for _, s := range statuses {
		d.statuses[s] = struct{}{}
	}
	for _, m := range markers {
		d.markers = append(d.markers, []byte(strings.ToLower(m)))
	}
	return d
}

func (d *MarkerDetector) Blocked(status int, body []byte) bool {
	if _, ok := d.statuses[status]; ok {
		return true
	}
	lower := bytes.ToLower(body)
	for _, m := range d.markers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}
