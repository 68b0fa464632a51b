// Package geoloc wraps the geolocation collaborators: ip-api.com and
// ipwho.is for IP intelligence, OpenCage for reverse geocoding. All calls go
// through the dispatcher so they inherit the tiered fallback behaviour.
package geoloc

import (
	"context"

	"geointel/internal/dispatch"
)

// Getter is the dispatcher surface the clients need.
type Getter interface {
	Get(ctx context.Context, url string) (*dispatch.Result, error)
}
