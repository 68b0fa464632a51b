package geoloc

import (
	"net"

	"github.com/oschwald/geoip2-golang"

	"geointel/internal/shared/logger"
)

// MMDBResolver annotates IPs with a country name from a local GeoLite2 City
// database, with no network round trip. Optional: a nil resolver is valid
// and resolves nothing.
type MMDBResolver struct {
	db *geoip2.Reader
}

// OpenMMDB opens the database at path. An empty path or open failure yields
// a nil resolver, which is safe to use.
func OpenMMDB(path string) *MMDBResolver {
	if path == "" {
		return nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		l := logger.WithComponent("Geoloc")
		l.Warn().Err(err).Str("path", path).
			Msg("Could not open GeoLite2 database; proxy annotation disabled.")
		return nil
	}
	return &MMDBResolver{db: db}
}

// Country returns the English country name for ip, or "" when unknown.
func (r *MMDBResolver) Country(ip string) string {
	if r == nil || r.db == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	rec, err := r.db.Country(parsed)
	if err != nil {
		return ""
	}
	return rec.Country.Names["en"]
}

// Close releases the database handle.
func (r *MMDBResolver) Close() {
	if r != nil && r.db != nil {
		r.db.Close()
	}
}
