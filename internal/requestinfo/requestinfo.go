// internal/requestinfo/requestinfo.go
//
// Per-request metadata: user-agent fingerprint, client IP plus optional
// geolocation, path, and arrival time.  The structs are inert, so they are
// safe to log or JSON-encode.
//
// Dependencies
// • github.com/avct/uasurfer         (UA parsing, see ua.go)
// • github.com/oschwald/geoip2-golang (MaxMind lookup)
package requestinfo

import (
	"context"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// Geo holds IP-based geolocation hints.  Fields may be empty when no
// database is configured or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is attached to the request context by Enrich.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Path      string
	Timestamp time.Time
}

// GeoDB wraps a MaxMind reader.  A nil *GeoDB is valid and resolves
// nothing.
type GeoDB struct {
	r *geoip2.Reader
}

// OpenGeo opens a GeoLite2-City database.  An empty path returns (nil, nil)
// so geolocation stays optional.
func OpenGeo(path string) (*GeoDB, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoDB{r: r}, nil
}

// Close releases the reader.
func (g *GeoDB) Close() error {
	if g == nil || g.r == nil {
		return nil
	}
	return g.r.Close()
}

// Lookup returns best-effort Geo data.
func (g *GeoDB) Lookup(ip net.IP) Geo {
	if g == nil || g.r == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := g.r.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

type ctxKey struct{}

// FromContext returns the value stored by Enrich, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}
