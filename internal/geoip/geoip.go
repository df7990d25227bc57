// Package geoip: visitor IP -> coordinate lookups against a GeoLite2/GeoIP2 City database.
package geoip

import (
	"errors"
	"fmt"
	"net"

	"market-map/internal/logger"

	"github.com/oschwald/geoip2-golang"
)

var (
	ErrBadIP    = errors.New("invalid ip")
	ErrNotFound = errors.New("ip not located")
)

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// Point: located coordinate with coarse labels.
type Point struct {
	IP      string  `json:"ip"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Country string  `json:"country"`
	City    string  `json:"city"`
}

// Locator is safe for concurrent use.
type Locator struct {
	r cityReader
}

// Open loads the mmdb file at path.
func Open(path string) (*Locator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	logger.L().Info("geoip_open_ok", "path", path)
	return &Locator{r: r}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.r == nil {
		return nil
	}
	return l.r.Close()
}

// Locate resolves ip. Records without coordinates are ErrNotFound.
func (l *Locator) Locate(ip string) (Point, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Point{}, ErrBadIP
	}
	rec, err := l.r.City(parsed)
	if err != nil {
		return Point{}, fmt.Errorf("geoip lookup: %w", err)
	}
	if rec == nil || (rec.Location.Latitude == 0 && rec.Location.Longitude == 0) {
		return Point{}, ErrNotFound
	}
	city := rec.City.Names["ko"]
	if city == "" {
		city = rec.City.Names["en"]
	}
	return Point{
		IP:      ip,
		Lat:     rec.Location.Latitude,
		Lng:     rec.Location.Longitude,
		Country: rec.Country.IsoCode,
		City:    city,
	}, nil
}
