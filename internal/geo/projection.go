// Package geo provides map projection and curve geometry for the trade map.
package geo

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/wroge/wgs84"
)

// GeoPoint is a geographic position in degrees.
type GeoPoint struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

// Valid reports whether the point lies within [-90,90] x [-180,180].
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lng)
}

// Project maps a geographic point onto a width x height viewport using the
// equirectangular projection. A zero-sized viewport maps every point to the
// origin.
func Project(p GeoPoint, width, height float64) r2.Point {
	if width <= 0 || height <= 0 {
		return r2.Point{}
	}
	return r2.Point{
		X: (p.Lng + 180) / 360 * width,
		Y: (90 - p.Lat) / 180 * height,
	}
}

// Projection selects how geographic points are placed on the viewport.
type Projection int

const (
	// Equirectangular is the plate carrée projection used by default.
	Equirectangular Projection = iota

	// Mercator is Web Mercator (EPSG:3857), stretched to fill the viewport.
	Mercator
)

// MaxMercatorLat is the latitude at which Web Mercator becomes square.
const MaxMercatorLat = 85.05112878

// mercatorHalfExtent is half the EPSG:3857 world width in metres.
const mercatorHalfExtent = 20037508.342789244

func (p Projection) String() string {
	switch p {
	case Equirectangular:
		return "equirectangular"
	case Mercator:
		return "mercator"
	default:
		return "unknown"
	}
}

// ParseProjection parses a projection name. Unknown names fall back to
// Equirectangular.
func ParseProjection(s string) Projection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mercator", "webmercator", "epsg:3857", "3857":
		return Mercator
	default:
		return Equirectangular
	}
}

var (
	mercatorOnce sync.Once
	toMercator   func(a, b, c float64) (float64, float64, float64)
)

func mercatorTransform() func(a, b, c float64) (float64, float64, float64) {
	mercatorOnce.Do(func() {
		toMercator = wgs84.EPSG().Transform(4326, 3857)
	})
	return toMercator
}

// Project maps p onto a width x height viewport with the receiver's projection.
func (pr Projection) Project(p GeoPoint, width, height float64) r2.Point {
	if pr != Mercator {
		return Project(p, width, height)
	}
	if width <= 0 || height <= 0 {
		return r2.Point{}
	}

	lat := math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, p.Lat))
	x, y, _ := mercatorTransform()(p.Lng, lat, 0)

	return r2.Point{
		X: (x + mercatorHalfExtent) / (2 * mercatorHalfExtent) * width,
		Y: (mercatorHalfExtent - y) / (2 * mercatorHalfExtent) * height,
	}
}
