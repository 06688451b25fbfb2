package models

import "math"

// earthRadiusMeters matches the radius MongoDB uses for 2dsphere distance math.
const earthRadiusMeters = 6378100.0

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewPoint(longitude, latitude float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

func (p GeoPoint) Longitude() float64 { return p.coord(0) }
func (p GeoPoint) Latitude() float64  { return p.coord(1) }

func (p GeoPoint) coord(i int) float64 {
	if len(p.Coordinates) != 2 {
		return math.NaN()
	}
	return p.Coordinates[i]
}

// DistanceMeters is the great-circle distance between p and q (haversine).
func (p GeoPoint) DistanceMeters(q GeoPoint) float64 {
	lat1 := toRadians(p.Latitude())
	lat2 := toRadians(q.Latitude())
	dLat := lat2 - lat1
	dLng := toRadians(q.Longitude() - p.Longitude())

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// WithinRadius reports whether q lies within radiusMeters of p. The boundary is
// inclusive, like $maxDistance.
func (p GeoPoint) WithinRadius(q GeoPoint, radiusMeters float64) bool {
	return p.DistanceMeters(q) <= radiusMeters
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
