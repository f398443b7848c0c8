// Package geo holds the classroom position and the coordinate-difference
// check used to decide whether a student is in the room.
package geo

import "math"

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Classroom is a center point with an allowed per-axis deviation in degrees.
type Classroom struct {
	Center Point
	Radius float64
}

// Check is the outcome of comparing a position against a classroom.
type Check struct {
	Inside  bool    `json:"inside_classroom"`
	LatDiff float64 `json:"lat_diff"`
	LngDiff float64 `json:"lng_diff"`
}

// Contains compares each axis independently against Radius. This is a box,
// not a great-circle distance.
func (c Classroom) Contains(p Point) Check {
	latDiff := math.Abs(p.Lat - c.Center.Lat)
	lngDiff := math.Abs(p.Lng - c.Center.Lng)
	return Check{
		Inside:  latDiff <= c.Radius && lngDiff <= c.Radius,
		LatDiff: latDiff,
		LngDiff: lngDiff,
	}
}
