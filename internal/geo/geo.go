// Package geo provides planar world coordinates for agents, waypoints, and
// meeting locations. The game world uses a flat XY plane with Z elevation;
// positions are stored as simplefeatures coordinates so waypoints can be
// exported as geometry for tooling.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Position is a point in the game world.
type Position struct {
	XY geom.XY `json:"xy"`
	Z  float64 `json:"z"`
}

// NewPosition builds a Position from world coordinates.
func NewPosition(x, y, z float64) Position {
	return Position{XY: geom.XY{X: x, Y: y}, Z: z}
}

// Point converts the position to a simplefeatures Point (XYZ).
func (p Position) Point() geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   p.XY,
		Z:    p.Z,
		Type: geom.CoordinatesType(geom.DimXYZ),
	})
}

// String renders the position as "x,y,z".
func (p Position) String() string {
	return fmt.Sprintf("%g,%g,%g", p.XY.X, p.XY.Y, p.Z)
}

// Distance returns the planar distance between two positions. Elevation is
// ignored; meeting spots on different floors still count as the same spot.
func Distance(a, b Position) float64 {
	return math.Hypot(b.XY.X-a.XY.X, b.XY.Y-a.XY.Y)
}

// Away returns a position a fixed distance from p, directly opposite the
// threat. Used by the flee override to pick a retreat point. If the threat
// sits exactly on p, the retreat direction defaults to +X.
func Away(p, threat Position, dist float64) Position {
	dx := p.XY.X - threat.XY.X
	dy := p.XY.Y - threat.XY.Y
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return NewPosition(p.XY.X+dist, p.XY.Y, p.Z)
	}
	return NewPosition(p.XY.X+dx/norm*dist, p.XY.Y+dy/norm*dist, p.Z)
}

// PositionFromString parses a "x,y" or "x,y,z" string into a Position.
func PositionFromString(coords string) (Position, error) {
	parts := strings.Split(coords, ",")
	if len(parts) < 2 {
		return Position{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Position{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Position{}, ErrInvalidCoordinates
	}
	var z float64
	if len(parts) > 2 {
		z, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return Position{}, ErrInvalidCoordinates
		}
	}
	return NewPosition(x, y, z), nil
}
