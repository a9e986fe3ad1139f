// Package world implements the galaxy's coordinate space, sector/chunk
// lifetime, and the top-level per-tick step driver (spec.md §3, §4.6-4.7
// "world stepper"). Grounded on
// _examples/original_source/src/game/coord.h and world.h.
package world

import "math"

// sectorBits/areaBits/topBits split a 32-bit axis into sector, area and
// top components exactly as coord.h's coord_sector_bits/coord_area_bits
// do.
const (
	sectorBits = 16
	areaBits   = 8
)

// Coord is a point in the galaxy's coordinate plane.
type Coord struct {
	X, Y uint32
}

// Nil is the zero coordinate, reserved to mean "no coordinate"
// (coord_nil/coord_is_nil).
var Nil = Coord{}

// IsNil reports whether c is the reserved nil coordinate.
func (c Coord) IsNil() bool {
	return c.X == 0 && c.Y == 0
}

// Sector truncates c down to its containing sector's top-left corner
// (coord_sector).
func (c Coord) Sector() Coord {
	const bits = sectorBits
	return Coord{X: (c.X >> bits) << bits, Y: (c.Y >> bits) << bits}
}

// Area truncates c down to its containing area's top-left corner, one
// level coarser than Sector (coord_area).
func (c Coord) Area() Coord {
	const bits = sectorBits + areaBits
	return Coord{X: (c.X >> bits) << bits, Y: (c.Y >> bits) << bits}
}

// Dist2 returns the squared Euclidean distance between c and other
// (coord_dist_2) — cheaper than Dist when only relative ordering matters.
func (c Coord) Dist2(other Coord) uint64 {
	dx := absDiff(c.X, other.X)
	dy := absDiff(c.Y, other.Y)
	return dx*dx + dy*dy
}

// Dist returns the Euclidean distance between c and other (coord_dist),
// used by the lanes package to compute travel time.
func (c Coord) Dist(other Coord) uint64 {
	return uint64(math.Sqrt(float64(c.Dist2(other))))
}

func absDiff(a, b uint32) uint64 {
	if a < b {
		return uint64(b - a)
	}
	return uint64(a - b)
}

// ToU64 packs c into a single comparable, hashable key (coord_to_u64) — the
// form chunk, lanes and pills keys use internally.
func (c Coord) ToU64() uint64 {
	return (uint64(c.X) << 32) | uint64(c.Y)
}

// FromU64 is ToU64's inverse (coord_from_u64).
func FromU64(id uint64) Coord {
	return Coord{X: uint32(id >> 32), Y: uint32(id)}
}

// Rect is an axis-aligned rectangular region of the galaxy, top-inclusive
// and bot-exclusive.
type Rect struct {
	Top, Bot Coord
}

// Contains reports whether c falls within r.
func (r Rect) Contains(c Coord) bool {
	return c.X >= r.Top.X && c.X < r.Bot.X && c.Y >= r.Top.Y && c.Y < r.Bot.Y
}
