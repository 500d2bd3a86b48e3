package dynamics

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Spatial grid cell size - geoms sharing a cell are tested against each other
const CellSize = 5.0

// Geoms spanning more cells than this skip the grid and are tested against everything.
const maxCellsPerGeom = 64

// Cell key for spatial hashing
type CellKey struct {
	X, Y, Z int
}

func posToCell(p mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(p[0] / CellSize)),
		Y: int(math.Floor(p[1] / CellSize)),
		Z: int(math.Floor(p[2] / CellSize)),
	}
}

// Space holds the geoms taking part in collision detection.
type Space struct {
	geoms []*Geom
	grid  map[CellKey][]int
}

func NewSpace() *Space {
	return &Space{grid: make(map[CellKey][]int)}
}

// Add inserts a geom; a geom already in another space is moved.
func (s *Space) Add(g *Geom) {
	if g.space == s {
		return
	}
	if g.space != nil {
		g.space.Remove(g)
	}
	g.space = s
	s.geoms = append(s.geoms, g)
}

func (s *Space) Remove(g *Geom) bool {
	for i, other := range s.geoms {
		if other == g {
			s.geoms = append(s.geoms[:i], s.geoms[i+1:]...)
			g.space = nil
			return true
		}
	}
	return false
}

func (s *Space) Contains(g *Geom) bool { return g.space == s }

func (s *Space) Geoms() []*Geom { return s.geoms }

func (s *Space) NumGeoms() int { return len(s.geoms) }

// rebuildGrid clears and repopulates the spatial hash grid, returning the
// indices of geoms too large for it.
func (s *Space) rebuildGrid() []int {
	for k := range s.grid {
		delete(s.grid, k)
	}
	var large []int
	for i, g := range s.geoms {
		if !g.enabled {
			continue
		}
		if g.infinite() {
			large = append(large, i)
			continue
		}
		lo, hi := g.AABB()
		cmin, cmax := posToCell(lo), posToCell(hi)
		cells := (cmax.X - cmin.X + 1) * (cmax.Y - cmin.Y + 1) * (cmax.Z - cmin.Z + 1)
		if cells > maxCellsPerGeom {
			large = append(large, i)
			continue
		}
		for x := cmin.X; x <= cmax.X; x++ {
			for y := cmin.Y; y <= cmax.Y; y++ {
				for z := cmin.Z; z <= cmax.Z; z++ {
					key := CellKey{x, y, z}
					s.grid[key] = append(s.grid[key], i)
				}
			}
		}
	}
	return large
}

// candidatePairs returns the index pairs sharing a grid cell or involving a
// large geom, in a deterministic order.
func (s *Space) candidatePairs() [][2]int {
	large := s.rebuildGrid()
	checked := make(map[[2]int]bool)
	var pairs [][2]int
	add := func(i, j int) {
		if i == j {
			return
		}
		if i > j {
			i, j = j, i
		}
		key := [2]int{i, j}
		if checked[key] {
			return
		}
		checked[key] = true
		pairs = append(pairs, key)
	}
	for _, members := range s.grid {
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				add(members[a], members[b])
			}
		}
	}
	for _, i := range large {
		for j, g := range s.geoms {
			if g.enabled {
				add(i, j)
			}
		}
	}
	slices.SortFunc(pairs, func(x, y [2]int) int {
		if x[0] != y[0] {
			return x[0] - y[0]
		}
		return x[1] - y[1]
	})
	return pairs
}

// Collide detects contacts across the whole space. Disabled geoms and geoms
// sharing a body are skipped. Surfaces are left zeroed for the caller to fill.
func (s *Space) Collide() []*Contact {
	var contacts []*Contact
	for _, p := range s.candidatePairs() {
		a, b := s.geoms[p[0]], s.geoms[p[1]]
		if !a.enabled || !b.enabled {
			continue
		}
		if a.body != nil && a.body == b.body {
			continue
		}
		if !overlapAABB(a, b) {
			continue
		}
		for _, cg := range Collide(a, b) {
			contacts = append(contacts, &Contact{Geom: cg})
		}
	}
	return contacts
}

func overlapAABB(a, b *Geom) bool {
	if a.infinite() || b.infinite() {
		return true
	}
	alo, ahi := a.AABB()
	blo, bhi := b.AABB()
	return alo[0] <= bhi[0] && ahi[0] >= blo[0] &&
		alo[1] <= bhi[1] && ahi[1] >= blo[1] &&
		alo[2] <= bhi[2] && ahi[2] >= blo[2]
}
