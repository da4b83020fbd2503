package cluster

import "math"

const (
	// maxTileRap bounds the rapidity range covered by tiles. Jets beyond it
	// are kept in the edge tiles, which is still correct because tile
	// assignment is monotonic in rapidity.
	maxTileRap = 10.0

	// minTileSize keeps small-R grids from growing as 1/R².
	minTileSize = 0.1

	// tilesPerJet caps the grid at this many tiles per input jet (but never
	// fewer than minTiles), so building it stays linear in multiplicity.
	tilesPerJet = 4
	minTiles    = 9
)

// tiledSpace buckets jets into rapidity-azimuth tiles at least R wide, so
// that any jet within distance R of another lies in the same or an adjacent
// tile.
type tiledSpace struct {
	rapMin  float64
	rapSize float64
	nRap    int
	phiSize float64
	nPhi    int

	tiles [][]*nnJet
	// phiSteps are the distinct azimuthal offsets (mod nPhi) of a tile's
	// neighbours, itself included.
	phiSteps []int
}

func newTiledSpace(jets []PseudoJet, r float64) *tiledSpace {
	rapMin, rapMax := 0.0, 0.0
	for i, j := range jets {
		rap := math.Max(-maxTileRap, math.Min(maxTileRap, j.rap))
		if i == 0 || rap < rapMin {
			rapMin = rap
		}
		if i == 0 || rap > rapMax {
			rapMax = rap
		}
	}

	size := math.Max(minTileSize, r)
	nRap := max(1, int(math.Floor((rapMax-rapMin)/size)))
	nPhi := max(1, int(math.Floor(2*math.Pi/size)))

	limit := max(minTiles, tilesPerJet*len(jets))
	if nRap*nPhi > limit {
		// Coarser tiles only widen the neighbourhood, never narrow it.
		f := math.Sqrt(float64(nRap*nPhi) / float64(limit))
		nRap = max(1, int(float64(nRap)/f))
		nPhi = max(1, int(float64(nPhi)/f))
	}

	t := &tiledSpace{
		rapMin:  rapMin,
		rapSize: math.Max(size, (rapMax-rapMin)/float64(nRap)),
		nRap:    nRap,
		phiSize: 2 * math.Pi / float64(nPhi),
		nPhi:    nPhi,
		tiles:   make([][]*nnJet, nRap*nPhi),
	}
	switch {
	case nPhi >= 3:
		t.phiSteps = []int{nPhi - 1, 0, 1}
	case nPhi == 2:
		t.phiSteps = []int{0, 1}
	default:
		t.phiSteps = []int{0}
	}
	return t
}

func (t *tiledSpace) tileIndex(rap, phi float64) int {
	iy := int(math.Floor((rap - t.rapMin) / t.rapSize))
	iy = max(0, min(t.nRap-1, iy))
	iphi := int(math.Floor(phi / t.phiSize))
	iphi = max(0, min(t.nPhi-1, iphi))
	return iy*t.nPhi + iphi
}

func (t *tiledSpace) add(j *nnJet) {
	j.tile = t.tileIndex(j.rap, j.phi)
	t.tiles[j.tile] = append(t.tiles[j.tile], j)
}

func (t *tiledSpace) remove(j *nnJet) {
	tile := t.tiles[j.tile]
	for i, o := range tile {
		if o == j {
			tile[i] = tile[len(tile)-1]
			t.tiles[j.tile] = tile[:len(tile)-1]
			return
		}
	}
}

func (t *tiledSpace) near(j *nnJet, _ []*nnJet, fn func(o *nnJet)) {
	iy, iphi := j.tile/t.nPhi, j.tile%t.nPhi
	for y := max(0, iy-1); y <= min(t.nRap-1, iy+1); y++ {
		row := y * t.nPhi
		for _, step := range t.phiSteps {
			for _, o := range t.tiles[row+(iphi+step)%t.nPhi] {
				fn(o)
			}
		}
	}
}
