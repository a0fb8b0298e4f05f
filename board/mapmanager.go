package board

import (
	"sort"
)

// directionOffsets maps side 0..5 to (row, col) deltas. Hex columns step
// by two, so E9 and E13 flank E11 and the diagonal neighbours sit at
// column +/-1 on the adjacent rows. Side 0 is top-left, clockwise.
var directionOffsets = [6][2]int{
	{-1, -1}, // 0: up-left
	{-1, 1},  // 1: up-right
	{0, 2},   // 2: right
	{1, 1},   // 3: down-right
	{1, -1},  // 4: down-left
	{0, -2},  // 5: left
}

// Opposite returns the side seen from the other end of an edge.
func Opposite(dir int) int { return (dir + 3) % 6 }

// MapManager owns the hex table and the derived adjacency and distance
// caches. Immutable after setup apart from the hexes themselves.
type MapManager struct {
	tiles *TileSet
	hexes map[string]*MapHex
	order []string

	byCoord   map[[2]int]*MapHex
	distances map[string]map[string]int
}

func NewMapManager(tiles *TileSet, hexes []*MapHex) *MapManager {
	m := &MapManager{
		tiles:     tiles,
		hexes:     map[string]*MapHex{},
		byCoord:   map[[2]int]*MapHex{},
		distances: map[string]map[string]int{},
	}
	for _, h := range hexes {
		m.hexes[h.Name] = h
		m.byCoord[[2]int{h.Row, h.Col}] = h
		m.order = append(m.order, h.Name)
	}
	sort.Strings(m.order)
	return m
}

func (m *MapManager) Hex(name string) (*MapHex, bool) {
	h, ok := m.hexes[name]
	return h, ok
}

// Hexes returns all hexes in coordinate order.
func (m *MapManager) Hexes() []*MapHex {
	out := make([]*MapHex, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.hexes[name])
	}
	return out
}

func (m *MapManager) Tiles() *TileSet { return m.tiles }

// Adjacent returns the hex sharing the given side, ignoring passability.
func (m *MapManager) Adjacent(h *MapHex, dir int) *MapHex {
	d := directionOffsets[dir%6]
	return m.byCoord[[2]int{h.Row + d[0], h.Col + d[1]}]
}

// Neighbour returns the hex reachable across the given side: the adjacent
// hex unless the edge is impassable on either side, or a fixed preprinted
// tile has no track exiting through it.
func (m *MapManager) Neighbour(h *MapHex, dir int) *MapHex {
	adj := m.Adjacent(h, dir)
	if adj == nil {
		return nil
	}
	if h.Impassable[dir] || adj.Impassable[Opposite(dir)] {
		return nil
	}
	if !m.sideOpen(h, dir) || !m.sideOpen(adj, Opposite(dir)) {
		return nil
	}
	return adj
}

// sideOpen reports whether track could ever run through the given side of
// a hex. Open unless the hex carries a fixed tile without an exit there.
func (m *MapManager) sideOpen(h *MapHex, dir int) bool {
	if !h.OffBoard && !h.Preprinted {
		return true
	}
	tile, ok := m.tiles.Tile(h.TileID)
	if !ok {
		return true
	}
	return tile.SidesWithTrack(h.Rotation)[dir]
}

// Distance returns the hex distance between two hexes over the neighbour
// graph, or -1 if unreachable. Results are cached.
func (m *MapManager) Distance(from, to string) int {
	if from == to {
		return 0
	}
	if d, ok := m.distances[from]; ok {
		if n, ok := d[to]; ok {
			return n
		}
		return -1
	}

	start, ok := m.hexes[from]
	if !ok {
		return -1
	}
	dist := map[string]int{from: 0}
	queue := []*MapHex{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dir := 0; dir < 6; dir++ {
			next := m.Neighbour(cur, dir)
			if next == nil {
				continue
			}
			if _, seen := dist[next.Name]; seen {
				continue
			}
			dist[next.Name] = dist[cur.Name] + 1
			queue = append(queue, next)
		}
	}
	m.distances[from] = dist

	if n, ok := dist[to]; ok {
		return n
	}
	return -1
}

// PossibleTileCosts returns the distinct terrain costs on the map in
// ascending order. Games without a map derive their operating cost table
// from this.
func (m *MapManager) PossibleTileCosts() []int {
	seen := map[int]bool{}
	for _, h := range m.hexes {
		if !h.OffBoard {
			seen[h.Cost] = true
		}
	}
	costs := make([]int, 0, len(seen))
	for c := range seen {
		costs = append(costs, c)
	}
	sort.Ints(costs)
	return costs
}
