package structure

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

func mustGrid(t *testing.T, rows [][]int) *tilemap.Grid {
	t.Helper()
	g, err := tilemap.NewGrid(rows)
	if err != nil {
		t.Fatalf("NewGrid returned error: %v", err)
	}
	return g
}

func TestExtractHouseBlock(t *testing.T) {
	g := mustGrid(t, [][]int{
		{0, 0, 0, 0, 0},
		{0, 50, 50, 0, 0},
		{0, 50, 50, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	comps, err := Extract(g, NewTileSet(50), DefaultMinSize)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(comps) != 1 {
		t.Fatalf("len(components) = %d, want 1", len(comps))
	}
	if len(comps[0]) != 4 {
		t.Errorf("len(component) = %d, want 4", len(comps[0]))
	}
	if rep := comps[0].Representative(); rep != (tilemap.Coord{Row: 1, Col: 1}) {
		t.Errorf("Representative() = %s, want (1,1)", rep)
	}
}

func TestExtractThresholdBoundary(t *testing.T) {
	// Three cells in a row, then a gap, then four cells in a row.
	g := mustGrid(t, [][]int{
		{7, 7, 7, 0, 7, 7, 7, 7},
	})

	comps, err := Extract(g, NewTileSet(7), 3)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(comps) != 1 {
		t.Fatalf("len(components) = %d, want 1", len(comps))
	}
	if len(comps[0]) != 4 {
		t.Errorf("len(component) = %d, want 4", len(comps[0]))
	}
	if rep := comps[0].Representative(); rep.Col != 4 {
		t.Errorf("Representative().Col = %d, want 4", rep.Col)
	}

	comps, _ = Extract(g, NewTileSet(7), 0)
	if len(comps) != 2 {
		t.Errorf("len(components) with threshold 0 = %d, want 2", len(comps))
	}
}

func TestLabelCountsDiscarded(t *testing.T) {
	g := mustGrid(t, [][]int{
		{7, 0, 7, 7, 0, 7},
		{0, 0, 0, 0, 0, 7},
		{7, 7, 7, 7, 0, 7},
	})

	tests := []struct {
		minSize       int
		wantKept      int
		wantDiscarded int
	}{
		{0, 4, 0},
		{1, 3, 1},
		{2, 2, 2},
		{3, 1, 3},
		{4, 0, 4},
	}
	for _, tt := range tests {
		l, err := Label(g, NewTileSet(7), tt.minSize)
		if err != nil {
			t.Fatalf("Label(minSize=%d) error = %v", tt.minSize, err)
		}
		if len(l.Components) != tt.wantKept || l.Discarded != tt.wantDiscarded {
			t.Errorf("Label(minSize=%d) = %d kept, %d discarded; want %d, %d",
				tt.minSize, len(l.Components), l.Discarded, tt.wantKept, tt.wantDiscarded)
		}
	}
}

func TestExtractIgnoresDiagonals(t *testing.T) {
	g := mustGrid(t, [][]int{
		{1, 0, 1},
		{0, 1, 0},
		{1, 0, 1},
	})

	comps, _ := Extract(g, NewTileSet(1), 0)
	if len(comps) != 5 {
		t.Errorf("len(components) = %d, want 5", len(comps))
	}
}

func TestExtractOrderIsRowMajorByFirstCell(t *testing.T) {
	g := mustGrid(t, [][]int{
		{0, 0, 0, 2, 2},
		{1, 1, 0, 2, 2},
		{1, 1, 0, 0, 0},
	})

	comps, _ := Extract(g, NewTileSet(1, 2), 3)
	if len(comps) != 2 {
		t.Fatalf("len(components) = %d, want 2", len(comps))
	}
	if rep := comps[0].Representative(); rep != (tilemap.Coord{Row: 0, Col: 3}) {
		t.Errorf("components[0] starts at %s, want (0,3)", rep)
	}
	if rep := comps[1].Representative(); rep != (tilemap.Coord{Row: 1, Col: 0}) {
		t.Errorf("components[1] starts at %s, want (1,0)", rep)
	}
}

func TestExtractMixedMemberIDsConnect(t *testing.T) {
	g := mustGrid(t, [][]int{
		{49, 50, 51},
		{61, 62, 99},
	})

	comps, _ := Extract(g, NewTileSet(49, 50, 51, 61, 62), 3)
	if len(comps) != 1 || len(comps[0]) != 5 {
		t.Fatalf("components = %v, want one component of 5 cells", comps)
	}
}

func TestExtractZeroNeverMember(t *testing.T) {
	g := mustGrid(t, [][]int{
		{0, 0, 0, 0, 0},
	})

	comps, _ := Extract(g, NewTileSet(0), 0)
	if len(comps) != 0 {
		t.Errorf("len(components) = %d, want 0", len(comps))
	}
}

func TestExtractCellSharedAcrossTypes(t *testing.T) {
	g := mustGrid(t, [][]int{
		{5, 5, 5, 5},
	})

	a, _ := Extract(g, NewTileSet(5), 3)
	b, _ := Extract(g, NewTileSet(5, 6), 3)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("got %d and %d components, want 1 and 1", len(a), len(b))
	}
}

func TestExtractErrors(t *testing.T) {
	g := mustGrid(t, [][]int{{1}})

	if _, err := Extract(nil, NewTileSet(1), 3); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Extract(nil grid) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := Extract(g, NewTileSet(), 3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Extract(empty members) error = %v, want ErrConfiguration", err)
	}
	if _, err := Extract(g, NewTileSet(1), -1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Extract(negative threshold) error = %v, want ErrConfiguration", err)
	}
}

func TestExtractEmptyGrid(t *testing.T) {
	g := mustGrid(t, nil)
	comps, err := Extract(g, NewTileSet(1), 3)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(comps) != 0 {
		t.Errorf("len(components) = %d, want 0", len(comps))
	}
}

// randomGrid fills a grid with ids 0..3 so that regions of every size occur.
func randomGrid(t *testing.T, rng *rand.Rand, height, width int) *tilemap.Grid {
	rows := make([][]int, height)
	for r := range rows {
		rows[r] = make([]int, width)
		for c := range rows[r] {
			rows[r][c] = rng.Intn(4)
		}
	}
	return mustGrid(t, rows)
}

// referenceRegions labels member cells with union-find, independent of the
// flood fill under test.
func referenceRegions(g *tilemap.Grid, members TileSet) map[int][]tilemap.Coord {
	h, w := g.Height(), g.Width()
	parent := make([]int, h*w)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	member := func(r, c int) bool {
		v := g.At(r, c)
		return v != 0 && members.Contains(v)
	}

	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if !member(r, c) {
				continue
			}
			if c+1 < w && member(r, c+1) {
				parent[find(r*w+c)] = find(r*w + c + 1)
			}
			if r+1 < h && member(r+1, c) {
				parent[find(r*w+c)] = find((r+1)*w + c)
			}
		}
	}

	regions := make(map[int][]tilemap.Coord)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			if member(r, c) {
				root := find(r*w + c)
				regions[root] = append(regions[root], tilemap.Coord{Row: r, Col: c})
			}
		}
	}
	return regions
}

func sortedCoords(cs []tilemap.Coord) []tilemap.Coord {
	out := append([]tilemap.Coord(nil), cs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func TestExtractMatchesReferenceLabelling(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	members := NewTileSet(1, 2)

	for trial := 0; trial < 50; trial++ {
		g := randomGrid(t, rng, 3+rng.Intn(20), 3+rng.Intn(30))
		threshold := rng.Intn(5)

		comps, err := Extract(g, members, threshold)
		if err != nil {
			t.Fatalf("Extract returned error: %v", err)
		}

		var want [][]tilemap.Coord
		for _, region := range referenceRegions(g, members) {
			if len(region) > threshold {
				want = append(want, sortedCoords(region))
			}
		}
		if len(comps) != len(want) {
			t.Fatalf("trial %d: %d components, want %d", trial, len(comps), len(want))
		}

		byStart := make(map[tilemap.Coord][]tilemap.Coord)
		for _, w := range want {
			byStart[w[0]] = w
		}

		seen := make(map[tilemap.Coord]bool)
		for i, comp := range comps {
			sorted := sortedCoords(comp)
			if comp[0] != sorted[0] {
				t.Errorf("trial %d: component %d starts at %s, smallest cell is %s", trial, i, comp[0], sorted[0])
			}
			if i > 0 && !comps[i-1][0].Less(comp[0]) {
				t.Errorf("trial %d: components %d and %d out of row-major order", trial, i-1, i)
			}

			ref, ok := byStart[sorted[0]]
			if !ok || len(ref) != len(sorted) {
				t.Errorf("trial %d: component %d does not match a reference region", trial, i)
				continue
			}
			for j := range ref {
				if ref[j] != sorted[j] {
					t.Errorf("trial %d: component %d differs from reference at %s", trial, i, ref[j])
					break
				}
			}
			for _, p := range comp {
				if seen[p] {
					t.Errorf("trial %d: cell %s appears twice", trial, p)
				}
				seen[p] = true
			}
		}
	}
}
