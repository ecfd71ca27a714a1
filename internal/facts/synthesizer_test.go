package facts

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/lawnchairsociety/worldfacts/internal/structure"
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

func houseSpec() structure.TypeSpec {
	return structure.TypeSpec{
		Name:    "house",
		Members: structure.NewTileSet(49, 50, 51, 52, 56, 74),
		Features: structure.FeatureSet{
			{Name: "door", Tiles: structure.NewTileSet(74)},
			{Name: "chimney", Tiles: structure.NewTileSet(56)},
		},
	}
}

func TestGenerateSingleHouse(t *testing.T) {
	g := mustGrid(t, [][]int{
		{0, 0, 0, 0, 0},
		{0, 50, 50, 0, 0},
		{0, 50, 50, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	facts, err := Generate(g, []structure.TypeSpec{houseSpec()}, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	want := []Fact{{
		StructureType: "house",
		SequenceID:    0,
		BoundingBox:   structure.BoundingBox{MinCol: 1, MinRow: 1, MaxCol: 2, MaxRow: 2},
		Descriptions:  []string{"house at top left of map"},
	}}
	if !reflect.DeepEqual(facts, want) {
		t.Errorf("Generate() = %+v, want %+v", facts, want)
	}
}

func TestGenerateFeatureLines(t *testing.T) {
	g := mustGrid(t, [][]int{
		{56, 50, 56, 0, 0, 0},
		{50, 74, 50, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
	})

	facts, err := Generate(g, []structure.TypeSpec{houseSpec()}, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("len(facts) = %d, want 1", len(facts))
	}

	want := []string{
		"house at top left of map",
		"top left house has 1 door",
		"top left house has 2 chimneys",
	}
	if !reflect.DeepEqual(facts[0].Descriptions, want) {
		t.Errorf("Descriptions = %q, want %q", facts[0].Descriptions, want)
	}
}

func TestGenerateNaivePluralization(t *testing.T) {
	forest := structure.TypeSpec{
		Name:     "forest",
		Members:  structure.NewTileSet(4, 107),
		Features: structure.FeatureSet{{Name: "behive", Tiles: structure.NewTileSet(107)}},
	}
	g := mustGrid(t, [][]int{{4, 107, 107, 4}})

	facts, err := Generate(g, []structure.TypeSpec{forest}, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := facts[0].Descriptions[1]; got != "top left forest has 2 behives" {
		t.Errorf("feature line = %q, want %q", got, "top left forest has 2 behives")
	}
}

func TestGenerateSequenceIDsPerType(t *testing.T) {
	fence := structure.TypeSpec{Name: "fence", Members: structure.NewTileSet(45)}
	g := mustGrid(t, [][]int{
		{50, 50, 0, 45, 45, 45, 45},
		{50, 50, 0, 0, 0, 0, 0},
		{0, 0, 0, 50, 50, 0, 0},
		{45, 45, 0, 50, 50, 0, 0},
		{45, 45, 0, 0, 0, 0, 0},
	})

	facts, err := Generate(g, []structure.TypeSpec{houseSpec(), fence}, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	type key struct {
		typ string
		id  int
	}
	var got []key
	for _, f := range facts {
		got = append(got, key{f.StructureType, f.SequenceID})
	}
	want := []key{{"house", 0}, {"house", 1}, {"fence", 0}, {"fence", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fact order = %v, want %v", got, want)
	}

	if facts[1].BoundingBox.MinRow != 2 {
		t.Errorf("second house MinRow = %d, want 2", facts[1].BoundingBox.MinRow)
	}
	if facts[2].BoundingBox.MinCol != 3 {
		t.Errorf("first fence MinCol = %d, want 3", facts[2].BoundingBox.MinCol)
	}
}

func TestGenerateZoneUsesRepresentativeCell(t *testing.T) {
	// An L-shaped house whose first cell is in the top band but whose body
	// reaches the bottom band.
	rows := make([][]int, 9)
	for r := range rows {
		rows[r] = make([]int, 9)
	}
	rows[2][0] = 50
	for r := 2; r < 9; r++ {
		rows[r][1] = 50
	}
	g := mustGrid(t, rows)

	facts, err := Generate(g, []structure.TypeSpec{houseSpec()}, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := facts[0].Descriptions[0]; got != "house at top left of map" {
		t.Errorf("description = %q, want %q", got, "house at top left of map")
	}
}

func TestGenerateCenterZoneSchemes(t *testing.T) {
	rows := make([][]int, 9)
	for r := range rows {
		rows[r] = make([]int, 9)
	}
	for r := 4; r < 6; r++ {
		for c := 4; c < 6; c++ {
			rows[r][c] = 50
		}
	}
	g := mustGrid(t, rows)
	specs := []structure.TypeSpec{houseSpec()}

	legacy, _ := Generate(g, specs, DefaultOptions())
	if got := legacy[0].Descriptions[0]; got != "house at center right of map" {
		t.Errorf("legacy description = %q, want %q", got, "house at center right of map")
	}

	opts := DefaultOptions()
	opts.Zones = structure.ZoneCorrected
	corrected, _ := Generate(g, specs, opts)
	if got := corrected[0].Descriptions[0]; got != "house at center of map" {
		t.Errorf("corrected description = %q, want %q", got, "house at center of map")
	}
}

func TestGenerateCustomPluralizer(t *testing.T) {
	forest := structure.TypeSpec{
		Name:     "forest",
		Members:  structure.NewTileSet(4, 107),
		Features: structure.FeatureSet{{Name: "behive", Tiles: structure.NewTileSet(107)}},
	}
	g := mustGrid(t, [][]int{{107, 107, 4, 4}})

	opts := DefaultOptions()
	opts.Plurals = PluralTable{"behive": "beehives"}
	facts, err := Generate(g, []structure.TypeSpec{forest}, opts)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := facts[0].Descriptions[1]; got != "top left forest has 2 beehives" {
		t.Errorf("feature line = %q, want %q", got, "top left forest has 2 beehives")
	}
}

func TestGenerateNoStructures(t *testing.T) {
	g := mustGrid(t, [][]int{{1, 2, 3}})
	facts, err := Generate(g, []structure.TypeSpec{houseSpec()}, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("len(facts) = %d, want 0", len(facts))
	}
}

func TestNewSynthesizerConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		specs []structure.TypeSpec
		opts  Options
	}{
		{"empty members", []structure.TypeSpec{houseSpec(), {Name: "fence"}}, DefaultOptions()},
		{"negative threshold", []structure.TypeSpec{houseSpec()}, Options{MinSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSynthesizer(tt.specs, tt.opts)
			if !errors.Is(err, structure.ErrConfiguration) {
				t.Errorf("NewSynthesizer error = %v, want ErrConfiguration", err)
			}
			if s != nil {
				t.Error("NewSynthesizer returned a synthesizer alongside an error")
			}
		})
	}
}

func TestGenerateNilGrid(t *testing.T) {
	s, err := NewSynthesizer([]structure.TypeSpec{houseSpec()}, DefaultOptions())
	if err != nil {
		t.Fatalf("NewSynthesizer returned error: %v", err)
	}
	if _, err := s.Generate(nil); !errors.Is(err, structure.ErrInvalidArgument) {
		t.Errorf("Generate(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func randomSpecs() []structure.TypeSpec {
	return []structure.TypeSpec{
		{
			Name:     "house",
			Members:  structure.NewTileSet(1, 2),
			Features: structure.FeatureSet{{Name: "door", Tiles: structure.NewTileSet(2)}},
		},
		{Name: "fence", Members: structure.NewTileSet(3)},
		{
			Name:     "forest",
			Members:  structure.NewTileSet(2, 4),
			Features: structure.FeatureSet{{Name: "mushroom", Tiles: structure.NewTileSet(4)}},
		},
	}
}

func randomGrid(t *testing.T, seed int64) *tilemap.Grid {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]int, 25)
	for r := range rows {
		rows[r] = make([]int, 40)
		for c := range rows[r] {
			rows[r][c] = rng.Intn(5)
		}
	}
	return mustGrid(t, rows)
}

func TestGenerateIsIdempotent(t *testing.T) {
	g := randomGrid(t, 99)
	s, err := NewSynthesizer(randomSpecs(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewSynthesizer returned error: %v", err)
	}

	first, err := s.Generate(g)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	second, _ := s.Generate(g)

	if len(first) == 0 {
		t.Fatal("random grid produced no facts")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over the same grid produced different facts")
	}
}

func TestGenerateParallelMatchesSequential(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		g := randomGrid(t, seed)

		sequential, err := Generate(g, randomSpecs(), DefaultOptions())
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}

		opts := DefaultOptions()
		opts.Workers = 3
		parallel, err := Generate(g, randomSpecs(), opts)
		if err != nil {
			t.Fatalf("parallel Generate returned error: %v", err)
		}

		if !reflect.DeepEqual(sequential, parallel) {
			t.Errorf("seed %d: parallel output differs from sequential", seed)
		}
	}
}
