package facts

import (
	"fmt"
	"sync"

	"github.com/lawnchairsociety/worldfacts/internal/logger"
	"github.com/lawnchairsociety/worldfacts/internal/structure"
	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

// Options tune a Synthesizer.
type Options struct {
	// MinSize is the component size threshold; components must be strictly
	// larger to become facts.
	MinSize int

	// Zones selects the zone naming scheme.
	Zones structure.ZoneScheme

	// Plurals labels feature counts. Nil means NaivePlural.
	Plurals Pluralizer

	// Workers bounds how many structure types are scanned at once. Values
	// below 2 scan sequentially. Output order does not depend on it.
	Workers int
}

// DefaultOptions returns the threshold, zoning and plurals the farmhouse
// descriptions were written with.
func DefaultOptions() Options {
	return Options{
		MinSize: structure.DefaultMinSize,
		Zones:   structure.ZoneLegacy,
		Plurals: NaivePlural{},
	}
}

// Synthesizer generates facts for a fixed list of structure types.
type Synthesizer struct {
	specs []structure.TypeSpec
	opts  Options
}

// NewSynthesizer validates the structure types and options. Any
// configuration error is returned before a grid is ever scanned.
func NewSynthesizer(specs []structure.TypeSpec, opts Options) (*Synthesizer, error) {
	if opts.MinSize < 0 {
		return nil, fmt.Errorf("%w: negative minimum structure size %d", structure.ErrConfiguration, opts.MinSize)
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Plurals == nil {
		opts.Plurals = NaivePlural{}
	}

	return &Synthesizer{specs: specs, opts: opts}, nil
}

// Generate scans the grid once per structure type and returns the facts in
// structure-type order, then component order within each type.
func (s *Synthesizer) Generate(grid *tilemap.Grid) ([]Fact, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", structure.ErrInvalidArgument)
	}

	perType := make([][]Fact, len(s.specs))
	errs := make([]error, len(s.specs))

	if s.opts.Workers < 2 {
		for i, spec := range s.specs {
			perType[i], errs[i] = s.generateType(grid, spec)
			if errs[i] != nil {
				return nil, errs[i]
			}
		}
	} else {
		sem := make(chan struct{}, s.opts.Workers)
		var wg sync.WaitGroup
		for i, spec := range s.specs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, spec structure.TypeSpec) {
				defer wg.Done()
				defer func() { <-sem }()
				perType[i], errs[i] = s.generateType(grid, spec)
			}(i, spec)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	var out []Fact
	for _, fs := range perType {
		out = append(out, fs...)
	}

	logger.Info("World facts generated",
		"structure_types", len(s.specs),
		"facts", len(out),
		"height", grid.Height(),
		"width", grid.Width())
	return out, nil
}

// generateType builds the facts for one structure type. Sequence ids restart
// at zero for every type.
func (s *Synthesizer) generateType(grid *tilemap.Grid, spec structure.TypeSpec) ([]Fact, error) {
	labelled, err := structure.Label(grid, spec.Members, s.opts.MinSize)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", spec.Name, err)
	}
	components := labelled.Components
	logger.Debug("Structures extracted",
		"type", spec.Name,
		"kept", len(components),
		"discarded", labelled.Discarded)

	out := make([]Fact, 0, len(components))
	for id, comp := range components {
		box, err := structure.Bounds(comp)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", spec.Name, id, err)
		}
		zone, err := s.opts.Zones.Classify(comp.Representative(), grid.Height(), grid.Width())
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", spec.Name, id, err)
		}
		features, err := structure.ClassifyFeatures(comp, grid, spec.Features)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", spec.Name, id, err)
		}

		out = append(out, Fact{
			StructureType: spec.Name,
			SequenceID:    id,
			BoundingBox:   box,
			Descriptions:  s.describe(spec.Name, zone, features),
		})
	}
	return out, nil
}

func (s *Synthesizer) describe(typeName, zone string, features []structure.FeatureCount) []string {
	lines := make([]string, 0, 1+len(features))
	lines = append(lines, fmt.Sprintf("%s at %s of map", typeName, zone))
	for _, f := range features {
		lines = append(lines, fmt.Sprintf("%s %s has %d %s", zone, typeName, f.Count, s.opts.Plurals.Label(f.Name, f.Count)))
	}
	return lines
}

// Generate is a convenience wrapper that builds a Synthesizer with opts and
// runs it once over grid.
func Generate(grid *tilemap.Grid, specs []structure.TypeSpec, opts Options) ([]Fact, error) {
	s, err := NewSynthesizer(specs, opts)
	if err != nil {
		return nil, err
	}
	return s.Generate(grid)
}
