package facts

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output encoding for a fact list.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat converts a config or flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Encode writes facts to w in the given format.
func Encode(w io.Writer, facts []Fact, format Format) error {
	if facts == nil {
		facts = []Fact{}
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(facts)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(facts); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		_, err := io.WriteString(w, Text(facts))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Text renders facts as plain description lines, one block per fact.
func Text(facts []Fact) string {
	var b strings.Builder
	for i, f := range facts {
		if i > 0 {
			b.WriteString("\n")
		}
		box := f.BoundingBox
		fmt.Fprintf(&b, "[%s %d] rows %d-%d, cols %d-%d\n", f.StructureType, f.SequenceID, box.MinRow, box.MaxRow, box.MinCol, box.MaxCol)
		for _, line := range f.Descriptions {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Descriptions flattens every fact's description lines in order.
func Descriptions(facts []Fact) []string {
	var lines []string
	for _, f := range facts {
		lines = append(lines, f.Descriptions...)
	}
	return lines
}

// FilterType returns the facts of one structure type, keeping their order.
// The result is never nil so it encodes as an empty list.
func FilterType(facts []Fact, structureType string) []Fact {
	out := []Fact{}
	for _, f := range facts {
		if f.StructureType == structureType {
			out = append(out, f)
		}
	}
	return out
}
