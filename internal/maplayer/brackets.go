package maplayer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bracket is a price range starting at Min (inclusive) and running to the next bracket.
type Bracket struct {
	Color string  `yaml:"color" json:"color"`
	Label string  `yaml:"label" json:"label"`
	Min   float64 `yaml:"min" json:"min"`
}

// Brackets are the four fixed price ranges used to color markers.
type Brackets [4]Bracket

// DefaultBrackets colors markers green, yellow, orange and red by price.
var DefaultBrackets = Brackets{
	{Min: 0, Color: "#2ecc71", Label: "Under $500K"},
	{Min: 500000, Color: "#f1c40f", Label: "$500K to $1M"},
	{Min: 1000000, Color: "#e67e22", Label: "$1M to $2.5M"},
	{Min: 2500000, Color: "#e74c3c", Label: "$2.5M and up"},
}

// Index returns the bracket a price falls into.
// Prices below the first bracket's minimum land in the first bracket.
func (b Brackets) Index(price float64) int {
	for i := len(b) - 1; i > 0; i-- {
		if price >= b[i].Min {
			return i
		}
	}
	return 0
}

// Color returns the marker color for a price.
func (b Brackets) Color(price float64) string {
	return b[b.Index(price)].Color
}

// Validate checks that brackets ascend strictly and all have a color.
func (b Brackets) Validate() error {
	for i, br := range b {
		if br.Color == "" {
			return fmt.Errorf("bracket %d has no color", i)
		}
		if i > 0 && br.Min <= b[i-1].Min {
			return fmt.Errorf("bracket %d minimum %g does not exceed bracket %d minimum %g", i, br.Min, i-1, b[i-1].Min)
		}
	}
	return nil
}

type bracketFile struct {
	Brackets []Bracket `yaml:"brackets"`
}

// LoadBrackets reads a YAML file with exactly four brackets:
//
//	brackets:
//	  - {min: 0, color: "#2ecc71", label: "Under $500K"}
//	  ...
func LoadBrackets(path string) (Brackets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brackets{}, fmt.Errorf("read brackets file: %w", err)
	}

	var file bracketFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Brackets{}, fmt.Errorf("parse brackets file %s: %w", path, err)
	}

	if len(file.Brackets) != len(Brackets{}) {
		return Brackets{}, fmt.Errorf("brackets file %s must define exactly 4 brackets, got %d", path, len(file.Brackets))
	}

	var b Brackets
	copy(b[:], file.Brackets)
	if err := b.Validate(); err != nil {
		return Brackets{}, fmt.Errorf("brackets file %s: %w", path, err)
	}

	return b, nil
}
