// Package catalog serves the read-only table of climbing locations and
// boulder problems.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Catalog errors.
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrSpotNotFound     = errors.New("spot not found")
)

//go:embed data/catalog.yaml
var embedded []byte

// Route is a named line within a spot.
type Route struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Grade    string `yaml:"grade" json:"grade"`
	Type     string `yaml:"type" json:"type"`
	Attempts int    `yaml:"attempts" json:"attempts" validate:"gte=0"`
	Sector   string `yaml:"sector" json:"sector,omitempty"`
}

// Spot is a boulder problem or crag sector at a location.
type Spot struct {
	ID          string  `yaml:"id" json:"id" validate:"required"`
	Name        string  `yaml:"name" json:"name" validate:"required"`
	Type        string  `yaml:"type" json:"type" validate:"required"`
	Difficulty  string  `yaml:"difficulty" json:"difficulty" validate:"required"`
	FontGrade   string  `yaml:"fontGrade" json:"fontGrade,omitempty"`
	VGrade      string  `yaml:"vGrade" json:"vGrade,omitempty"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Attempts    int     `yaml:"attempts" json:"attempts" validate:"gte=0"`
	Routes      []Route `yaml:"routes" json:"routes,omitempty" validate:"dive"`
}

// Location is a climbing area with coordinates used for weather lookups.
type Location struct {
	ID          string  `yaml:"id" json:"id" validate:"required"`
	Name        string  `yaml:"name" json:"name" validate:"required"`
	Region      string  `yaml:"region" json:"region,omitempty"`
	Lat         float64 `yaml:"lat" json:"lat" validate:"latitude"`
	Lng         float64 `yaml:"lng" json:"lng" validate:"longitude"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Spots       []Spot  `yaml:"spots" json:"spots,omitempty" validate:"dive"`
}

type document struct {
	Locations []Location `yaml:"locations" validate:"required,min=1,dive"`
}

// Catalog is an immutable, indexed set of locations.
type Catalog struct {
	locations []Location
	byID      map[string]int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c := &Catalog{
		locations: doc.Locations,
		byID:      make(map[string]int, len(doc.Locations)),
	}
	for i := range c.locations {
		loc := &c.locations[i]
		if _, dup := c.byID[loc.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate location id %q", loc.ID)
		}
		c.byID[loc.ID] = i

		seen := make(map[string]struct{}, len(loc.Spots))
		for j := range loc.Spots {
			spot := &loc.Spots[j]
			if _, dup := seen[spot.ID]; dup {
				return nil, fmt.Errorf("invalid catalog: duplicate spot id %q in %s", spot.ID, loc.ID)
			}
			seen[spot.ID] = struct{}{}
			if spot.VGrade == "" && spot.FontGrade != "" {
				spot.VGrade = FontToV(spot.FontGrade)
			}
		}
	}
	return c, nil
}

// List returns every location in catalog order. Spots are omitted.
func (c *Catalog) List() []Location {
	out := make([]Location, len(c.locations))
	for i, loc := range c.locations {
		loc.Spots = nil
		out[i] = loc
	}
	return out
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	return len(c.locations)
}

// Get returns a copy of the location with the given id.
func (c *Catalog) Get(id string) (*Location, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, id)
	}
	loc := c.locations[i]
	loc.Spots = append([]Spot(nil), loc.Spots...)
	return &loc, nil
}

// Spot returns a single spot at a location.
func (c *Catalog) Spot(locationID, spotID string) (*Spot, error) {
	i, ok := c.byID[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}
	for _, s := range c.locations[i].Spots {
		if s.ID == spotID {
			s.Routes = append([]Route(nil), s.Routes...)
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrSpotNotFound, locationID, spotID)
}

// SearchSpots returns the spots at a location whose name, difficulty or
// description contains query, ignoring case. An empty query matches all.
func (c *Catalog) SearchSpots(locationID, query string) ([]Spot, error) {
	i, ok := c.byID[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Spot, 0, len(c.locations[i].Spots))
	for _, s := range c.locations[i].Spots {
		if q == "" ||
			strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Difficulty), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			out = append(out, s)
		}
	}
	return out, nil
}
