// Package worker pre-warms the forecast cache for catalog locations.
package worker

import (
	"time"

	"github.com/cragcast/cragcast/internal/catalog"
)

// RefreshTarget is a catalog location whose forecast is kept warm.
type RefreshTarget struct {
	LocationID string
	Name       string
	Point      Point
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// RefreshConfig holds configuration for the forecast refresh job.
type RefreshConfig struct {
	// Targets are the locations to refresh, in order.
	Targets []RefreshTarget

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout bounds each location's refresh.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration for the
// locations in c.
func DefaultRefreshConfig(c *catalog.Catalog) RefreshConfig {
	return RefreshConfig{
		Targets:     TargetsFromCatalog(c),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// TargetsFromCatalog returns one refresh target per catalog location.
func TargetsFromCatalog(c *catalog.Catalog) []RefreshTarget {
	if c == nil {
		return nil
	}
	locations := c.List()
	targets := make([]RefreshTarget, len(locations))
	for i, loc := range locations {
		targets[i] = RefreshTarget{
			LocationID: loc.ID,
			Name:       loc.Name,
			Point:      Point{Lat: loc.Lat, Lon: loc.Lng},
		}
	}
	return targets
}

// Only returns the targets whose location id is in ids, keeping order.
// Unknown ids are ignored.
func (c RefreshConfig) Only(ids []string) []RefreshTarget {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []RefreshTarget
	for _, t := range c.Targets {
		if _, ok := want[t.LocationID]; ok {
			out = append(out, t)
		}
	}
	return out
}
