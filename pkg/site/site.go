// Package site describes the interferometer arrays a simulation can
// target: geodetic location, station configuration file, and the Greenwich
// hour angle the visibility generator uses for relative scan starts.
package site

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknown is returned by Catalog.Lookup for a site name the catalog
// does not carry.
var ErrUnknown = errors.New("unknown site")

// Site is one interferometer array.
type Site struct {
	Name        string  // canonical name passed to the visibility generator
	Latitude    float64 // geodetic latitude in decimal degrees
	Longitude   float64 // east longitude in decimal degrees
	Height      float64 // height above the reference ellipsoid in meters
	GHA         float64 // Greenwich hour angle of the array meridian in decimal hours
	ArrayConfig string  // station layout file name under the array directory
}

// MWA128 is the 128-tile Murchison Widefield Array.
func MWA128() Site {
	return Site{
		Name:        "MWA_128",
		Latitude:    -26.7033,
		Longitude:   116.671,
		Height:      377.830,
		GHA:         -7.778066666666667,
		ArrayConfig: "mwa_128_crossdipole_gp_20110225.txt",
	}
}

// VLAD is the Very Large Array in its D configuration.
func VLAD() Site {
	return Site{
		Name:        "VLA_D",
		Latitude:    34.025778,
		Longitude:   252.3210278,
		Height:      2125.3704,
		GHA:         16.821401853333334,
		ArrayConfig: "VLA_D.txt",
	}
}

// ConfigPath resolves the station layout file against the array directory.
func (s Site) ConfigPath(arrayDir string) string {
	return filepath.Join(arrayDir, s.ArrayConfig)
}

// LocationArgs renders latitude, longitude, and height as the textual
// arguments the UVFITS converter expects.
func (s Site) LocationArgs() []string {
	return []string{
		strconv.FormatFloat(s.Latitude, 'f', -1, 64),
		strconv.FormatFloat(s.Longitude, 'f', -1, 64),
		strconv.FormatFloat(s.Height, 'f', -1, 64),
	}
}

// Catalog maps site names to array definitions. Lookups are
// case-insensitive; canonical names keep their original spelling.
type Catalog struct {
	sites map[string]Site
}

// Builtin returns a catalog holding the compiled-in arrays.
func Builtin() *Catalog {
	c := &Catalog{sites: make(map[string]Site)}
	c.put(MWA128())
	c.put(VLAD())
	return c
}

func (c *Catalog) put(s Site) {
	c.sites[strings.ToLower(s.Name)] = s
}

// Lookup resolves a site by name, ignoring case.
func (c *Catalog) Lookup(name string) (Site, error) {
	s, ok := c.sites[strings.ToLower(name)]
	if !ok {
		return Site{}, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return s, nil
}

// Names returns the canonical site names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.sites))
	for _, s := range c.sites {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}

// All returns the sites sorted by canonical name.
func (c *Catalog) All() []Site {
	out := slices.SortedFunc(maps.Values(c.sites), func(a, b Site) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

type catalogFile struct {
	Sites map[string]siteSpec `yaml:"sites"`
}

type siteSpec struct {
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	Height      float64 `yaml:"height"`
	GHA         float64 `yaml:"gha"`
	ArrayConfig string  `yaml:"array_config"`
}

// MergeFile loads additional site definitions from a YAML catalog and
// merges them over the existing entries. A missing file is not an error.
func (c *Catalog) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read site catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse site catalog %s: %w", path, err)
	}
	for name, spec := range f.Sites {
		if spec.ArrayConfig == "" {
			return fmt.Errorf("site catalog %s: site %q has no array_config", path, name)
		}
		c.put(Site{
			Name:        name,
			Latitude:    spec.Latitude,
			Longitude:   spec.Longitude,
			Height:      spec.Height,
			GHA:         spec.GHA,
			ArrayConfig: spec.ArrayConfig,
		})
	}
	return nil
}
