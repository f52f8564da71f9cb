package query

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsYAML []byte

// RegionIndex maps a region name onto the set of uppercase country codes it
// contains. Built once from the embedded table and never mutated.
type RegionIndex struct {
	countries map[string]map[string]bool
}

type regionFile struct {
	Regions []struct {
		Name      string   `yaml:"name"`
		Countries []string `yaml:"countries"`
	} `yaml:"regions"`
}

// LoadRegionIndex parses a YAML region table.
func LoadRegionIndex(raw []byte) (*RegionIndex, error) {
	var file regionFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse region table: %w", err)
	}

	idx := &RegionIndex{countries: make(map[string]map[string]bool, len(file.Regions))}
	for _, region := range file.Regions {
		name := strings.ToLower(strings.TrimSpace(region.Name))
		if name == "" {
			continue
		}
		set := make(map[string]bool, len(region.Countries))
		for _, code := range region.Countries {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code != "" {
				set[code] = true
			}
		}
		idx.countries[name] = set
	}
	return idx, nil
}

var (
	defaultRegionsOnce sync.Once
	defaultRegions     *RegionIndex
)

// DefaultRegionIndex returns the index built from the embedded table.
// Panics only if the embedded file is broken, which a test catches.
func DefaultRegionIndex() *RegionIndex {
	defaultRegionsOnce.Do(func() {
		idx, err := LoadRegionIndex(regionsYAML)
		if err != nil {
			panic(err)
		}
		defaultRegions = idx
	})
	return defaultRegions
}

// Known reports whether the region name exists in the table.
func (r *RegionIndex) Known(region string) bool {
	_, ok := r.countries[strings.ToLower(strings.TrimSpace(region))]
	return ok
}

// Contains reports whether the country code belongs to the region.
// Both arguments are matched case-insensitively.
func (r *RegionIndex) Contains(region, country string) bool {
	set, ok := r.countries[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		return false
	}
	return set[strings.ToUpper(strings.TrimSpace(country))]
}

// Countries returns the codes of a region, for SQL membership filters.
func (r *RegionIndex) Countries(region string) []string {
	set, ok := r.countries[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	return out
}
