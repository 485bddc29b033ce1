// Package enrich maps source IPs to coarse location records. The core
// only ever joins against the map by key; how the records were obtained
// is the fetcher's business, and a missing key always means "unknown
// location", never an error.
package enrich

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Record is the per-IP location result as cached on disk.
type Record struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
}

// Map is an immutable-per-analysis-run snapshot keyed by IP address.
type Map map[string]Record

// LoadMap reads the cache file. A file that does not exist yet loads as
// an empty map.
func LoadMap(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, err
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// SaveMap writes the cache file, creating the directory if needed.
func SaveMap(path string, m Map) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
