package wells

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Catalog CSV columns. The cluster column is optional; when present
// it carries a precomputed campaign assignment.
var catalogColumns = []string{
	"well_id", "latitude", "longitude", "priority_score",
	"owner", "disadvantaged", "age_years", "depth_ft",
}

// LoadCatalogCSV reads a well catalog from a CSV file with a header
// row. Required columns: well_id, latitude, longitude, priority_score,
// owner, disadvantaged, age_years, depth_ft. Optional: cluster.
func LoadCatalogCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return ReadCatalogCSV(f)
}

// ReadCatalogCSV parses a well catalog from CSV data.
func ReadCatalogCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range catalogColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("catalog header missing column %q", name)
		}
	}
	clusterCol, hasCluster := col["cluster"]

	var records []Well
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog line %d: %w", line, err)
		}

		w := Well{
			ID:    strings.TrimSpace(row[col["well_id"]]),
			Owner: strings.TrimSpace(row[col["owner"]]),
		}
		if w.Latitude, err = strconv.ParseFloat(row[col["latitude"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse latitude: %v", line, err)
		}
		if w.Longitude, err = strconv.ParseFloat(row[col["longitude"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse longitude: %v", line, err)
		}
		if w.Score, err = strconv.ParseFloat(row[col["priority_score"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse priority_score: %v", line, err)
		}
		if w.Disadvantaged, err = strconv.ParseBool(strings.TrimSpace(row[col["disadvantaged"]])); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse disadvantaged: %v", line, err)
		}
		if w.AgeYears, err = strconv.ParseFloat(row[col["age_years"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse age_years: %v", line, err)
		}
		if w.DepthFt, err = strconv.ParseFloat(row[col["depth_ft"]], 64); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse depth_ft: %v", line, err)
		}
		if hasCluster && strings.TrimSpace(row[clusterCol]) != "" {
			if w.Cluster, err = strconv.Atoi(strings.TrimSpace(row[clusterCol])); err != nil {
				return nil, fmt.Errorf("line %d: failed to parse cluster: %v", line, err)
			}
		}
		records = append(records, w)
	}

	return NewCatalog(records)
}
