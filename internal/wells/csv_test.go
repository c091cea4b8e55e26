package wells

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCatalogCSV = `well_id,latitude,longitude,priority_score,owner,disadvantaged,age_years,depth_ft
W-001,35.20,-97.40,72.5,Acme Energy,true,48,3200
W-002,35.21,-97.41,55.0,Acme Energy,false,62,2800
W-003,36.10,-95.90,90.0,Sooner Oil,true,35,4100
`

func TestReadCatalogCSV(t *testing.T) {
	c, err := ReadCatalogCSV(strings.NewReader(sampleCatalogCSV))
	if err != nil {
		t.Fatalf("ReadCatalogCSV: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	w := c.Get("W-001")
	if w == nil {
		t.Fatal("Get(W-001) = nil")
	}
	if w.Score != 72.5 || w.Owner != "Acme Energy" || !w.Disadvantaged {
		t.Errorf("W-001 parsed as %+v", w)
	}
	if w.AgeYears != 48 || w.DepthFt != 3200 {
		t.Errorf("W-001 age/depth parsed as %v/%v", w.AgeYears, w.DepthFt)
	}
	if w.Cluster != 0 {
		t.Errorf("W-001 cluster = %d, want 0 without a cluster column", w.Cluster)
	}
}

func TestReadCatalogCSVWithClusterColumn(t *testing.T) {
	data := `well_id,latitude,longitude,priority_score,owner,disadvantaged,age_years,depth_ft,cluster
W-001,35.20,-97.40,72.5,Acme Energy,true,48,3200,2
W-002,35.21,-97.41,55.0,Acme Energy,false,62,2800,
`
	c, err := ReadCatalogCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCatalogCSV: %v", err)
	}
	if got := c.Get("W-001").Cluster; got != 2 {
		t.Errorf("W-001 cluster = %d, want 2", got)
	}
	if got := c.Get("W-002").Cluster; got != 0 {
		t.Errorf("W-002 cluster = %d, want 0 for blank cell", got)
	}
}

func TestReadCatalogCSVMissingColumn(t *testing.T) {
	data := "well_id,latitude,longitude\nW-001,35.2,-97.4\n"
	_, err := ReadCatalogCSV(strings.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Errorf("expected missing column error, got %v", err)
	}
}

func TestReadCatalogCSVBadNumber(t *testing.T) {
	data := `well_id,latitude,longitude,priority_score,owner,disadvantaged,age_years,depth_ft
W-001,not-a-number,-97.40,72.5,Acme,true,48,3200
`
	if _, err := ReadCatalogCSV(strings.NewReader(data)); err == nil {
		t.Error("expected parse error for bad latitude")
	}
}

func TestLoadCostSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.json")
	if err := os.WriteFile(path, []byte(`{"1": 100000, "2": 150000, "3": 180000}`), 0o644); err != nil {
		t.Fatalf("write costs: %v", err)
	}
	costs, err := LoadCostSchedule(path)
	if err != nil {
		t.Fatalf("LoadCostSchedule: %v", err)
	}
	if costs[2] != 150000 {
		t.Errorf("costs[2] = %v, want 150000", costs[2])
	}
	if err := costs.Validate(3); err != nil {
		t.Errorf("Validate(3) = %v", err)
	}
}

func TestLoadCostScheduleBadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.json")
	if err := os.WriteFile(path, []byte(`{"two": 150000}`), 0o644); err != nil {
		t.Fatalf("write costs: %v", err)
	}
	if _, err := LoadCostSchedule(path); err == nil {
		t.Error("expected error for non-numeric key")
	}
}
