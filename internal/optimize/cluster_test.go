package optimize

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wellspring-data/campaign.report/internal/wells"
)

func TestDeriveCampaignsGroupsByProximity(t *testing.T) {
	catalog := testCatalog(t, []wells.Well{
		{ID: "a", Latitude: 40.0, Longitude: -100.0, Score: 10},
		{ID: "b", Latitude: 40.0 + latOffset(2), Longitude: -100.0, Score: 20},
		{ID: "c", Latitude: 40.0 + latOffset(50), Longitude: -100.0, Score: 30},
	})
	mapping := DeriveCampaigns(catalog, 5)
	want := map[int][]string{
		1: {"a", "b"},
		2: {"c"},
	}
	if diff := cmp.Diff(want, mapping); diff != "" {
		t.Errorf("DeriveCampaigns mismatch (-want +got):\n%s", diff)
	}
}

func TestDeriveCampaignsChaining(t *testing.T) {
	// a-b and b-c are each 4 miles apart, a-c is 8. Single linkage
	// chains all three into one campaign at a 5 mile threshold.
	catalog := testCatalog(t, []wells.Well{
		{ID: "a", Latitude: 40.0, Longitude: -100.0, Score: 10},
		{ID: "b", Latitude: 40.0 + latOffset(4), Longitude: -100.0, Score: 20},
		{ID: "c", Latitude: 40.0 + latOffset(8), Longitude: -100.0, Score: 30},
	})
	mapping := DeriveCampaigns(catalog, 5)
	if len(mapping) != 1 || len(mapping[1]) != 3 {
		t.Errorf("expected one campaign of 3 wells, got %v", mapping)
	}
}

func TestDeriveCampaignsEmptyCatalog(t *testing.T) {
	catalog := testCatalog(t, nil)
	if mapping := DeriveCampaigns(catalog, 5); len(mapping) != 0 {
		t.Errorf("expected empty mapping, got %v", mapping)
	}
}
