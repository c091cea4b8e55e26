package campaigndb

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wellspring-data/campaign.report/internal/optimize"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.MigrateUp())
	return db
}

func sampleResult() *optimize.ProjectResult {
	return &optimize.ProjectResult{
		RunID:     uuid.New(),
		Outcome:   optimize.OutcomeOptimal,
		Objective: 50,
		Selections: []optimize.CampaignSelection{
			{Campaign: 1, Wells: []string{"w2", "w3"}, Count: 2, Cost: 150e6},
		},
		TotalCost:    150e6,
		UnusedBudget: 0,
	}
}

func TestSaveAndLoadResult(t *testing.T) {
	db := testDB(t)
	want := sampleResult()

	require.NoError(t, db.SaveResult(want, 150e6, "branchbound", 0))
	got, err := db.LoadResult(want.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadResultUnknownRun(t *testing.T) {
	db := testDB(t)
	_, err := db.LoadResult(uuid.New())
	require.Error(t, err)
}

func TestSaveResultRejectsDuplicateRun(t *testing.T) {
	db := testDB(t)
	pr := sampleResult()
	require.NoError(t, db.SaveResult(pr, 150e6, "branchbound", 0))
	require.Error(t, db.SaveResult(pr, 150e6, "branchbound", 0),
		"duplicate run id should violate the primary key")
}

func TestListRuns(t *testing.T) {
	db := testDB(t)
	first := sampleResult()
	second := sampleResult()
	second.Outcome = optimize.OutcomeFeasible

	require.NoError(t, db.SaveResult(first, 150e6, "branchbound", 0))
	require.NoError(t, db.SaveResult(second, 200e6, "branchbound", 3))

	records, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	seen := map[uuid.UUID]RunRecord{}
	for _, rec := range records {
		seen[rec.RunID] = rec
	}
	rec, ok := seen[second.RunID]
	require.True(t, ok, "second run missing from listing")
	if rec.Outcome != "feasible" || rec.LazyCuts != 3 || rec.Budget != 200e6 {
		t.Errorf("second run record = %+v", rec)
	}
}

func TestMigrateVersion(t *testing.T) {
	db := testDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	if dirty {
		t.Error("fresh migration reported dirty")
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
}
