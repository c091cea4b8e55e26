// Package campaigndb persists optimization runs to SQLite so plans can
// be reviewed and compared after the fact.
package campaigndb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wellspring-data/campaign.report/internal/optimize"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite database at path. Call MigrateUp
// before using the result store on a fresh database.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// RunRecord is one persisted solve run's summary row.
type RunRecord struct {
	RunID        uuid.UUID
	CreatedAt    time.Time
	Outcome      string
	Objective    float64
	Budget       float64
	TotalCost    float64
	UnusedBudget float64
	Solver       string
	LazyCuts     int
}

// SaveResult stores a plan and its per-campaign breakdown in one
// transaction.
func (db *DB) SaveResult(pr *optimize.ProjectResult, budget float64, solver string, lazyCuts int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO solve_runs (run_id, outcome, objective, budget, total_cost, unused_budget, solver, lazy_cuts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pr.RunID.String(), pr.Outcome.String(), pr.Objective, budget,
		pr.TotalCost, pr.UnusedBudget, solver, lazyCuts)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", pr.RunID, err)
	}

	for _, sel := range pr.Selections {
		_, err = tx.Exec(`
			INSERT INTO run_campaigns (run_id, campaign, well_count, cost)
			VALUES (?, ?, ?, ?)`,
			pr.RunID.String(), sel.Campaign, sel.Count, sel.Cost)
		if err != nil {
			return fmt.Errorf("insert campaign %d: %w", sel.Campaign, err)
		}
		for _, wellID := range sel.Wells {
			_, err = tx.Exec(`
				INSERT INTO run_wells (run_id, campaign, well_id)
				VALUES (?, ?, ?)`,
				pr.RunID.String(), sel.Campaign, wellID)
			if err != nil {
				return fmt.Errorf("insert well %q: %w", wellID, err)
			}
		}
	}

	return tx.Commit()
}

// LoadResult reconstructs a persisted plan by run id.
func (db *DB) LoadResult(runID uuid.UUID) (*optimize.ProjectResult, error) {
	pr := &optimize.ProjectResult{RunID: runID}
	var outcome string
	err := db.QueryRow(`
		SELECT outcome, objective, total_cost, unused_budget
		FROM solve_runs WHERE run_id = ?`, runID.String()).
		Scan(&outcome, &pr.Objective, &pr.TotalCost, &pr.UnusedBudget)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	pr.Outcome, err = parseOutcome(outcome)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT campaign, well_count, cost
		FROM run_campaigns WHERE run_id = ? ORDER BY campaign`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("load campaigns for %s: %w", runID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var sel optimize.CampaignSelection
		if err := rows.Scan(&sel.Campaign, &sel.Count, &sel.Cost); err != nil {
			return nil, err
		}
		pr.Selections = append(pr.Selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range pr.Selections {
		sel := &pr.Selections[i]
		wellRows, err := db.Query(`
			SELECT well_id FROM run_wells
			WHERE run_id = ? AND campaign = ? ORDER BY well_id`,
			runID.String(), sel.Campaign)
		if err != nil {
			return nil, fmt.Errorf("load wells for campaign %d: %w", sel.Campaign, err)
		}
		for wellRows.Next() {
			var wellID string
			if err := wellRows.Scan(&wellID); err != nil {
				wellRows.Close()
				return nil, err
			}
			sel.Wells = append(sel.Wells, wellID)
		}
		if err := wellRows.Err(); err != nil {
			wellRows.Close()
			return nil, err
		}
		wellRows.Close()
	}

	return pr, nil
}

// ListRuns returns the most recent run summaries, newest first.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, created_at, outcome, objective, budget, total_cost, unused_budget, solver, lazy_cuts
		FROM solve_runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var id string
		if err := rows.Scan(&id, &rec.CreatedAt, &rec.Outcome, &rec.Objective,
			&rec.Budget, &rec.TotalCost, &rec.UnusedBudget, &rec.Solver, &rec.LazyCuts); err != nil {
			return nil, err
		}
		rec.RunID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func parseOutcome(s string) (optimize.Outcome, error) {
	switch s {
	case "optimal":
		return optimize.OutcomeOptimal, nil
	case "feasible":
		return optimize.OutcomeFeasible, nil
	case "infeasible":
		return optimize.OutcomeInfeasible, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}
