// Command campaign-plan selects plugging campaigns for a well catalog
// under a fixed budget and prints the resulting plan.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/wellspring-data/campaign.report/internal/campaigndb"
	"github.com/wellspring-data/campaign.report/internal/optimize"
	"github.com/wellspring-data/campaign.report/internal/units"
	"github.com/wellspring-data/campaign.report/internal/wells"
)

var (
	wellsPath  = flag.String("wells", "", "Well catalog CSV file (required)")
	costsPath  = flag.String("costs", "", "Mobilization cost schedule JSON file (required)")
	budget     = flag.Float64("budget", 0, "Total budget in dollars (required)")
	policyPath = flag.String("policy", "", "Optional policy JSON file")

	solverName = flag.String("solver", optimize.DefaultSolverName, "Solver backend")
	timeLimit  = flag.Duration("time-limit", 0, "Solve wall-time limit (0 = unlimited)")
	gap        = flag.Float64("gap", 0, "Relative optimality gap, e.g. 0.01 for 1%")
	poolSize   = flag.Int("pool", 1, "Number of alternate solutions to keep")

	dbPath   = flag.String("db", "", "Optional SQLite database to record runs")
	listRuns = flag.Bool("list-runs", false, "List recorded runs from -db and exit")

	distUnits = flag.String("units", units.Miles, "Distance units for display (mi, km, m)")
)

func main() {
	flag.Parse()

	if !units.IsValid(*distUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *distUnits, units.GetValidUnitsString())
	}

	if *listRuns {
		if *dbPath == "" {
			log.Fatal("-list-runs requires -db")
		}
		if err := printRuns(*dbPath); err != nil {
			log.Fatalf("failed to list runs: %v", err)
		}
		return
	}

	if *wellsPath == "" || *costsPath == "" || *budget <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	catalog, err := wells.LoadCatalogCSV(*wellsPath)
	if err != nil {
		log.Fatalf("failed to load well catalog: %v", err)
	}
	costs, err := wells.LoadCostSchedule(*costsPath)
	if err != nil {
		log.Fatalf("failed to load cost schedule: %v", err)
	}

	var policy *optimize.Policy
	if *policyPath != "" {
		policy, err = optimize.LoadPolicy(*policyPath)
		if err != nil {
			log.Fatalf("failed to load policy: %v", err)
		}
	}

	in, err := optimize.NewOptimizationInput(catalog, nil, *budget, costs, policy)
	if err != nil {
		log.Fatalf("failed to assemble inputs: %v", err)
	}
	log.Printf("assembled %d wells across %d campaign candidates", in.TotalWells(), len(in.Candidates))

	m, err := optimize.BuildModel(in, nil)
	if err != nil {
		log.Fatalf("failed to build model: %v", err)
	}
	log.Printf("built %s model: %d variables, %d constraints", m.Formulation, len(m.Vars), len(m.Cons))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := optimize.SolveOptions{
		Solver:      *solverName,
		TimeLimit:   *timeLimit,
		RelativeGap: *gap,
		PoolSize:    *poolSize,
	}
	start := time.Now()
	res, err := optimize.Solve(ctx, m, opts)
	if err != nil {
		log.Fatalf("solve failed: %v", err)
	}
	log.Printf("solve finished in %v: outcome=%s, lazy cuts=%d", time.Since(start).Round(time.Millisecond), res.Outcome, res.LazyCutsAdded)

	pr, err := optimize.ExtractResult(m, res)
	if err != nil {
		log.Fatalf("failed to extract result: %v", err)
	}
	printPlan(in, pr)

	if *poolSize > 1 && len(res.Pool) > 1 {
		alternates, err := optimize.ExtractPool(m, res)
		if err != nil {
			log.Fatalf("failed to extract solution pool: %v", err)
		}
		fmt.Printf("\nAlternate plans (%d):\n", len(alternates)-1)
		for i, alt := range alternates[1:] {
			fmt.Printf("  #%d objective %.4f, spend %s\n", i+2, alt.Objective, units.FormatUSD(alt.TotalCost))
		}
	}

	if *dbPath != "" {
		if err := recordRun(*dbPath, pr, *budget, opts.Solver, res.LazyCutsAdded); err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		log.Printf("recorded run %s in %s", pr.RunID, *dbPath)
	}

	if pr.Outcome == optimize.OutcomeInfeasible {
		os.Exit(1)
	}
}

func printPlan(in *optimize.OptimizationInput, pr *optimize.ProjectResult) {
	fmt.Printf("Run %s: %s\n", pr.RunID, pr.Outcome)
	if pr.Outcome == optimize.OutcomeInfeasible {
		fmt.Println("No feasible plan found.")
		return
	}

	fmt.Printf("Objective: %.4f\n", pr.Objective)
	fmt.Printf("Budget:    %s  spend %s  unused %s\n",
		units.FormatUSD(in.Budget), units.FormatUSD(pr.TotalCost), units.FormatUSD(pr.UnusedBudget))

	for _, sel := range pr.Selections {
		fmt.Printf("\nCampaign %d: %d wells, %s\n", sel.Campaign, sel.Count, units.FormatMillionUSD(sel.Cost))
		wellIDs := append([]string(nil), sel.Wells...)
		sort.Strings(wellIDs)
		for _, wellID := range wellIDs {
			w := in.Well(wellID)
			fmt.Printf("  %-12s score %5.1f  owner %s\n", wellID, w.Score, w.Owner)
		}
	}
}

func printRuns(path string) error {
	db, err := campaigndb.NewDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ListRuns(50)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %s  %-10s  objective %10.4f  spend %s of %s\n",
			rec.RunID, rec.CreatedAt.Format(time.RFC3339), rec.Outcome,
			rec.Objective, units.FormatUSD(rec.TotalCost), units.FormatUSD(rec.Budget))
	}
	return nil
}

func recordRun(path string, pr *optimize.ProjectResult, budget float64, solver string, lazyCuts int) error {
	db, err := campaigndb.NewDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		return err
	}
	return db.SaveResult(pr, budget, solver, lazyCuts)
}
