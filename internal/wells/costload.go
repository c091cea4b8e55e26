package wells

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LoadCostSchedule reads a mobilization cost schedule from a JSON file
// mapping campaign size to total cost in dollars, e.g.
// {"1": 100000, "2": 150000, "3": 180000}.
func LoadCostSchedule(path string) (CostSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost schedule: %w", err)
	}

	raw := map[string]float64{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cost schedule: %w", err)
	}

	costs := make(CostSchedule, len(raw))
	for key, cost := range raw {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("cost schedule key %q is not a well count", key)
		}
		costs[n] = cost
	}
	return costs, nil
}
