package optimize

import (
	"sort"

	"github.com/wellspring-data/campaign.report/internal/wells"
)

// DeriveCampaigns groups catalog wells into campaign candidates by
// single-linkage agglomerative clustering: two wells land in the same
// campaign iff they are connected by a chain of pairwise hops no
// longer than thresholdMiles.
//
// The output is deterministic: campaign ids are assigned in order of
// each group's first well in catalog order, starting at 1, and member
// lists preserve catalog order.
func DeriveCampaigns(catalog *wells.Catalog, thresholdMiles float64) map[int][]string {
	n := catalog.Len()
	if n == 0 {
		return map[int][]string{}
	}

	// Union-find over catalog indices.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if wells.Distance(&catalog.Wells[i], &catalog.Wells[j]) <= thresholdMiles {
				union(i, j)
			}
		}
	}

	// Assign campaign ids in order of first appearance.
	rootID := make(map[int]int)
	mapping := make(map[int][]string)
	next := 1
	for i := 0; i < n; i++ {
		root := find(i)
		id, ok := rootID[root]
		if !ok {
			id = next
			next++
			rootID[root] = id
		}
		mapping[id] = append(mapping[id], catalog.Wells[i].ID)
	}
	return mapping
}

// sortedCampaignIDs returns the mapping's campaign ids in ascending
// order, for deterministic iteration.
func sortedCampaignIDs(mapping map[int][]string) []int {
	ids := make([]int, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
