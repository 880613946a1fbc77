package state

// DefaultWorkType is used for W cards without a work_type_restriction.
const DefaultWorkType = "General"

// ScopeItem aggregates W card costs for one work type.
type ScopeItem struct {
	WorkType string `json:"workType"`
	Cost     int    `json:"cost"`
	Count    int    `json:"count"`
}

// ComputeScope projects W cards onto per-work-type scope items, ordered by
// the first card of each work type, and returns the total cost.
func ComputeScope(workCards []Card) ([]ScopeItem, int) {
	items := make([]ScopeItem, 0)
	index := make(map[string]int)
	total := 0

	for _, card := range workCards {
		workType := card.String("work_type_restriction")
		if workType == "" {
			workType = DefaultWorkType
		}
		cost := card.Int("work_cost")

		i, ok := index[workType]
		if !ok {
			i = len(items)
			index[workType] = i
			items = append(items, ScopeItem{WorkType: workType})
		}
		items[i].Cost += cost
		items[i].Count++
		total += cost
	}

	return items, total
}
