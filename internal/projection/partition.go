package projection

import (
	"sort"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
	"github.com/uprl-lab/uprl/internal/core/instance"
)

// instanceFacts is the fact set of one fulfillment-instance partition: its
// timeline entries and the payable lines scoped to it.
type instanceFacts struct {
	key     instance.Key
	entries []*v1.SupplierTimelineEntry
	lines   []*v1.PayableLine
}

// partitionInstances splits an order's supplier-side facts into independent
// fulfillment-instance partitions. One partition per distinct
// (order_detail_id, supplier_reference_id, fulfillment scope) triple; lines
// whose partition never saw a timeline entry are dropped here and therefore
// absent from results, matching the "no timeline entry, no instance" rule.
//
// The returned slice is deterministically ordered by partition key.
func partitionInstances(entries []*v1.SupplierTimelineEntry, lines []*v1.PayableLine) []instanceFacts {
	byKey := make(map[instance.Key]*instanceFacts)

	for _, e := range entries {
		key := instance.ForTimelineEntry(e)
		facts, ok := byKey[key]
		if !ok {
			facts = &instanceFacts{key: key}
			byKey[key] = facts
		}
		facts.entries = append(facts.entries, e)
	}

	for _, l := range lines {
		key := instance.ForLine(l)
		facts, ok := byKey[key]
		if !ok {
			continue
		}
		facts.lines = append(facts.lines, l)
	}

	result := make([]instanceFacts, 0, len(byKey))
	for _, facts := range byKey {
		result = append(result, *facts)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].key.Less(result[j].key)
	})
	return result
}
