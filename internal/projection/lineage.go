package projection

import (
	"sort"

	"github.com/shopspring/decimal"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

// buildLineage assembles the lineage of one semantic pricing component from
// its non-refund occurrences and the refund components pointing back at it.
//
// Refunds carry their own semantic ids and are versioned facts in their own
// right, so they group by refund identity first; only the latest version of
// each distinct refund contributes to the net amount. Summing across versions
// would double-count superseded refund emissions.
func buildLineage(semanticID string, originals, refunds []*v1.PricingComponent) ComponentLineage {
	lineage := ComponentLineage{
		SemanticID: semanticID,
		Originals:  originals,
		NetAmount:  decimal.Zero,
	}

	if latest := latestComponent(originals); latest != nil {
		lineage.NetAmount = latest.Amount
	}

	grouped := make(map[string][]*v1.PricingComponent)
	var order []string
	for _, r := range refunds {
		if _, seen := grouped[r.SemanticID]; !seen {
			order = append(order, r.SemanticID)
		}
		grouped[r.SemanticID] = append(grouped[r.SemanticID], r)
	}
	sort.Strings(order)

	for _, id := range order {
		history := grouped[id]
		latest := latestComponent(history)
		lineage.Refunds = append(lineage.Refunds, RefundGroup{
			SemanticID: id,
			Latest:     latest,
			History:    history,
		})
		lineage.NetAmount = lineage.NetAmount.Add(latest.Amount)
	}

	return lineage
}
