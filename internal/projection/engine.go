package projection

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

// The payable projection engine. A pure function of one partition's fact
// history: the authoritative (latest) supplier timeline entry decides the
// baseline and whether timeline-linked obligations apply; standalone
// adjustments always apply; everything nets per party.

type partyPair struct {
	partyID        string
	obligationType string
}

// projectInstance derives the payable breakdown for one fulfillment-instance
// partition. Returns nil when the partition has no timeline entry at all;
// such an instance is simply absent from results, not an error.
func projectInstance(facts instanceFacts) *PayableInstance {
	latest := latestSupplierEntry(facts.entries)
	if latest == nil {
		return nil
	}

	baseline, reason, includeTimeline := baselineForStatus(latest)

	timeline := selectTimelineObligations(facts.lines, latest.Version, includeTimeline)
	standalone := selectStandaloneObligations(facts.lines)
	combined := append(timeline, standalone...)

	sort.Slice(combined, func(i, j int) bool {
		a, b := combined[i], combined[j]
		if a.PartyID != b.PartyID {
			return a.PartyID < b.PartyID
		}
		if a.TimelineVersion != b.TimelineVersion {
			return a.TimelineVersion < b.TimelineVersion
		}
		if a.ObligationType != b.ObligationType {
			return a.ObligationType < b.ObligationType
		}
		return a.LineID < b.LineID
	})

	// Legacy emitters put the cancellation fee on the timeline entry instead
	// of a CANCELLATION_FEE line. Deprecated path, kept for old facts.
	if latest.Status == v1.StatusCancelledWithFee &&
		latest.CancellationFeeAmount.IsPositive() &&
		!hasCancellationFeeLine(combined, latest.SupplierID) {
		baseline = latest.CancellationFeeAmount
		reason = "cancellation fee from deprecated cancellation_fee_amount field"
		slog.Warn("Falling back to legacy cancellation fee field",
			"order_id", latest.OrderID,
			"order_detail_id", latest.OrderDetailID,
			"supplier_timeline_version", latest.Version,
			"fee", latest.CancellationFeeAmount)
	}

	parties := aggregateParties(latest, baseline, combined)

	total := decimal.Zero
	for _, p := range parties {
		total = total.Add(p.TotalPayable)
	}

	return &PayableInstance{
		OrderDetailID:         latest.OrderDetailID,
		SupplierReferenceID:   latest.SupplierReferenceID,
		FulfillmentInstanceID: latest.FulfillmentInstanceID,
		SupplierID:            latest.SupplierID,
		Status:                latest.Status,
		TimelineVersion:       latest.Version,
		Baseline:              baseline,
		BaselineBasis:         baselineBasis(latest),
		BaselineReason:        reason,
		Currency:              latest.Currency,
		Parties:               parties,
		TotalPayable:          total,
	}
}

// baselineForStatus maps the authoritative status to the supplier baseline and
// decides whether timeline-linked obligations participate at all.
func baselineForStatus(latest *v1.SupplierTimelineEntry) (decimal.Decimal, string, bool) {
	switch latest.Status {
	case v1.StatusConfirmed, v1.StatusIssued, v1.StatusInvoiced, v1.StatusSettled:
		return latest.Amount, fmt.Sprintf("supplier cost (status: %s)", latest.Status), true
	case v1.StatusCancelledWithFee:
		// Fee is expected as a CANCELLATION_FEE payable line; baseline stays 0.
		return decimal.Zero, "cancelled, fee expected in payable lines", false
	case v1.StatusCancelledNoFee, v1.StatusVoided:
		return decimal.Zero, fmt.Sprintf("cancelled without fee (status: %s)", latest.Status), false
	default:
		return decimal.Zero, fmt.Sprintf("unknown status: %s", latest.Status), false
	}
}

func baselineBasis(latest *v1.SupplierTimelineEntry) string {
	switch latest.Status {
	case v1.StatusConfirmed, v1.StatusIssued, v1.StatusInvoiced, v1.StatusSettled:
		return latest.AmountBasis
	}
	return ""
}

// selectTimelineObligations picks the timeline-linked lines (version >= 1)
// that count toward the current projection.
//
// Active statuses use a party-level projection: for every
// (party_id, obligation_type) pair observed anywhere in history, only the
// rows from that pair's own latest version survive. Each obligation type
// evolves independently; the newest value of each always wins.
//
// Cancelled/voided statuses invert the rule: if the instance's own latest
// timeline version introduced lines, those lines replace everything older
// (cancellation with new lines is a reset, not a merge); if it introduced
// none, all prior timeline obligations are cleared. The presence check on the
// latest version is inherited emitter behavior and must stay an inference,
// not an explicit flag.
func selectTimelineObligations(lines []*v1.PayableLine, latestVersion int64, includeTimeline bool) []Obligation {
	if includeTimeline {
		latestPerPair := make(map[partyPair]int64)
		for _, l := range lines {
			if l.Standalone() {
				continue
			}
			pair := partyPair{partyID: l.PartyID, obligationType: l.ObligationType}
			if v, ok := latestPerPair[pair]; !ok || l.TimelineVersion > v {
				latestPerPair[pair] = l.TimelineVersion
			}
		}

		var selected []Obligation
		for _, l := range lines {
			if l.Standalone() {
				continue
			}
			pair := partyPair{partyID: l.PartyID, obligationType: l.ObligationType}
			if latestPerPair[pair] == l.TimelineVersion {
				selected = append(selected, toObligation(l))
			}
		}
		return selected
	}

	var latestLines []Obligation
	for _, l := range lines {
		if !l.Standalone() && l.TimelineVersion == latestVersion {
			latestLines = append(latestLines, toObligation(l))
		}
	}
	return latestLines
}

// selectStandaloneObligations returns every standalone adjustment. These are
// status-independent facts: a partner penalty recorded after cancellation
// survives the cancellation reset.
func selectStandaloneObligations(lines []*v1.PayableLine) []Obligation {
	var selected []Obligation
	for _, l := range lines {
		if l.Standalone() {
			selected = append(selected, toObligation(l))
		}
	}
	return selected
}

func toObligation(l *v1.PayableLine) Obligation {
	return Obligation{
		LineID:          l.LineID,
		ObligationType:  l.ObligationType,
		PartyType:       l.PartyType,
		PartyID:         l.PartyID,
		PartyName:       l.PartyName,
		Amount:          l.Amount,
		AmountEffect:    l.AmountEffect,
		Currency:        l.Currency,
		TimelineVersion: l.TimelineVersion,
	}
}

func hasCancellationFeeLine(obligations []Obligation, supplierID string) bool {
	for _, o := range obligations {
		if o.PartyID == supplierID && o.ObligationType == v1.ObligationCancellationFee {
			return true
		}
	}
	return false
}

// aggregateParties groups obligations by party and nets each party's
// adjustment. The supplier party is always emitted, obligations or not, and
// is the only party carrying the baseline. Any other party appears exactly
// when it has at least one obligation; an unknown party_id still aggregates,
// with party_name taken verbatim from its lines.
func aggregateParties(latest *v1.SupplierTimelineEntry, baseline decimal.Decimal, obligations []Obligation) []PartyPayable {
	grouped := make(map[string][]Obligation)
	var order []string
	for _, o := range obligations {
		if _, seen := grouped[o.PartyID]; !seen {
			order = append(order, o.PartyID)
		}
		grouped[o.PartyID] = append(grouped[o.PartyID], o)
	}

	supplier := PartyPayable{
		PartyID:   latest.SupplierID,
		PartyType: v1.PartySupplier,
		PartyName: latest.SupplierID,
		Baseline:  baseline,
	}
	if own, ok := grouped[latest.SupplierID]; ok {
		supplier.Obligations = own
		supplier.NetAdjustment = netAdjustment(own)
		if name := firstName(own); name != "" {
			supplier.PartyName = name
		}
	} else {
		supplier.NetAdjustment = decimal.Zero
	}
	supplier.TotalPayable = baseline.Add(supplier.NetAdjustment)

	parties := []PartyPayable{supplier}
	for _, partyID := range order {
		if partyID == latest.SupplierID {
			continue
		}
		own := grouped[partyID]
		net := netAdjustment(own)
		parties = append(parties, PartyPayable{
			PartyID:       partyID,
			PartyType:     own[0].PartyType,
			PartyName:     firstName(own),
			Baseline:      decimal.Zero,
			NetAdjustment: net,
			TotalPayable:  net,
			Obligations:   own,
		})
	}

	return parties
}

func netAdjustment(obligations []Obligation) decimal.Decimal {
	net := decimal.Zero
	for _, o := range obligations {
		switch o.AmountEffect {
		case v1.DecreasesPayable:
			net = net.Sub(o.Amount)
		default:
			net = net.Add(o.Amount)
		}
	}
	return net
}

func firstName(obligations []Obligation) string {
	for _, o := range obligations {
		if o.PartyName != "" {
			return o.PartyName
		}
	}
	return ""
}
