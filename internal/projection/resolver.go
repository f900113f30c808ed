package projection

import v1 "github.com/uprl-lab/uprl/internal/api/v1"

// The latest-state resolver: the row with the maximum version is the
// authoritative fact of a partition. Ties break by emission timestamp, then ingest
// sequence. Callers pass facts already scoped to one partition; resolving
// latest across partitions would silently mix independent timelines.

// latestSupplierEntry returns the authoritative entry among the given
// partition-scoped timeline entries, or nil for an empty partition.
func latestSupplierEntry(entries []*v1.SupplierTimelineEntry) *v1.SupplierTimelineEntry {
	var latest *v1.SupplierTimelineEntry
	for _, e := range entries {
		if latest == nil || supplierEntryNewer(e, latest) {
			latest = e
		}
	}
	return latest
}

func supplierEntryNewer(a, b *v1.SupplierTimelineEntry) bool {
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	if !a.EmittedAt.Equal(b.EmittedAt) {
		return a.EmittedAt.After(b.EmittedAt)
	}
	return a.IngestSeq > b.IngestSeq
}

// latestPaymentEntry returns the payment entry with the maximum timeline
// version for the order, or nil when no payment fact exists.
func latestPaymentEntry(entries []*v1.PaymentTimelineEntry) *v1.PaymentTimelineEntry {
	var latest *v1.PaymentTimelineEntry
	for _, e := range entries {
		if latest == nil || paymentEntryNewer(e, latest) {
			latest = e
		}
	}
	return latest
}

func paymentEntryNewer(a, b *v1.PaymentTimelineEntry) bool {
	if a.TimelineVersion != b.TimelineVersion {
		return a.TimelineVersion > b.TimelineVersion
	}
	if !a.EmittedAt.Equal(b.EmittedAt) {
		return a.EmittedAt.After(b.EmittedAt)
	}
	return a.IngestSeq > b.IngestSeq
}

// latestRefundEntry returns the latest entry of one refund's partition.
func latestRefundEntry(entries []*v1.RefundTimelineEntry) *v1.RefundTimelineEntry {
	var latest *v1.RefundTimelineEntry
	for _, e := range entries {
		if latest == nil || refundEntryNewer(e, latest) {
			latest = e
		}
	}
	return latest
}

func refundEntryNewer(a, b *v1.RefundTimelineEntry) bool {
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	if !a.EmittedAt.Equal(b.EmittedAt) {
		return a.EmittedAt.After(b.EmittedAt)
	}
	return a.IngestSeq > b.IngestSeq
}

// latestComponent returns the latest-version occurrence of one semantic
// component's partition.
func latestComponent(components []*v1.PricingComponent) *v1.PricingComponent {
	var latest *v1.PricingComponent
	for _, c := range components {
		if latest == nil || componentNewer(c, latest) {
			latest = c
		}
	}
	return latest
}

func componentNewer(a, b *v1.PricingComponent) bool {
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	if !a.EmittedAt.Equal(b.EmittedAt) {
		return a.EmittedAt.After(b.EmittedAt)
	}
	return a.IngestSeq > b.IngestSeq
}
