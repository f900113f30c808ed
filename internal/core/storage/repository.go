package storage

import (
	"context"
	"errors"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

// ErrDuplicate is returned when a fact's natural key already exists.
// Idempotent re-delivery of the same key is rejected, never silently merged.
var ErrDuplicate = errors.New("fact already exists")

// FactStore is the append-only fact repository. Facts are created once and
// never mutated or deleted; every Append assigns the partition-scoped version
// server-side (max existing + 1, or 1 for an empty partition) and persists the
// fact atomically.
//
// The write path is not safe under concurrent writers to the same partition:
// version assignment is read-max-then-write. Callers must guarantee at most
// one concurrent writer per partition. Reads carry no such restriction.
type FactStore interface {
	// AppendPricingSnapshot persists all components of one pricing emission
	// under a single version assigned per order. All-or-nothing.
	AppendPricingSnapshot(ctx context.Context, fact *v1.PricingSnapshotFact) error

	// AppendPaymentEntry persists one payment timeline entry, versioned per order.
	AppendPaymentEntry(ctx context.Context, entry *v1.PaymentTimelineEntry) error

	// AppendSupplierLifecycle persists a supplier timeline entry together with
	// the payable lines it introduces, in one transaction. The assigned
	// version is scoped to (order_id, order_detail_id) and stamped on the
	// entry and every line.
	AppendSupplierLifecycle(ctx context.Context, fact *v1.SupplierLifecycleFact) error

	// AppendStandaloneLine persists a status-independent payable adjustment
	// with the reserved standalone version sentinel.
	AppendStandaloneLine(ctx context.Context, line *v1.PayableLine) error

	// AppendRefundEntry persists one refund timeline entry, versioned per
	// (order_id, refund_id).
	AppendRefundEntry(ctx context.Context, entry *v1.RefundTimelineEntry) error

	// RecordRejected persists a rejected raw event verbatim for audit/replay.
	RecordRejected(ctx context.Context, rec *v1.DeadLetterRecord) error

	// ListPricingComponents returns all pricing component facts for an order,
	// ordered by version then ingest sequence.
	ListPricingComponents(ctx context.Context, orderID string) ([]*v1.PricingComponent, error)

	// ListComponentLineage returns all non-refund occurrences of a semantic
	// component plus all refund components that reference it.
	ListComponentLineage(ctx context.Context, semanticID string) (originals, refunds []*v1.PricingComponent, err error)

	// ListPaymentTimeline returns all payment entries for an order in
	// timeline-version order.
	ListPaymentTimeline(ctx context.Context, orderID string) ([]*v1.PaymentTimelineEntry, error)

	// ListSupplierTimeline returns all supplier timeline entries for an order
	// in version order.
	ListSupplierTimeline(ctx context.Context, orderID string) ([]*v1.SupplierTimelineEntry, error)

	// ListPayableLines returns all payable lines for an order, timeline-linked
	// and standalone alike.
	ListPayableLines(ctx context.Context, orderID string) ([]*v1.PayableLine, error)

	// ListRefundTimeline returns all refund entries for an order ordered by
	// (refund_id, version).
	ListRefundTimeline(ctx context.Context, orderID string) ([]*v1.RefundTimelineEntry, error)

	// ListDeadLetters returns the most recent rejected events, newest first.
	ListDeadLetters(ctx context.Context, limit int) ([]*v1.DeadLetterRecord, error)
}
