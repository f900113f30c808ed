// Package memory provides an in-memory storage.FactStore.
// Useful for testing and local development; semantics mirror the postgres
// adapter, including version assignment and duplicate-key rejection.
package memory

import (
	"context"
	"sort"
	"sync"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
	"github.com/uprl-lab/uprl/internal/core/storage"
)

// Store is an in-memory implementation of storage.FactStore.
type Store struct {
	mu        sync.RWMutex
	ingestSeq int64

	pricing     []*v1.PricingComponent
	payments    []*v1.PaymentTimelineEntry
	supplier    []*v1.SupplierTimelineEntry
	lines       []*v1.PayableLine
	refunds     []*v1.RefundTimelineEntry
	deadLetters []*v1.DeadLetterRecord

	componentIDs map[string]struct{}
	paymentIDs   map[string]struct{}
	supplierIDs  map[string]struct{}
	lineIDs      map[string]struct{}
	refundIDs    map[string]struct{}
}

// NewStore creates an empty in-memory fact store.
func NewStore() *Store {
	return &Store{
		componentIDs: make(map[string]struct{}),
		paymentIDs:   make(map[string]struct{}),
		supplierIDs:  make(map[string]struct{}),
		lineIDs:      make(map[string]struct{}),
		refundIDs:    make(map[string]struct{}),
	}
}

func (s *Store) nextSeq() int64 {
	s.ingestSeq++
	return s.ingestSeq
}

func (s *Store) AppendPricingSnapshot(ctx context.Context, fact *v1.PricingSnapshotFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(fact.Components))
	for i := range fact.Components {
		id := fact.Components[i].InstanceID
		if _, exists := s.componentIDs[id]; exists {
			return storage.ErrDuplicate
		}
		if _, exists := seen[id]; exists {
			return storage.ErrDuplicate
		}
		seen[id] = struct{}{}
	}

	var version int64 = 1
	for _, c := range s.pricing {
		if c.OrderID == fact.OrderID && c.Version >= version {
			version = c.Version + 1
		}
	}

	for i := range fact.Components {
		c := fact.Components[i]
		c.OrderID = fact.OrderID
		c.SnapshotID = fact.SnapshotID
		c.Version = version
		c.IngestSeq = s.nextSeq()
		fact.Components[i] = c

		stored := c
		s.pricing = append(s.pricing, &stored)
		s.componentIDs[c.InstanceID] = struct{}{}
	}
	return nil
}

func (s *Store) AppendPaymentEntry(ctx context.Context, entry *v1.PaymentTimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.paymentIDs[entry.EventID]; exists {
		return storage.ErrDuplicate
	}

	var version int64 = 1
	for _, e := range s.payments {
		if e.OrderID == entry.OrderID && e.TimelineVersion >= version {
			version = e.TimelineVersion + 1
		}
	}
	entry.TimelineVersion = version
	entry.IngestSeq = s.nextSeq()

	stored := *entry
	s.payments = append(s.payments, &stored)
	s.paymentIDs[entry.EventID] = struct{}{}
	return nil
}

func (s *Store) AppendSupplierLifecycle(ctx context.Context, fact *v1.SupplierLifecycleFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &fact.Entry
	if _, exists := s.supplierIDs[entry.EventID]; exists {
		return storage.ErrDuplicate
	}
	for i := range fact.Lines {
		if _, exists := s.lineIDs[fact.Lines[i].LineID]; exists {
			return storage.ErrDuplicate
		}
	}

	var version int64 = 1
	for _, e := range s.supplier {
		if e.OrderID == entry.OrderID && e.OrderDetailID == entry.OrderDetailID && e.Version >= version {
			version = e.Version + 1
		}
	}
	entry.Version = version
	entry.IngestSeq = s.nextSeq()

	storedEntry := *entry
	s.supplier = append(s.supplier, &storedEntry)
	s.supplierIDs[entry.EventID] = struct{}{}

	for i := range fact.Lines {
		line := fact.Lines[i]
		line.EventID = entry.EventID
		line.OrderID = entry.OrderID
		line.OrderDetailID = entry.OrderDetailID
		line.SupplierReferenceID = entry.SupplierReferenceID
		line.FulfillmentInstanceID = entry.FulfillmentInstanceID
		line.TimelineVersion = version
		line.IngestSeq = s.nextSeq()
		fact.Lines[i] = line

		stored := line
		s.lines = append(s.lines, &stored)
		s.lineIDs[line.LineID] = struct{}{}
	}
	return nil
}

func (s *Store) AppendStandaloneLine(ctx context.Context, line *v1.PayableLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lineIDs[line.LineID]; exists {
		return storage.ErrDuplicate
	}

	line.TimelineVersion = v1.StandaloneVersion
	line.IngestSeq = s.nextSeq()

	stored := *line
	s.lines = append(s.lines, &stored)
	s.lineIDs[line.LineID] = struct{}{}
	return nil
}

func (s *Store) AppendRefundEntry(ctx context.Context, entry *v1.RefundTimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.refundIDs[entry.EventID]; exists {
		return storage.ErrDuplicate
	}

	var version int64 = 1
	for _, e := range s.refunds {
		if e.OrderID == entry.OrderID && e.RefundID == entry.RefundID && e.Version >= version {
			version = e.Version + 1
		}
	}
	entry.Version = version
	entry.IngestSeq = s.nextSeq()

	stored := *entry
	s.refunds = append(s.refunds, &stored)
	s.refundIDs[entry.EventID] = struct{}{}
	return nil
}

func (s *Store) RecordRejected(ctx context.Context, rec *v1.DeadLetterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	s.deadLetters = append(s.deadLetters, &stored)
	return nil
}

func (s *Store) ListPricingComponents(ctx context.Context, orderID string) ([]*v1.PricingComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.PricingComponent
	for _, c := range s.pricing {
		if c.OrderID == orderID {
			copy := *c
			result = append(result, &copy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Version != result[j].Version {
			return result[i].Version < result[j].Version
		}
		return result[i].IngestSeq < result[j].IngestSeq
	})
	return result, nil
}

func (s *Store) ListComponentLineage(ctx context.Context, semanticID string) (originals, refunds []*v1.PricingComponent, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.pricing {
		switch {
		case !c.IsRefund && c.SemanticID == semanticID:
			copy := *c
			originals = append(originals, &copy)
		case c.IsRefund && c.RefundOfSemanticID == semanticID:
			copy := *c
			refunds = append(refunds, &copy)
		}
	}
	byVersion := func(list []*v1.PricingComponent) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].Version != list[j].Version {
				return list[i].Version < list[j].Version
			}
			return list[i].IngestSeq < list[j].IngestSeq
		}
	}
	sort.SliceStable(originals, byVersion(originals))
	sort.SliceStable(refunds, byVersion(refunds))
	return originals, refunds, nil
}

func (s *Store) ListPaymentTimeline(ctx context.Context, orderID string) ([]*v1.PaymentTimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.PaymentTimelineEntry
	for _, e := range s.payments {
		if e.OrderID == orderID {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].TimelineVersion != result[j].TimelineVersion {
			return result[i].TimelineVersion < result[j].TimelineVersion
		}
		return result[i].IngestSeq < result[j].IngestSeq
	})
	return result, nil
}

func (s *Store) ListSupplierTimeline(ctx context.Context, orderID string) ([]*v1.SupplierTimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.SupplierTimelineEntry
	for _, e := range s.supplier {
		if e.OrderID == orderID {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Version != result[j].Version {
			return result[i].Version < result[j].Version
		}
		return result[i].IngestSeq < result[j].IngestSeq
	})
	return result, nil
}

func (s *Store) ListPayableLines(ctx context.Context, orderID string) ([]*v1.PayableLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.PayableLine
	for _, l := range s.lines {
		if l.OrderID == orderID {
			copy := *l
			result = append(result, &copy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].TimelineVersion != result[j].TimelineVersion {
			return result[i].TimelineVersion < result[j].TimelineVersion
		}
		return result[i].IngestSeq < result[j].IngestSeq
	})
	return result, nil
}

func (s *Store) ListRefundTimeline(ctx context.Context, orderID string) ([]*v1.RefundTimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*v1.RefundTimelineEntry
	for _, e := range s.refunds {
		if e.OrderID == orderID {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RefundID != result[j].RefundID {
			return result[i].RefundID < result[j].RefundID
		}
		if result[i].Version != result[j].Version {
			return result[i].Version < result[j].Version
		}
		return result[i].IngestSeq < result[j].IngestSeq
	})
	return result, nil
}

func (s *Store) ListDeadLetters(ctx context.Context, limit int) ([]*v1.DeadLetterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*v1.DeadLetterRecord, len(s.deadLetters))
	for i, d := range s.deadLetters {
		copy := *d
		records[i] = &copy
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FailedAt.After(records[j].FailedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
