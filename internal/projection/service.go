package projection

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
	"github.com/uprl-lab/uprl/internal/core/storage"
)

// Service implements the read-side query layer. Every method is a pure
// derivation over the current fact history: no hidden state, safe to invoke
// concurrently and repeatedly, identical results for an unchanged fact set.
type Service struct {
	store storage.FactStore
}

// NewService creates a new projection service.
func NewService(store storage.FactStore) *Service {
	if store == nil {
		panic("projection: store must not be nil")
	}
	return &Service{store: store}
}

// ProjectPayables derives the payable breakdown for every fulfillment
// instance of an order. An order with no supplier timeline at all yields an
// empty slice, not an error.
func (s *Service) ProjectPayables(ctx context.Context, orderID string) ([]PayableInstance, error) {
	entries, err := s.store.ListSupplierTimeline(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list supplier timeline: %w", err)
	}
	lines, err := s.store.ListPayableLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payable lines: %w", err)
	}

	var results []PayableInstance
	for _, facts := range partitionInstances(entries, lines) {
		if inst := projectInstance(facts); inst != nil {
			results = append(results, *inst)
		}
	}
	return results, nil
}

// PayablesAudit returns every payable line of an order in version order,
// showing when each obligation entered history.
func (s *Service) PayablesAudit(ctx context.Context, orderID string) ([]AuditLine, error) {
	lines, err := s.store.ListPayableLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payable lines: %w", err)
	}

	audit := make([]AuditLine, 0, len(lines))
	for _, l := range lines {
		audit = append(audit, AuditLine{
			TimelineVersion: l.TimelineVersion,
			LineID:          l.LineID,
			EventID:         l.EventID,
			OrderDetailID:   l.OrderDetailID,
			ObligationType:  l.ObligationType,
			PartyType:       l.PartyType,
			PartyID:         l.PartyID,
			PartyName:       l.PartyName,
			Amount:          l.Amount,
			AmountEffect:    l.AmountEffect,
			Currency:        l.Currency,
			IngestedAt:      l.IngestedAt,
		})
	}
	return audit, nil
}

// ProjectPricing returns the latest occurrence of each semantic pricing
// component for an order.
func (s *Service) ProjectPricing(ctx context.Context, orderID string) ([]*v1.PricingComponent, error) {
	components, err := s.store.ListPricingComponents(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list pricing components: %w", err)
	}

	bySemantic := make(map[string][]*v1.PricingComponent)
	var order []string
	for _, c := range components {
		if _, seen := bySemantic[c.SemanticID]; !seen {
			order = append(order, c.SemanticID)
		}
		bySemantic[c.SemanticID] = append(bySemantic[c.SemanticID], c)
	}
	sort.Strings(order)

	var latest []*v1.PricingComponent
	for _, id := range order {
		latest = append(latest, latestComponent(bySemantic[id]))
	}
	return latest, nil
}

// PricingHistory returns the version-grouped summary of an order's pricing
// emissions, newest first.
func (s *Service) PricingHistory(ctx context.Context, orderID string) ([]PricingVersionSummary, error) {
	components, err := s.store.ListPricingComponents(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list pricing components: %w", err)
	}

	byVersion := make(map[int64]*PricingVersionSummary)
	for _, c := range components {
		sum, ok := byVersion[c.Version]
		if !ok {
			sum = &PricingVersionSummary{
				Version:    c.Version,
				SnapshotID: c.SnapshotID,
				Currency:   c.Currency,
				EmittedAt:  c.EmittedAt,
			}
			byVersion[c.Version] = sum
		}
		sum.ComponentCount++
		sum.TotalAmount = sum.TotalAmount.Add(c.Amount)
	}

	summaries := make([]PricingVersionSummary, 0, len(byVersion))
	for _, sum := range byVersion {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Version > summaries[j].Version
	})
	return summaries, nil
}

// ProjectPaymentState returns the authoritative payment timeline entry for an
// order, or nil when the order has no payment facts.
func (s *Service) ProjectPaymentState(ctx context.Context, orderID string) (*v1.PaymentTimelineEntry, error) {
	entries, err := s.store.ListPaymentTimeline(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payment timeline: %w", err)
	}
	return latestPaymentEntry(entries), nil
}

// ProjectRefunds returns the state of every refund attached to an order:
// latest entry per refund id plus the full version history.
func (s *Service) ProjectRefunds(ctx context.Context, orderID string) ([]RefundState, error) {
	entries, err := s.store.ListRefundTimeline(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list refund timeline: %w", err)
	}

	byRefund := make(map[string][]*v1.RefundTimelineEntry)
	var order []string
	for _, e := range entries {
		if _, seen := byRefund[e.RefundID]; !seen {
			order = append(order, e.RefundID)
		}
		byRefund[e.RefundID] = append(byRefund[e.RefundID], e)
	}
	sort.Strings(order)

	var states []RefundState
	for _, id := range order {
		history := byRefund[id]
		states = append(states, RefundState{
			RefundID: id,
			Latest:   latestRefundEntry(history),
			History:  history,
		})
	}
	return states, nil
}

// ComponentLineage traces one semantic pricing component across versions
// together with the refunds that reverse it.
func (s *Service) ComponentLineage(ctx context.Context, semanticID string) (ComponentLineage, error) {
	originals, refunds, err := s.store.ListComponentLineage(ctx, semanticID)
	if err != nil {
		return ComponentLineage{}, fmt.Errorf("list component lineage: %w", err)
	}
	return buildLineage(semanticID, originals, refunds), nil
}

// OrderView assembles every projection for one order in a single document.
// The four reads are independent and fan out concurrently.
func (s *Service) OrderView(ctx context.Context, orderID string) (*OrderView, error) {
	view := &OrderView{OrderID: orderID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pricing, err := s.ProjectPricing(gctx, orderID)
		if err != nil {
			return err
		}
		view.Pricing = pricing
		return nil
	})
	g.Go(func() error {
		payment, err := s.ProjectPaymentState(gctx, orderID)
		if err != nil {
			return err
		}
		view.PaymentState = payment
		return nil
	})
	g.Go(func() error {
		payables, err := s.ProjectPayables(gctx, orderID)
		if err != nil {
			return err
		}
		view.Payables = payables
		return nil
	})
	g.Go(func() error {
		refunds, err := s.ProjectRefunds(gctx, orderID)
		if err != nil {
			return err
		}
		view.Refunds = refunds
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
