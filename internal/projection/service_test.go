package projection

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
	"github.com/uprl-lab/uprl/internal/core/storage"
	"github.com/uprl-lab/uprl/internal/core/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store), store
}

func supplierFact(eventID, orderID, detailID, instanceID string, status v1.SupplierStatus, amount int64, lines ...v1.PayableLine) *v1.SupplierLifecycleFact {
	return &v1.SupplierLifecycleFact{
		Entry: v1.SupplierTimelineEntry{
			EventID:               eventID,
			OrderID:               orderID,
			OrderDetailID:         detailID,
			FulfillmentInstanceID: instanceID,
			SupplierID:            "sup-1",
			Status:                status,
			Amount:                decimal.NewFromInt(amount),
			Currency:              "IDR",
			EmittedAt:             time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		},
		Lines: lines,
	}
}

func TestService_ProjectPayables_TwoInstancesAreDisjoint(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Two redemptions of one multi-instance product. Instance A gets
	// cancelled, instance B stays confirmed; neither affects the other.
	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-1", "ord-multi", "det-1", "redeem-A", v1.StatusConfirmed, 100000)))
	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-2", "ord-multi", "det-1", "redeem-B", v1.StatusConfirmed, 100000)))
	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-3", "ord-multi", "det-1", "redeem-A", v1.StatusCancelledNoFee, 100000)))

	instances, err := svc.ProjectPayables(ctx, "ord-multi")
	require.NoError(t, err)
	require.Len(t, instances, 2)

	byInstance := map[string]PayableInstance{}
	for _, inst := range instances {
		byInstance[inst.FulfillmentInstanceID] = inst
	}

	cancelled := byInstance["redeem-A"]
	require.Equal(t, v1.StatusCancelledNoFee, cancelled.Status)
	require.True(t, cancelled.TotalPayable.IsZero())

	confirmed := byInstance["redeem-B"]
	require.Equal(t, v1.StatusConfirmed, confirmed.Status)
	require.True(t, confirmed.TotalPayable.Equal(decimal.NewFromInt(100000)))
}

func TestService_ProjectPayables_EmptyOrder(t *testing.T) {
	svc, _ := newTestService(t)
	instances, err := svc.ProjectPayables(context.Background(), "ord-none")
	require.NoError(t, err)
	require.Empty(t, instances)
}

func TestService_ProjectPayables_DuplicateAppendDoesNotChangeProjection(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	fact := supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusConfirmed, 300000)
	require.NoError(t, store.AppendSupplierLifecycle(ctx, fact))

	retry := supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusConfirmed, 300000)
	require.ErrorIs(t, store.AppendSupplierLifecycle(ctx, retry), storage.ErrDuplicate)

	instances, err := svc.ProjectPayables(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.EqualValues(t, 1, instances[0].TimelineVersion)
	require.True(t, instances[0].TotalPayable.Equal(decimal.NewFromInt(300000)))
}

func TestService_ProjectPayables_StandaloneAdjustmentIncluded(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusCancelledNoFee, 300000)))
	require.NoError(t, store.AppendStandaloneLine(ctx, &v1.PayableLine{
		LineID:         "ln-penalty",
		OrderID:        "ord-1",
		OrderDetailID:  "det-1",
		ObligationType: "PARTNER_PENALTY",
		PartyType:      v1.PartySupplier,
		PartyID:        "sup-1",
		Amount:         decimal.NewFromInt(500000),
		AmountEffect:   v1.IncreasesPayable,
		Currency:       "IDR",
	}))

	instances, err := svc.ProjectPayables(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, instances, 1)
	require.True(t, instances[0].TotalPayable.Equal(decimal.NewFromInt(500000)))
}

func TestService_PayablesAudit_ChronologicalLines(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendStandaloneLine(ctx, &v1.PayableLine{
		LineID: "ln-standalone", OrderID: "ord-1", OrderDetailID: "det-1",
		ObligationType: "PENALTY", PartyID: "sup-1",
		Amount: decimal.NewFromInt(100), AmountEffect: v1.IncreasesPayable, Currency: "IDR",
	}))
	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusConfirmed, 1000, v1.PayableLine{
			LineID: "ln-comm", ObligationType: "COMMISSION", PartyID: "aff-1",
			PartyType: v1.PartyAffiliate,
			Amount:    decimal.NewFromInt(50), AmountEffect: v1.DecreasesPayable, Currency: "IDR",
		})))

	audit, err := svc.PayablesAudit(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, audit, 2)
	require.Equal(t, "ln-standalone", audit[0].LineID)
	require.EqualValues(t, v1.StandaloneVersion, audit[0].TimelineVersion)
	require.Equal(t, "ln-comm", audit[1].LineID)
	require.EqualValues(t, 1, audit[1].TimelineVersion)
}

func TestService_ProjectPricing_LatestPerSemanticComponent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID:    "ord-1",
		SnapshotID: "snap-1",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "fare-i1", ComponentType: "BASE_FARE",
				Amount: decimal.NewFromInt(100000), Currency: "IDR"},
			{SemanticID: "tax", InstanceID: "tax-i1", ComponentType: "TAX",
				Amount: decimal.NewFromInt(11000), Currency: "IDR"},
		},
	}))
	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID:    "ord-1",
		SnapshotID: "snap-2",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "fare-i2", ComponentType: "BASE_FARE",
				Amount: decimal.NewFromInt(90000), Currency: "IDR"},
		},
	}))

	latest, err := svc.ProjectPricing(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "fare", latest[0].SemanticID)
	require.Equal(t, "fare-i2", latest[0].InstanceID)
	require.EqualValues(t, 2, latest[0].Version)
	require.Equal(t, "tax", latest[1].SemanticID)
	require.EqualValues(t, 1, latest[1].Version)
}

func TestService_PricingHistory_NewestFirst(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID: "ord-1", SnapshotID: "snap-1",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "i1", Amount: decimal.NewFromInt(100), Currency: "IDR"},
			{SemanticID: "tax", InstanceID: "i2", Amount: decimal.NewFromInt(10), Currency: "IDR"},
		},
	}))
	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID: "ord-1", SnapshotID: "snap-2",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "i3", Amount: decimal.NewFromInt(90), Currency: "IDR"},
		},
	}))

	history, err := svc.PricingHistory(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.EqualValues(t, 2, history[0].Version)
	require.Equal(t, 1, history[0].ComponentCount)
	require.True(t, history[0].TotalAmount.Equal(decimal.NewFromInt(90)))
	require.EqualValues(t, 1, history[1].Version)
	require.Equal(t, 2, history[1].ComponentCount)
	require.True(t, history[1].TotalAmount.Equal(decimal.NewFromInt(110)))
}

func TestService_ProjectPaymentState(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	state, err := svc.ProjectPaymentState(ctx, "ord-1")
	require.NoError(t, err)
	require.Nil(t, state)

	require.NoError(t, store.AppendPaymentEntry(ctx, &v1.PaymentTimelineEntry{
		EventID: "pay-1", OrderID: "ord-1", Status: "AUTHORIZED",
		AuthorizedAmount: decimal.NewFromInt(260210), Currency: "IDR",
		EmittedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.AppendPaymentEntry(ctx, &v1.PaymentTimelineEntry{
		EventID: "pay-2", OrderID: "ord-1", Status: "CAPTURED",
		CapturedAmount:      decimal.NewFromInt(260210),
		CapturedAmountTotal: decimal.NewFromInt(260210), Currency: "IDR",
		EmittedAt: time.Date(2026, 3, 2, 8, 1, 0, 0, time.UTC),
	}))

	state, err = svc.ProjectPaymentState(ctx, "ord-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, "CAPTURED", state.Status)
	require.EqualValues(t, 2, state.TimelineVersion)
}

func TestService_ProjectRefunds_GroupedPerRefund(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	emit := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendRefundEntry(ctx, &v1.RefundTimelineEntry{
		EventID: "ref-1a", OrderID: "ord-1", RefundID: "ref-1", Status: "INITIATED",
		RefundAmount: decimal.NewFromInt(30000), Currency: "IDR", EmittedAt: emit,
	}))
	require.NoError(t, store.AppendRefundEntry(ctx, &v1.RefundTimelineEntry{
		EventID: "ref-1b", OrderID: "ord-1", RefundID: "ref-1", Status: "ISSUED",
		RefundAmount: decimal.NewFromInt(30000), Currency: "IDR", EmittedAt: emit.Add(time.Minute),
	}))
	require.NoError(t, store.AppendRefundEntry(ctx, &v1.RefundTimelineEntry{
		EventID: "ref-2a", OrderID: "ord-1", RefundID: "ref-2", Status: "INITIATED",
		RefundAmount: decimal.NewFromInt(5000), Currency: "IDR", EmittedAt: emit.Add(2 * time.Minute),
	}))

	states, err := svc.ProjectRefunds(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, states, 2)

	require.Equal(t, "ref-1", states[0].RefundID)
	require.Equal(t, "ISSUED", states[0].Latest.Status)
	require.EqualValues(t, 2, states[0].Latest.Version)
	require.Len(t, states[0].History, 2)

	require.Equal(t, "ref-2", states[1].RefundID)
	require.Equal(t, "INITIATED", states[1].Latest.Status)
	require.EqualValues(t, 1, states[1].Latest.Version)
}

func TestService_ComponentLineage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID: "ord-1", SnapshotID: "snap-1",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "i1", Amount: decimal.NewFromInt(100000), Currency: "IDR"},
		},
	}))
	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID: "ord-1", SnapshotID: "snap-2",
		Components: []v1.PricingComponent{
			{SemanticID: "fare-refund", InstanceID: "i2", IsRefund: true,
				RefundOfSemanticID: "fare", Amount: decimal.NewFromInt(-30000), Currency: "IDR"},
		},
	}))

	lineage, err := svc.ComponentLineage(ctx, "fare")
	require.NoError(t, err)
	require.Len(t, lineage.Originals, 1)
	require.Len(t, lineage.Refunds, 1)
	require.True(t, lineage.NetAmount.Equal(decimal.NewFromInt(70000)), "net %s", lineage.NetAmount)
}

func TestService_OrderView_AssemblesAllProjections(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.AppendPricingSnapshot(ctx, &v1.PricingSnapshotFact{
		OrderID: "ord-1", SnapshotID: "snap-1",
		Components: []v1.PricingComponent{
			{SemanticID: "fare", InstanceID: "i1", Amount: decimal.NewFromInt(100000), Currency: "IDR"},
		},
	}))
	require.NoError(t, store.AppendPaymentEntry(ctx, &v1.PaymentTimelineEntry{
		EventID: "pay-1", OrderID: "ord-1", Status: "CAPTURED", Currency: "IDR",
	}))
	require.NoError(t, store.AppendSupplierLifecycle(ctx,
		supplierFact("evt-1", "ord-1", "det-1", "", v1.StatusConfirmed, 80000)))
	require.NoError(t, store.AppendRefundEntry(ctx, &v1.RefundTimelineEntry{
		EventID: "ref-1a", OrderID: "ord-1", RefundID: "ref-1", Status: "INITIATED",
		RefundAmount: decimal.NewFromInt(10000), Currency: "IDR",
	}))

	view, err := svc.OrderView(ctx, "ord-1")
	require.NoError(t, err)
	require.Equal(t, "ord-1", view.OrderID)
	require.Len(t, view.Pricing, 1)
	require.NotNil(t, view.PaymentState)
	require.Len(t, view.Payables, 1)
	require.Len(t, view.Refunds, 1)
}
