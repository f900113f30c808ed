package projection

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

func component(semanticID, instanceID string, version int64, amount int64) *v1.PricingComponent {
	return &v1.PricingComponent{
		SemanticID:    semanticID,
		InstanceID:    instanceID,
		OrderID:       "ord-1",
		Version:       version,
		ComponentType: "BASE_FARE",
		Amount:        decimal.NewFromInt(amount),
		Currency:      "IDR",
		EmittedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(version) * time.Minute),
	}
}

func refundComponent(semanticID, ofSemanticID, instanceID string, version int64, amount int64) *v1.PricingComponent {
	c := component(semanticID, instanceID, version, amount)
	c.IsRefund = true
	c.RefundOfSemanticID = ofSemanticID
	return c
}

func TestBuildLineage_NetIsLatestOriginalPlusLatestRefunds(t *testing.T) {
	originals := []*v1.PricingComponent{
		component("fare", "fare-i1", 1, 100000),
		component("fare", "fare-i2", 2, 120000),
	}
	refunds := []*v1.PricingComponent{
		refundComponent("fare-refund-1", "fare", "r1-i1", 3, -30000),
		refundComponent("fare-refund-1", "fare", "r1-i2", 4, -35000),
		refundComponent("fare-refund-2", "fare", "r2-i1", 5, -10000),
	}

	lineage := buildLineage("fare", originals, refunds)
	require.Equal(t, "fare", lineage.SemanticID)
	require.Len(t, lineage.Originals, 2)
	require.Len(t, lineage.Refunds, 2)

	// 120000 - 35000 - 10000: latest original plus the latest version of each
	// distinct refund, never the superseded -30000.
	require.True(t, lineage.NetAmount.Equal(decimal.NewFromInt(75000)),
		"net %s", lineage.NetAmount)

	first := lineage.Refunds[0]
	require.Equal(t, "fare-refund-1", first.SemanticID)
	require.Equal(t, "r1-i2", first.Latest.InstanceID)
	require.Len(t, first.History, 2)
}

func TestBuildLineage_NoRefunds(t *testing.T) {
	lineage := buildLineage("fare", []*v1.PricingComponent{
		component("fare", "fare-i1", 1, 100000),
	}, nil)

	require.Empty(t, lineage.Refunds)
	require.True(t, lineage.NetAmount.Equal(decimal.NewFromInt(100000)))
}

func TestBuildLineage_UnknownComponent(t *testing.T) {
	lineage := buildLineage("ghost", nil, nil)
	require.Equal(t, "ghost", lineage.SemanticID)
	require.True(t, lineage.NetAmount.IsZero())
	require.Empty(t, lineage.Originals)
	require.Empty(t, lineage.Refunds)
}
