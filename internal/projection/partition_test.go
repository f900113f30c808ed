package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

func TestPartitionInstances_SplitsByFulfillmentInstance(t *testing.T) {
	entryA := supplierEntry(1, v1.StatusConfirmed, 100000)
	entryA.FulfillmentInstanceID = "redeem-A"
	entryB := supplierEntry(1, v1.StatusCancelledNoFee, 100000)
	entryB.FulfillmentInstanceID = "redeem-B"

	lineA := timelineLine("ln-a", 1, v1.PartyAffiliate, "aff-1", "COMMISSION", 5000, v1.DecreasesPayable)
	lineA.FulfillmentInstanceID = "redeem-A"
	lineB := timelineLine("ln-b", 1, v1.PartyAffiliate, "aff-1", "COMMISSION", 6000, v1.DecreasesPayable)
	lineB.FulfillmentInstanceID = "redeem-B"

	partitions := partitionInstances(
		[]*v1.SupplierTimelineEntry{entryA, entryB},
		[]*v1.PayableLine{lineB, lineA},
	)
	require.Len(t, partitions, 2)

	require.Equal(t, "redeem-A", partitions[0].key.Scope.InstanceID())
	require.Len(t, partitions[0].entries, 1)
	require.Len(t, partitions[0].lines, 1)
	require.Equal(t, "ln-a", partitions[0].lines[0].LineID)

	require.Equal(t, "redeem-B", partitions[1].key.Scope.InstanceID())
	require.Equal(t, "ln-b", partitions[1].lines[0].LineID)
}

func TestPartitionInstances_BookingLevelSeparateFromInstances(t *testing.T) {
	booking := supplierEntry(1, v1.StatusConfirmed, 100000)
	redemption := supplierEntry(1, v1.StatusConfirmed, 40000)
	redemption.FulfillmentInstanceID = "redeem-1"

	partitions := partitionInstances(
		[]*v1.SupplierTimelineEntry{booking, redemption},
		nil,
	)
	require.Len(t, partitions, 2)

	var bookingCount, instanceCount int
	for _, p := range partitions {
		if p.key.Scope.IsBookingLevel() {
			bookingCount++
		} else {
			instanceCount++
		}
	}
	require.Equal(t, 1, bookingCount)
	require.Equal(t, 1, instanceCount)
}

func TestPartitionInstances_DropsLinesWithoutTimelineEntry(t *testing.T) {
	entry := supplierEntry(1, v1.StatusConfirmed, 100000)

	orphan := timelineLine("ln-orphan", 1, v1.PartyAffiliate, "aff-1", "COMMISSION", 5000, v1.DecreasesPayable)
	orphan.OrderDetailID = "det-other"

	partitions := partitionInstances(
		[]*v1.SupplierTimelineEntry{entry},
		[]*v1.PayableLine{orphan},
	)
	require.Len(t, partitions, 1)
	require.Empty(t, partitions[0].lines)
}

func TestPartitionInstances_SplitsBySupplierReference(t *testing.T) {
	first := supplierEntry(1, v1.StatusConfirmed, 100000)
	first.SupplierReferenceID = "ref-1"
	second := supplierEntry(1, v1.StatusConfirmed, 200000)
	second.SupplierReferenceID = "ref-2"

	partitions := partitionInstances(
		[]*v1.SupplierTimelineEntry{second, first},
		nil,
	)
	require.Len(t, partitions, 2)
	require.Equal(t, "ref-1", partitions[0].key.SupplierReferenceID)
	require.Equal(t, "ref-2", partitions[1].key.SupplierReferenceID)
}
