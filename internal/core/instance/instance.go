// Package instance defines the fulfillment-instance partition key used by the
// supplier-side projections. One key identifies the unit the projection engine
// treats as a single payable instance: a booking-level scope or one redemption
// of a multi-instance product.
package instance

import v1 "github.com/uprl-lab/uprl/internal/api/v1"

// bookingLevelKey is the fixed sentinel a missing fulfillment_instance_id maps
// to, so booking-level facts group separately from real instance ids.
const bookingLevelKey = "__BOOKING_LEVEL__"

// Scope is the fulfillment dimension of a partition key: booking level or one
// named fulfillment instance. The zero value is booking level.
type Scope struct {
	id string
}

// BookingLevel returns the booking-level scope.
func BookingLevel() Scope {
	return Scope{}
}

// Fulfillment returns the scope for one fulfillment instance. An empty id is
// the booking level.
func Fulfillment(id string) Scope {
	return Scope{id: id}
}

// IsBookingLevel reports whether the scope is the booking level.
func (s Scope) IsBookingLevel() bool {
	return s.id == ""
}

// InstanceID returns the fulfillment instance id, or "" at booking level.
func (s Scope) InstanceID() string {
	return s.id
}

func (s Scope) groupKey() string {
	if s.id == "" {
		return bookingLevelKey
	}
	return s.id
}

// Key is the partition key for supplier-side entities. All facts sharing a Key
// belong to one fulfillment instance and are projected together.
type Key struct {
	OrderDetailID       string
	SupplierReferenceID string
	Scope               Scope
}

// ForTimelineEntry returns the partition key of a supplier timeline entry.
func ForTimelineEntry(e *v1.SupplierTimelineEntry) Key {
	return Key{
		OrderDetailID:       e.OrderDetailID,
		SupplierReferenceID: e.SupplierReferenceID,
		Scope:               Fulfillment(e.FulfillmentInstanceID),
	}
}

// ForLine returns the partition key of a payable line.
func ForLine(l *v1.PayableLine) Key {
	return Key{
		OrderDetailID:       l.OrderDetailID,
		SupplierReferenceID: l.SupplierReferenceID,
		Scope:               Fulfillment(l.FulfillmentInstanceID),
	}
}

// Less orders keys deterministically: by order detail, then supplier
// reference, then fulfillment scope.
func (k Key) Less(other Key) bool {
	if k.OrderDetailID != other.OrderDetailID {
		return k.OrderDetailID < other.OrderDetailID
	}
	if k.SupplierReferenceID != other.SupplierReferenceID {
		return k.SupplierReferenceID < other.SupplierReferenceID
	}
	return k.Scope.groupKey() < other.Scope.groupKey()
}
