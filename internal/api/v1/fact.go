package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FactKind discriminates the typed fact carried by an envelope.
type FactKind string

const (
	KindPricingSnapshot   FactKind = "pricing.snapshot"
	KindPaymentTimeline   FactKind = "payment.timeline"
	KindSupplierLifecycle FactKind = "supplier.lifecycle"
	KindRefundTimeline    FactKind = "refund.timeline"
	KindPayableAdjustment FactKind = "payable.adjustment"
)

// StandaloneVersion is the reserved supplier_timeline_version sentinel for
// payable lines that are not tied to any timeline snapshot. Such lines are
// included in every payable projection regardless of supplier status.
const StandaloneVersion int64 = -1

// SupplierStatus is the lifecycle status carried on a supplier timeline entry.
type SupplierStatus string

const (
	StatusConfirmed        SupplierStatus = "Confirmed"
	StatusIssued           SupplierStatus = "ISSUED"
	StatusInvoiced         SupplierStatus = "Invoiced"
	StatusSettled          SupplierStatus = "Settled"
	StatusCancelledWithFee SupplierStatus = "CancelledWithFee"
	StatusCancelledNoFee   SupplierStatus = "CancelledNoFee"
	StatusVoided           SupplierStatus = "Voided"
)

// PartyType classifies the receiving side of an obligation line.
type PartyType string

const (
	PartySupplier     PartyType = "SUPPLIER"
	PartyAffiliate    PartyType = "AFFILIATE"
	PartyTaxAuthority PartyType = "TAX_AUTHORITY"
	PartyInternal     PartyType = "INTERNAL"
	PartyUnknown      PartyType = "UNKNOWN"
)

// AmountEffect is the direction a line moves the payable total.
type AmountEffect string

const (
	IncreasesPayable AmountEffect = "INCREASES_PAYABLE"
	DecreasesPayable AmountEffect = "DECREASES_PAYABLE"
)

// ObligationCancellationFee is the obligation type that carries a cancellation
// fee as a payable line. When a CancelledWithFee entry has no such line, the
// projection falls back to the deprecated cancellation_fee_amount field.
const ObligationCancellationFee = "CANCELLATION_FEE"

// FactEnvelope is what the ingestion API accepts: exactly one normalized fact
// per request, discriminated by Kind. The validator/normalizer upstream of
// this core has already mapped raw producer payloads into one of these typed
// records; the envelope only carries emitter provenance on top.
type FactEnvelope struct {
	Kind           FactKind          `json:"kind"`
	SchemaVersion  int               `json:"schema_version"`
	EmitterService string            `json:"emitter_service"`
	EmittedAt      time.Time         `json:"emitted_at"`
	Metadata       map[string]string `json:"metadata,omitempty"`

	Pricing    *PricingSnapshotFact   `json:"pricing,omitempty"`
	Payment    *PaymentTimelineEntry  `json:"payment,omitempty"`
	Supplier   *SupplierLifecycleFact `json:"supplier,omitempty"`
	Refund     *RefundTimelineEntry   `json:"refund,omitempty"`
	Adjustment *PayableLine           `json:"adjustment,omitempty"`
}

// PricingSnapshotFact is one pricing emission: a set of components sharing a
// snapshot id. All components receive the same assigned version at append time.
type PricingSnapshotFact struct {
	OrderID    string             `json:"order_id"`
	SnapshotID string             `json:"pricing_snapshot_id"`
	Components []PricingComponent `json:"components"`
}

// PricingComponent is one immutable pricing fact row.
//
// SemanticID is the stable logical identity ("what this charge is");
// InstanceID is unique per occurrence and is the natural key. A refund
// component carries its own semantic id and points back to the component it
// reverses via RefundOfSemanticID.
type PricingComponent struct {
	SemanticID         string            `json:"component_semantic_id"`
	InstanceID         string            `json:"component_instance_id"`
	OrderID            string            `json:"order_id"`
	SnapshotID         string            `json:"pricing_snapshot_id"`
	Version            int64             `json:"version"`
	ComponentType      string            `json:"component_type"`
	Amount             decimal.Decimal   `json:"amount"`
	Currency           string            `json:"currency"`
	Dimensions         map[string]string `json:"dimensions,omitempty"`
	Description        string            `json:"description,omitempty"`
	IsRefund           bool              `json:"is_refund"`
	RefundOfSemanticID string            `json:"refund_of_component_semantic_id,omitempty"`

	EmitterService string            `json:"emitter_service,omitempty"`
	EmittedAt      time.Time         `json:"emitted_at"`
	IngestedAt     time.Time         `json:"ingested_at"`
	IngestSeq      int64             `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PaymentTimelineEntry is one immutable payment lifecycle fact row.
type PaymentTimelineEntry struct {
	EventID         string          `json:"event_id"`
	OrderID         string          `json:"order_id"`
	TimelineVersion int64           `json:"timeline_version"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	AuthorizedAmount decimal.Decimal `json:"authorized_amount"`
	CapturedAmount   decimal.Decimal `json:"captured_amount"`
	// CapturedAmountTotal is the running total across all capture events,
	// as reported by the emitter; it is stored, not recomputed.
	CapturedAmountTotal decimal.Decimal   `json:"captured_amount_total"`
	Currency            string            `json:"currency"`
	Instrument          map[string]string `json:"instrument,omitempty"`
	PGReferenceID       string            `json:"pg_reference_id,omitempty"`

	EmitterService string            `json:"emitter_service,omitempty"`
	EmittedAt      time.Time         `json:"emitted_at"`
	IngestedAt     time.Time         `json:"ingested_at"`
	IngestSeq      int64             `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SupplierLifecycleFact is one supplier lifecycle emission: a timeline entry
// plus the payable lines it introduces. The two parts are committed atomically
// and share the assigned supplier timeline version.
type SupplierLifecycleFact struct {
	Entry SupplierTimelineEntry `json:"entry"`
	Lines []PayableLine         `json:"lines,omitempty"`
}

// SupplierTimelineEntry is one immutable supplier lifecycle fact row.
// FulfillmentInstanceID is empty for booking-level entries and set for
// per-redemption entries of multi-instance products.
type SupplierTimelineEntry struct {
	EventID               string          `json:"event_id"`
	OrderID               string          `json:"order_id"`
	OrderDetailID         string          `json:"order_detail_id"`
	Version               int64           `json:"supplier_timeline_version"`
	SupplierID            string          `json:"supplier_id"`
	SupplierReferenceID   string          `json:"supplier_reference_id,omitempty"`
	FulfillmentInstanceID string          `json:"fulfillment_instance_id,omitempty"`
	Status                SupplierStatus  `json:"status"`
	Amount                decimal.Decimal `json:"amount"`
	// AmountBasis is "gross", "net", or "redemption-triggered"; display only.
	AmountBasis string `json:"amount_basis,omitempty"`
	Currency    string `json:"currency"`
	// CancellationFeeAmount is deprecated: fees are expected as
	// CANCELLATION_FEE payable lines. Kept for legacy emitters.
	CancellationFeeAmount decimal.Decimal `json:"cancellation_fee_amount,omitempty"`

	EmitterService string            `json:"emitter_service,omitempty"`
	EmittedAt      time.Time         `json:"emitted_at"`
	IngestedAt     time.Time         `json:"ingested_at"`
	IngestSeq      int64             `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PayableLine is one multi-party obligation fact row.
//
// TimelineVersion >= 1 ties the line to a supplier timeline snapshot;
// StandaloneVersion (-1) marks a status-independent adjustment.
type PayableLine struct {
	LineID                string          `json:"line_id"`
	EventID               string          `json:"event_id"`
	OrderID               string          `json:"order_id"`
	OrderDetailID         string          `json:"order_detail_id"`
	SupplierReferenceID   string          `json:"supplier_reference_id,omitempty"`
	FulfillmentInstanceID string          `json:"fulfillment_instance_id,omitempty"`
	TimelineVersion       int64           `json:"supplier_timeline_version"`
	ObligationType        string          `json:"obligation_type"`
	PartyType             PartyType       `json:"party_type"`
	PartyID               string          `json:"party_id"`
	PartyName             string          `json:"party_name,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	AmountEffect          AmountEffect    `json:"amount_effect"`
	Currency              string          `json:"currency"`
	CalculationBasis      string          `json:"calculation_basis,omitempty"`
	CalculationRate       float64         `json:"calculation_rate,omitempty"`

	IngestedAt time.Time         `json:"ingested_at"`
	IngestSeq  int64             `json:"-"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Standalone reports whether this line is a status-independent adjustment.
func (l *PayableLine) Standalone() bool {
	return l.TimelineVersion == StandaloneVersion
}

// RefundTimelineEntry is one immutable refund lifecycle fact row.
// Status is one of INITIATED, PROCESSING, ISSUED, CLOSED, FAILED.
type RefundTimelineEntry struct {
	EventID      string          `json:"event_id"`
	OrderID      string          `json:"order_id"`
	RefundID     string          `json:"refund_id"`
	Version      int64           `json:"refund_timeline_version"`
	Status       string          `json:"status"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Currency     string          `json:"currency"`
	RefundReason string          `json:"refund_reason,omitempty"`

	EmitterService string            `json:"emitter_service,omitempty"`
	EmittedAt      time.Time         `json:"emitted_at"`
	IngestedAt     time.Time         `json:"ingested_at"`
	IngestSeq      int64             `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DeadLetterRecord preserves a rejected raw event verbatim for audit/replay.
type DeadLetterRecord struct {
	RecordID     string    `json:"record_id"`
	EventID      string    `json:"event_id,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	OrderID      string    `json:"order_id,omitempty"`
	RawEvent     string    `json:"raw_event"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	FailedAt     time.Time `json:"failed_at"`
	RetryCount   int       `json:"retry_count"`
}

// Validate ensures the envelope carries exactly the payload its kind declares,
// with all required identity fields set. Amount semantics beyond identity
// (e.g. schema validation of producer payloads) belong to the upstream
// validator, not this core.
func (e *FactEnvelope) Validate() error {
	if e.EmitterService == "" {
		return fmt.Errorf("emitter_service is required")
	}
	if e.EmittedAt.IsZero() {
		return fmt.Errorf("emitted_at is required")
	}

	switch e.Kind {
	case KindPricingSnapshot:
		if e.Pricing == nil {
			return fmt.Errorf("pricing payload is required for kind %q", e.Kind)
		}
		return e.Pricing.validate()
	case KindPaymentTimeline:
		if e.Payment == nil {
			return fmt.Errorf("payment payload is required for kind %q", e.Kind)
		}
		return e.Payment.validate()
	case KindSupplierLifecycle:
		if e.Supplier == nil {
			return fmt.Errorf("supplier payload is required for kind %q", e.Kind)
		}
		return e.Supplier.validate()
	case KindRefundTimeline:
		if e.Refund == nil {
			return fmt.Errorf("refund payload is required for kind %q", e.Kind)
		}
		return e.Refund.validate()
	case KindPayableAdjustment:
		if e.Adjustment == nil {
			return fmt.Errorf("adjustment payload is required for kind %q", e.Kind)
		}
		return e.Adjustment.validateStandalone()
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown fact kind: %q", e.Kind)
	}
}

func (f *PricingSnapshotFact) validate() error {
	if f.OrderID == "" {
		return fmt.Errorf("pricing: order_id is required")
	}
	if f.SnapshotID == "" {
		return fmt.Errorf("pricing: pricing_snapshot_id is required")
	}
	if len(f.Components) == 0 {
		return fmt.Errorf("pricing: at least one component is required")
	}
	for i := range f.Components {
		c := &f.Components[i]
		if c.InstanceID == "" {
			return fmt.Errorf("pricing: component[%d] component_instance_id is required", i)
		}
		if c.SemanticID == "" {
			return fmt.Errorf("pricing: component[%d] component_semantic_id is required", i)
		}
		if c.IsRefund && c.RefundOfSemanticID == "" {
			return fmt.Errorf("pricing: component[%d] refund_of_component_semantic_id is required on refunds", i)
		}
		if c.IsRefund && c.RefundOfSemanticID == c.SemanticID {
			return fmt.Errorf("pricing: component[%d] refund must carry its own semantic id", i)
		}
		if c.Currency == "" {
			return fmt.Errorf("pricing: component[%d] currency is required", i)
		}
	}
	return nil
}

func (p *PaymentTimelineEntry) validate() error {
	if p.EventID == "" {
		return fmt.Errorf("payment: event_id is required")
	}
	if p.OrderID == "" {
		return fmt.Errorf("payment: order_id is required")
	}
	if p.Status == "" {
		return fmt.Errorf("payment: status is required")
	}
	return nil
}

func (r *RefundTimelineEntry) validate() error {
	if r.EventID == "" {
		return fmt.Errorf("refund: event_id is required")
	}
	if r.OrderID == "" {
		return fmt.Errorf("refund: order_id is required")
	}
	if r.RefundID == "" {
		return fmt.Errorf("refund: refund_id is required")
	}
	if r.Status == "" {
		return fmt.Errorf("refund: status is required")
	}
	return nil
}

func (f *SupplierLifecycleFact) validate() error {
	e := &f.Entry
	if e.EventID == "" {
		return fmt.Errorf("supplier: event_id is required")
	}
	if e.OrderID == "" {
		return fmt.Errorf("supplier: order_id is required")
	}
	if e.OrderDetailID == "" {
		return fmt.Errorf("supplier: order_detail_id is required")
	}
	if e.SupplierID == "" {
		return fmt.Errorf("supplier: supplier_id is required")
	}
	if e.Status == "" {
		return fmt.Errorf("supplier: status is required")
	}
	for i := range f.Lines {
		l := &f.Lines[i]
		if l.LineID == "" {
			return fmt.Errorf("supplier: line[%d] line_id is required", i)
		}
		if l.PartyID == "" {
			return fmt.Errorf("supplier: line[%d] party_id is required", i)
		}
		if l.ObligationType == "" {
			return fmt.Errorf("supplier: line[%d] obligation_type is required", i)
		}
	}
	return nil
}

func (l *PayableLine) validateStandalone() error {
	if l.LineID == "" {
		return fmt.Errorf("adjustment: line_id is required")
	}
	if l.OrderID == "" {
		return fmt.Errorf("adjustment: order_id is required")
	}
	if l.OrderDetailID == "" {
		return fmt.Errorf("adjustment: order_detail_id is required")
	}
	if l.PartyID == "" {
		return fmt.Errorf("adjustment: party_id is required")
	}
	if l.ObligationType == "" {
		return fmt.Errorf("adjustment: obligation_type is required")
	}
	return nil
}

// OrderID returns the order the envelope's payload belongs to, or "" when the
// payload is missing. Used for dead-letter classification.
func (e *FactEnvelope) OrderID() string {
	switch {
	case e.Pricing != nil:
		return e.Pricing.OrderID
	case e.Payment != nil:
		return e.Payment.OrderID
	case e.Supplier != nil:
		return e.Supplier.Entry.OrderID
	case e.Refund != nil:
		return e.Refund.OrderID
	case e.Adjustment != nil:
		return e.Adjustment.OrderID
	}
	return ""
}

// EventID returns the payload's natural event identity, or "" when absent.
func (e *FactEnvelope) EventID() string {
	switch {
	case e.Pricing != nil:
		return e.Pricing.SnapshotID
	case e.Payment != nil:
		return e.Payment.EventID
	case e.Supplier != nil:
		return e.Supplier.Entry.EventID
	case e.Refund != nil:
		return e.Refund.EventID
	case e.Adjustment != nil:
		return e.Adjustment.LineID
	}
	return ""
}
