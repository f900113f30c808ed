package projection

import (
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

// Obligation is one party/amount/effect entry contributing to a payable total.
type Obligation struct {
	LineID          string          `json:"line_id"`
	ObligationType  string          `json:"obligation_type"`
	PartyType       v1.PartyType    `json:"party_type"`
	PartyID         string          `json:"party_id"`
	PartyName       string          `json:"party_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	AmountEffect    v1.AmountEffect `json:"amount_effect"`
	Currency        string          `json:"currency"`
	TimelineVersion int64           `json:"supplier_timeline_version"`
}

// PartyPayable is the per-party aggregation of an instance's obligations.
// Only the supplier party carries a baseline; every other party's total is
// its net adjustment.
type PartyPayable struct {
	PartyID       string          `json:"party_id"`
	PartyType     v1.PartyType    `json:"party_type"`
	PartyName     string          `json:"party_name,omitempty"`
	Baseline      decimal.Decimal `json:"baseline"`
	NetAdjustment decimal.Decimal `json:"net_adjustment"`
	TotalPayable  decimal.Decimal `json:"total_payable"`
	Obligations   []Obligation    `json:"obligations"`
}

// PayableInstance is the projected payable breakdown for one fulfillment
// instance: a booking-level scope or one redemption of a multi-instance
// product.
type PayableInstance struct {
	OrderDetailID         string            `json:"order_detail_id"`
	SupplierReferenceID   string            `json:"supplier_reference_id,omitempty"`
	FulfillmentInstanceID string            `json:"fulfillment_instance_id,omitempty"`
	SupplierID            string            `json:"supplier_id"`
	Status                v1.SupplierStatus `json:"status"`
	TimelineVersion       int64             `json:"supplier_timeline_version"`
	Baseline              decimal.Decimal   `json:"baseline"`
	BaselineBasis         string            `json:"baseline_basis,omitempty"`
	BaselineReason        string            `json:"baseline_reason"`
	Currency              string            `json:"currency,omitempty"`
	Parties               []PartyPayable    `json:"parties"`
	TotalPayable          decimal.Decimal   `json:"total_payable"`
}

// AuditLine is one payable line in chronological (version) order, for the
// audit-trail view of how obligations entered history.
type AuditLine struct {
	TimelineVersion int64           `json:"supplier_timeline_version"`
	LineID          string          `json:"line_id"`
	EventID         string          `json:"event_id,omitempty"`
	OrderDetailID   string          `json:"order_detail_id"`
	ObligationType  string          `json:"obligation_type"`
	PartyType       v1.PartyType    `json:"party_type"`
	PartyID         string          `json:"party_id"`
	PartyName       string          `json:"party_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	AmountEffect    v1.AmountEffect `json:"amount_effect"`
	Currency        string          `json:"currency"`
	IngestedAt      time.Time       `json:"ingested_at"`
}

// PricingVersionSummary is one row of the pricing history projection: the
// component count and total per emitted snapshot version.
type PricingVersionSummary struct {
	Version        int64           `json:"version"`
	SnapshotID     string          `json:"pricing_snapshot_id"`
	ComponentCount int             `json:"component_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	EmittedAt      time.Time       `json:"emitted_at"`
}

// RefundState is the projected state of one refund: its latest entry plus the
// full version history.
type RefundState struct {
	RefundID string                    `json:"refund_id"`
	Latest   *v1.RefundTimelineEntry   `json:"latest"`
	History  []*v1.RefundTimelineEntry `json:"history"`
}

// RefundGroup is the latest version of each distinct refund component inside
// a lineage. Refunds are versioned facts themselves; grouping by refund
// identity before summing avoids double-counting superseded refund versions.
type RefundGroup struct {
	SemanticID string                 `json:"component_semantic_id"`
	Latest     *v1.PricingComponent   `json:"latest"`
	History    []*v1.PricingComponent `json:"history"`
}

// ComponentLineage traces a pricing component across versions together with
// the refund components that reverse it.
type ComponentLineage struct {
	SemanticID string                 `json:"component_semantic_id"`
	Originals  []*v1.PricingComponent `json:"originals"`
	Refunds    []RefundGroup          `json:"refunds"`
	// NetAmount is the latest original amount plus the latest version of each
	// distinct refund.
	NetAmount decimal.Decimal `json:"net_amount"`
}

// OrderView is the unified read model for one order: every projection the
// core derives, in a single document.
type OrderView struct {
	OrderID      string                    `json:"order_id"`
	Pricing      []*v1.PricingComponent    `json:"pricing"`
	PaymentState *v1.PaymentTimelineEntry  `json:"payment_state,omitempty"`
	Payables     []PayableInstance         `json:"payables"`
	Refunds      []RefundState             `json:"refunds"`
}
