package ingestion

import (
	"time"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

// Legacy-shape normalization. Older emitters predate the multi-party line
// schema: their payable lines have no amount_effect or party_type. Each
// legacy shape gets exactly one normalization into the canonical record,
// executed here at ingestion, never at read time.

// normalize stamps provenance from the envelope onto the payload and fills
// the legacy defaults. ingestedAt is the server-side receive time.
func normalize(e *v1.FactEnvelope, ingestedAt time.Time) {
	switch e.Kind {
	case v1.KindPricingSnapshot:
		for i := range e.Pricing.Components {
			c := &e.Pricing.Components[i]
			c.EmitterService = e.EmitterService
			if c.EmittedAt.IsZero() {
				c.EmittedAt = e.EmittedAt
			}
			c.IngestedAt = ingestedAt
		}
	case v1.KindPaymentTimeline:
		p := e.Payment
		p.EmitterService = e.EmitterService
		if p.EmittedAt.IsZero() {
			p.EmittedAt = e.EmittedAt
		}
		p.IngestedAt = ingestedAt
	case v1.KindSupplierLifecycle:
		entry := &e.Supplier.Entry
		entry.EmitterService = e.EmitterService
		if entry.EmittedAt.IsZero() {
			entry.EmittedAt = e.EmittedAt
		}
		entry.IngestedAt = ingestedAt
		for i := range e.Supplier.Lines {
			normalizeLine(&e.Supplier.Lines[i], ingestedAt)
		}
	case v1.KindRefundTimeline:
		r := e.Refund
		r.EmitterService = e.EmitterService
		if r.EmittedAt.IsZero() {
			r.EmittedAt = e.EmittedAt
		}
		r.IngestedAt = ingestedAt
	case v1.KindPayableAdjustment:
		normalizeLine(e.Adjustment, ingestedAt)
	}
}

func normalizeLine(l *v1.PayableLine, ingestedAt time.Time) {
	if l.AmountEffect == "" {
		l.AmountEffect = v1.IncreasesPayable
	}
	if l.PartyType == "" {
		l.PartyType = v1.PartyUnknown
	}
	l.IngestedAt = ingestedAt
}
