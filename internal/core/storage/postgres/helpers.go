package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
)

// marshalMap converts a key/value blob to JSON bytes for a JSONB column.
// A nil or empty map produces nil (SQL NULL) rather than the string "null".
func marshalMap(m map[string]string) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal map: %w", err)
	}
	return b, nil
}

func unmarshalMap(b []byte) (map[string]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal map: %w", err)
	}
	return m, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPricingComponent scans one pricing_components row.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanPricingComponent(row scanner) (*v1.PricingComponent, error) {
	var c v1.PricingComponent
	var dimensionsJSON, metadataJSON []byte

	err := row.Scan(
		&c.InstanceID,
		&c.SemanticID,
		&c.OrderID,
		&c.SnapshotID,
		&c.Version,
		&c.ComponentType,
		&c.Amount,
		&c.Currency,
		&dimensionsJSON,
		&c.Description,
		&c.IsRefund,
		&c.RefundOfSemanticID,
		&c.EmitterService,
		&c.EmittedAt,
		&c.IngestedAt,
		&metadataJSON,
		&c.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pricing component row: %w", err)
	}

	if c.Dimensions, err = unmarshalMap(dimensionsJSON); err != nil {
		return nil, err
	}
	if c.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPaymentEntry(row scanner) (*v1.PaymentTimelineEntry, error) {
	var p v1.PaymentTimelineEntry
	var instrumentJSON, metadataJSON []byte

	err := row.Scan(
		&p.EventID,
		&p.OrderID,
		&p.TimelineVersion,
		&p.Status,
		&p.PaymentMethod,
		&p.PaymentIntentID,
		&p.AuthorizedAmount,
		&p.CapturedAmount,
		&p.CapturedAmountTotal,
		&p.Currency,
		&instrumentJSON,
		&p.PGReferenceID,
		&p.EmitterService,
		&p.EmittedAt,
		&p.IngestedAt,
		&metadataJSON,
		&p.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment timeline row: %w", err)
	}

	if p.Instrument, err = unmarshalMap(instrumentJSON); err != nil {
		return nil, err
	}
	if p.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanSupplierEntry(row scanner) (*v1.SupplierTimelineEntry, error) {
	var e v1.SupplierTimelineEntry
	var metadataJSON []byte

	err := row.Scan(
		&e.EventID,
		&e.OrderID,
		&e.OrderDetailID,
		&e.Version,
		&e.SupplierID,
		&e.SupplierReferenceID,
		&e.FulfillmentInstanceID,
		&e.Status,
		&e.Amount,
		&e.AmountBasis,
		&e.Currency,
		&e.CancellationFeeAmount,
		&e.EmitterService,
		&e.EmittedAt,
		&e.IngestedAt,
		&metadataJSON,
		&e.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan supplier timeline row: %w", err)
	}

	if e.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanPayableLine(row scanner) (*v1.PayableLine, error) {
	var l v1.PayableLine
	var metadataJSON []byte

	err := row.Scan(
		&l.LineID,
		&l.EventID,
		&l.OrderID,
		&l.OrderDetailID,
		&l.SupplierReferenceID,
		&l.FulfillmentInstanceID,
		&l.TimelineVersion,
		&l.ObligationType,
		&l.PartyType,
		&l.PartyID,
		&l.PartyName,
		&l.Amount,
		&l.AmountEffect,
		&l.Currency,
		&l.CalculationBasis,
		&l.CalculationRate,
		&l.IngestedAt,
		&metadataJSON,
		&l.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan payable line row: %w", err)
	}

	if l.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanRefundEntry(row scanner) (*v1.RefundTimelineEntry, error) {
	var r v1.RefundTimelineEntry
	var metadataJSON []byte

	err := row.Scan(
		&r.EventID,
		&r.OrderID,
		&r.RefundID,
		&r.Version,
		&r.Status,
		&r.RefundAmount,
		&r.Currency,
		&r.RefundReason,
		&r.EmitterService,
		&r.EmittedAt,
		&r.IngestedAt,
		&metadataJSON,
		&r.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan refund timeline row: %w", err)
	}

	if r.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanDeadLetter(row scanner) (*v1.DeadLetterRecord, error) {
	var d v1.DeadLetterRecord

	err := row.Scan(
		&d.RecordID,
		&d.EventID,
		&d.Kind,
		&d.OrderID,
		&d.RawEvent,
		&d.ErrorType,
		&d.ErrorMessage,
		&d.FailedAt,
		&d.RetryCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan dead letter row: %w", err)
	}
	return &d, nil
}

// nullable maps an empty string to SQL NULL so that optional TEXT columns
// stay NULL instead of storing "".
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
