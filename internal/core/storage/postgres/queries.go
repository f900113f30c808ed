package postgres

// SQL for the append-only fact relations. Inserts use the natural key with
// ON CONFLICT DO NOTHING; a conflict returns no row, which the adapter maps
// to storage.ErrDuplicate. The version assigner queries are pure reads scoped
// to one partition. Correctness under concurrent writers to the same
// partition is a caller obligation (single writer per partition).

const (
	// Version assigner: max(existing) + 1, or 1 for an empty partition.

	queryNextPricingVersion = `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM pricing_components
		WHERE order_id = $1
	`

	queryNextPaymentVersion = `
		SELECT COALESCE(MAX(timeline_version), 0) + 1
		FROM payment_timeline
		WHERE order_id = $1
	`

	queryNextSupplierVersion = `
		SELECT COALESCE(MAX(supplier_timeline_version), 0) + 1
		FROM supplier_timeline
		WHERE order_id = $1 AND order_detail_id = $2
	`

	queryNextRefundVersion = `
		SELECT COALESCE(MAX(refund_timeline_version), 0) + 1
		FROM refund_timeline
		WHERE order_id = $1 AND refund_id = $2
	`

	queryInsertPricingComponent = `
		INSERT INTO pricing_components (
			component_instance_id, component_semantic_id, order_id,
			pricing_snapshot_id, version, component_type, amount, currency,
			dimensions, description, is_refund, refund_of_component_semantic_id,
			emitter_service, emitted_at, ingested_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (component_instance_id) DO NOTHING
		RETURNING ingest_seq
	`

	queryInsertPaymentEntry = `
		INSERT INTO payment_timeline (
			event_id, order_id, timeline_version, status, payment_method,
			payment_intent_id, authorized_amount, captured_amount,
			captured_amount_total, currency, instrument, pg_reference_id,
			emitter_service, emitted_at, ingested_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING ingest_seq
	`

	queryInsertSupplierEntry = `
		INSERT INTO supplier_timeline (
			event_id, order_id, order_detail_id, supplier_timeline_version,
			supplier_id, supplier_reference_id, fulfillment_instance_id,
			status, amount, amount_basis, currency, cancellation_fee_amount,
			emitter_service, emitted_at, ingested_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING ingest_seq
	`

	queryInsertPayableLine = `
		INSERT INTO payable_lines (
			line_id, event_id, order_id, order_detail_id,
			supplier_reference_id, fulfillment_instance_id,
			supplier_timeline_version, obligation_type, party_type, party_id,
			party_name, amount, amount_effect, currency, calculation_basis,
			calculation_rate, ingested_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (line_id) DO NOTHING
		RETURNING ingest_seq
	`

	queryInsertRefundEntry = `
		INSERT INTO refund_timeline (
			event_id, order_id, refund_id, refund_timeline_version, status,
			refund_amount, currency, refund_reason, emitter_service,
			emitted_at, ingested_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING ingest_seq
	`

	queryInsertDeadLetter = `
		INSERT INTO dead_letters (
			record_id, event_id, kind, order_id, raw_event,
			error_type, error_message, failed_at, retry_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	queryListPricingComponents = `
		SELECT
			component_instance_id, component_semantic_id, order_id,
			pricing_snapshot_id, version, component_type, amount, currency,
			dimensions, COALESCE(description, ''), is_refund,
			COALESCE(refund_of_component_semantic_id, ''),
			emitter_service, emitted_at, ingested_at, metadata, ingest_seq
		FROM pricing_components
		WHERE order_id = $1
		ORDER BY version ASC, ingest_seq ASC
	`

	queryListLineageOriginals = `
		SELECT
			component_instance_id, component_semantic_id, order_id,
			pricing_snapshot_id, version, component_type, amount, currency,
			dimensions, COALESCE(description, ''), is_refund,
			COALESCE(refund_of_component_semantic_id, ''),
			emitter_service, emitted_at, ingested_at, metadata, ingest_seq
		FROM pricing_components
		WHERE component_semantic_id = $1 AND is_refund = FALSE
		ORDER BY version ASC, ingest_seq ASC
	`

	queryListLineageRefunds = `
		SELECT
			component_instance_id, component_semantic_id, order_id,
			pricing_snapshot_id, version, component_type, amount, currency,
			dimensions, COALESCE(description, ''), is_refund,
			COALESCE(refund_of_component_semantic_id, ''),
			emitter_service, emitted_at, ingested_at, metadata, ingest_seq
		FROM pricing_components
		WHERE refund_of_component_semantic_id = $1 AND is_refund = TRUE
		ORDER BY version ASC, ingest_seq ASC
	`

	queryListPaymentTimeline = `
		SELECT
			event_id, order_id, timeline_version, status,
			COALESCE(payment_method, ''), COALESCE(payment_intent_id, ''),
			authorized_amount, captured_amount, captured_amount_total,
			currency, instrument, COALESCE(pg_reference_id, ''),
			emitter_service, emitted_at, ingested_at, metadata, ingest_seq
		FROM payment_timeline
		WHERE order_id = $1
		ORDER BY timeline_version ASC, ingest_seq ASC
	`

	queryListSupplierTimeline = `
		SELECT
			event_id, order_id, order_detail_id, supplier_timeline_version,
			supplier_id, COALESCE(supplier_reference_id, ''),
			COALESCE(fulfillment_instance_id, ''), status, amount,
			COALESCE(amount_basis, ''), COALESCE(currency, ''),
			cancellation_fee_amount, emitter_service, emitted_at, ingested_at,
			metadata, ingest_seq
		FROM supplier_timeline
		WHERE order_id = $1
		ORDER BY supplier_timeline_version ASC, ingest_seq ASC
	`

	queryListPayableLines = `
		SELECT
			line_id, COALESCE(event_id, ''), order_id, order_detail_id,
			COALESCE(supplier_reference_id, ''),
			COALESCE(fulfillment_instance_id, ''),
			supplier_timeline_version, obligation_type, party_type, party_id,
			COALESCE(party_name, ''), amount, amount_effect, currency,
			COALESCE(calculation_basis, ''), COALESCE(calculation_rate, 0),
			ingested_at, metadata, ingest_seq
		FROM payable_lines
		WHERE order_id = $1
		ORDER BY supplier_timeline_version ASC, ingest_seq ASC
	`

	queryListRefundTimeline = `
		SELECT
			event_id, order_id, refund_id, refund_timeline_version, status,
			refund_amount, currency, COALESCE(refund_reason, ''),
			emitter_service, emitted_at, ingested_at, metadata, ingest_seq
		FROM refund_timeline
		WHERE order_id = $1
		ORDER BY refund_id ASC, refund_timeline_version ASC, ingest_seq ASC
	`

	queryListDeadLetters = `
		SELECT
			record_id, COALESCE(event_id, ''), COALESCE(kind, ''),
			COALESCE(order_id, ''), raw_event, error_type, error_message,
			failed_at, retry_count
		FROM dead_letters
		ORDER BY failed_at DESC
		LIMIT $1
	`
)
