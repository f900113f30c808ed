package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/uprl-lab/uprl/internal/api/v1"
	httperr "github.com/uprl-lab/uprl/internal/core/errors"
	"github.com/uprl-lab/uprl/internal/core/storage"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist fact"
	msgDuplicateFact  = "Fact already exists"
)

// ingestionError carries the structured HTTP error shape from a helper back to
// the orchestrator. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
	// deadLetter marks rejections that must be preserved for audit/replay.
	deadLetter bool
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for fact ingestion.
func (s *Service) IngestHandler(c *gin.Context) {
	envelope, rawBody, err := s.parseEnvelope(c)
	if err != nil {
		s.reject(c, envelope, rawBody, err)
		return
	}

	if vErr := envelope.Validate(); vErr != nil {
		slog.Warn("Envelope validation failed", "error", vErr, "kind", envelope.Kind)
		s.reject(c, envelope, rawBody, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  envelopeErrorType(envelope),
			message:    vErr.Error(),
			deadLetter: true,
		})
		return
	}

	ingestedAt := time.Now().UTC()
	normalize(envelope, ingestedAt)

	slog.Info("Received fact",
		"kind", envelope.Kind,
		"order_id", envelope.OrderID(),
		"event_id", envelope.EventID(),
		"emitter", envelope.EmitterService,
		"payload_size", len(rawBody))

	if err := s.persistFact(c.Request.Context(), envelope); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"kind":     envelope.Kind,
		"order_id": envelope.OrderID(),
	})
}

// parseEnvelope reads the raw request body and binds it into a FactEnvelope.
// The raw bytes are returned as well so rejections can be dead-lettered
// verbatim.
func (s *Service) parseEnvelope(c *gin.Context) (*v1.FactEnvelope, []byte, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, nil, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, bodyBytes, &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var envelope v1.FactEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, bodyBytes, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    err.Error(),
			deadLetter: true,
		}
	}

	return &envelope, bodyBytes, nil
}

// persistFact appends the envelope's payload to the backing store.
func (s *Service) persistFact(ctx context.Context, e *v1.FactEnvelope) *ingestionError {
	var err error
	switch e.Kind {
	case v1.KindPricingSnapshot:
		err = s.store.AppendPricingSnapshot(ctx, e.Pricing)
	case v1.KindPaymentTimeline:
		err = s.store.AppendPaymentEntry(ctx, e.Payment)
	case v1.KindSupplierLifecycle:
		err = s.store.AppendSupplierLifecycle(ctx, e.Supplier)
	case v1.KindRefundTimeline:
		err = s.store.AppendRefundEntry(ctx, e.Refund)
	case v1.KindPayableAdjustment:
		err = s.store.AppendStandaloneLine(ctx, e.Adjustment)
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, storage.ErrDuplicate) {
		slog.Info("Duplicate fact rejected", "kind", e.Kind, "event_id", e.EventID())
		return &ingestionError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpDuplicateFactError,
			message:    msgDuplicateFact,
		}
	}

	slog.Error("Failed to persist fact", "error", err, "kind", e.Kind, "event_id", e.EventID())
	return &ingestionError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgPersistFailed,
	}
}

// reject writes the HTTP error and, where the rejection class calls for it,
// records the raw payload as a dead letter so an external reprocessing tool
// can replay it later.
func (s *Service) reject(c *gin.Context, envelope *v1.FactEnvelope, rawBody []byte, err *ingestionError) {
	if err.deadLetter && len(rawBody) > 0 {
		rec := &v1.DeadLetterRecord{
			RecordID:     uuid.NewString(),
			RawEvent:     string(rawBody),
			ErrorType:    err.errorType,
			ErrorMessage: err.message,
			FailedAt:     time.Now().UTC(),
		}
		if envelope != nil {
			rec.Kind = string(envelope.Kind)
			rec.OrderID = envelope.OrderID()
			rec.EventID = envelope.EventID()
		}
		if dlqErr := s.store.RecordRejected(c.Request.Context(), rec); dlqErr != nil {
			slog.Error("Failed to record dead letter", "error", dlqErr, "record_id", rec.RecordID)
		}
	}

	writeError(c, err)
}

func envelopeErrorType(e *v1.FactEnvelope) string {
	switch e.Kind {
	case v1.KindPricingSnapshot, v1.KindPaymentTimeline, v1.KindSupplierLifecycle,
		v1.KindRefundTimeline, v1.KindPayableAdjustment:
		return httperr.HttpEnvelopeError
	}
	return httperr.HttpUnknownKindError
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
