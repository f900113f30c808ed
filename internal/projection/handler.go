package projection

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httperr "github.com/uprl-lab/uprl/internal/core/errors"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/orders/:order_id", s.HandleOrderView)
	r.GET("/v1/orders/:order_id/payables", s.HandlePayables)
	r.GET("/v1/orders/:order_id/payables/audit", s.HandlePayablesAudit)
	r.GET("/v1/orders/:order_id/pricing", s.HandlePricing)
	r.GET("/v1/orders/:order_id/pricing/history", s.HandlePricingHistory)
	r.GET("/v1/orders/:order_id/payment", s.HandlePaymentState)
	r.GET("/v1/orders/:order_id/refunds", s.HandleRefunds)
	r.GET("/v1/components/:semantic_id/lineage", s.HandleComponentLineage)
	r.GET("/v1/deadletters", s.HandleDeadLetters)
}

// HandleOrderView handles GET /v1/orders/:order_id
func (s *Service) HandleOrderView(c *gin.Context) {
	view, err := s.OrderView(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		writeInternal(c, "Failed to project order view", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandlePayables handles GET /v1/orders/:order_id/payables
func (s *Service) HandlePayables(c *gin.Context) {
	orderID := c.Param("order_id")
	instances, err := s.ProjectPayables(c.Request.Context(), orderID)
	if err != nil {
		writeInternal(c, "Failed to project payables", err)
		return
	}
	if instances == nil {
		instances = []PayableInstance{}
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":  orderID,
		"instances": instances,
	})
}

// HandlePayablesAudit handles GET /v1/orders/:order_id/payables/audit
func (s *Service) HandlePayablesAudit(c *gin.Context) {
	orderID := c.Param("order_id")
	lines, err := s.PayablesAudit(c.Request.Context(), orderID)
	if err != nil {
		writeInternal(c, "Failed to project payables audit trail", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"lines":    lines,
	})
}

// HandlePricing handles GET /v1/orders/:order_id/pricing
func (s *Service) HandlePricing(c *gin.Context) {
	orderID := c.Param("order_id")
	components, err := s.ProjectPricing(c.Request.Context(), orderID)
	if err != nil {
		writeInternal(c, "Failed to project pricing", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":   orderID,
		"components": components,
	})
}

// HandlePricingHistory handles GET /v1/orders/:order_id/pricing/history
func (s *Service) HandlePricingHistory(c *gin.Context) {
	orderID := c.Param("order_id")
	history, err := s.PricingHistory(c.Request.Context(), orderID)
	if err != nil {
		writeInternal(c, "Failed to project pricing history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"versions": history,
	})
}

// HandlePaymentState handles GET /v1/orders/:order_id/payment
// A missing payment timeline is a 404, not an error.
func (s *Service) HandlePaymentState(c *gin.Context) {
	state, err := s.ProjectPaymentState(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		writeInternal(c, "Failed to project payment state", err)
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "No payment timeline for order",
		})
		return
	}
	c.JSON(http.StatusOK, state)
}

// HandleRefunds handles GET /v1/orders/:order_id/refunds
func (s *Service) HandleRefunds(c *gin.Context) {
	orderID := c.Param("order_id")
	refunds, err := s.ProjectRefunds(c.Request.Context(), orderID)
	if err != nil {
		writeInternal(c, "Failed to project refunds", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"refunds":  refunds,
	})
}

// HandleComponentLineage handles GET /v1/components/:semantic_id/lineage
func (s *Service) HandleComponentLineage(c *gin.Context) {
	lineage, err := s.ComponentLineage(c.Request.Context(), c.Param("semantic_id"))
	if err != nil {
		writeInternal(c, "Failed to trace component lineage", err)
		return
	}
	c.JSON(http.StatusOK, lineage)
}

// HandleDeadLetters handles GET /v1/deadletters?limit=N
func (s *Service) HandleDeadLetters(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   "Invalid limit parameter",
			})
			return
		}
		limit = parsed
	}

	records, err := s.store.ListDeadLetters(c.Request.Context(), limit)
	if err != nil {
		writeInternal(c, "Failed to list dead letters", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func writeInternal(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   msg,
		Details:   err.Error(),
	})
}
