package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/tradelane/backend/internal/application/billing"
	"github.com/tradelane/backend/internal/domain/billing"
)

// BillingHandler handles billing account and quarter endpoints
type BillingHandler struct {
	BaseHandler
	service *appbilling.Service
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(service *appbilling.Service) *BillingHandler {
	return &BillingHandler{service: service}
}

// RegisterAccount handles POST /api/v1/billing/account
func (h *BillingHandler) RegisterAccount(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return
	}

	var req appbilling.RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.RegisterAccount(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetAccount handles GET /api/v1/billing/account
func (h *BillingHandler) GetAccount(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return
	}

	resp, err := h.service.GetAccount(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListQuarters handles GET /api/v1/billing/quarters
func (h *BillingHandler) ListQuarters(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return
	}

	resp, err := h.service.ListQuarters(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetQuarter handles GET /api/v1/billing/quarters/:key
func (h *BillingHandler) GetQuarter(c *gin.Context) {
	orgID, key, ok := h.quarterParams(c)
	if !ok {
		return
	}

	resp, err := h.service.GetQuarter(c.Request.Context(), orgID, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecomputeQuarter handles POST /api/v1/billing/quarters/:key/recompute
func (h *BillingHandler) RecomputeQuarter(c *gin.Context) {
	orgID, key, ok := h.quarterParams(c)
	if !ok {
		return
	}

	resp, err := h.service.RecomputeQuarter(c.Request.Context(), orgID, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkQuarterPaid handles POST /api/v1/billing/quarters/:key/pay
func (h *BillingHandler) MarkQuarterPaid(c *gin.Context) {
	orgID, key, ok := h.quarterParams(c)
	if !ok {
		return
	}

	resp, err := h.service.MarkQuarterPaid(c.Request.Context(), orgID, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// WaiveQuarter handles POST /api/v1/billing/quarters/:key/waive
func (h *BillingHandler) WaiveQuarter(c *gin.Context) {
	orgID, key, ok := h.quarterParams(c)
	if !ok {
		return
	}

	resp, err := h.service.WaiveQuarter(c.Request.Context(), orgID, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *BillingHandler) quarterParams(c *gin.Context) (uuid.UUID, billing.QuarterKey, bool) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return uuid.Nil, billing.QuarterKey{}, false
	}
	key, err := billing.ParseQuarterKey(c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, billing.QuarterKey{}, false
	}
	return orgID, key, true
}
