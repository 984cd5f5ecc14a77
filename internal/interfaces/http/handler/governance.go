package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appgovernance "github.com/tradelane/backend/internal/application/governance"
)

// GovernanceHandler handles governance rule endpoints
type GovernanceHandler struct {
	BaseHandler
	service *appgovernance.Service
}

// NewGovernanceHandler creates a new GovernanceHandler
func NewGovernanceHandler(service *appgovernance.Service) *GovernanceHandler {
	return &GovernanceHandler{service: service}
}

// CreateRule handles POST /api/v1/governance/rules
func (h *GovernanceHandler) CreateRule(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return
	}

	var req appgovernance.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.CreateRule(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListRules handles GET /api/v1/governance/rules
func (h *GovernanceHandler) ListRules(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return
	}

	resp, err := h.service.ListRules(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateRule handles PUT /api/v1/governance/rules/:id
func (h *GovernanceHandler) UpdateRule(c *gin.Context) {
	orgID, id, ok := h.ruleParams(c)
	if !ok {
		return
	}

	var req appgovernance.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.UpdateRule(c.Request.Context(), orgID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// enableRequest toggles a rule
type enableRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetRuleEnabled handles PATCH /api/v1/governance/rules/:id/enabled
func (h *GovernanceHandler) SetRuleEnabled(c *gin.Context) {
	orgID, id, ok := h.ruleParams(c)
	if !ok {
		return
	}

	var req enableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.SetRuleEnabled(c.Request.Context(), orgID, id, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteRule handles DELETE /api/v1/governance/rules/:id
func (h *GovernanceHandler) DeleteRule(c *gin.Context) {
	orgID, id, ok := h.ruleParams(c)
	if !ok {
		return
	}

	if err := h.service.DeleteRule(c.Request.Context(), orgID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Evaluate handles POST /api/v1/governance/evaluate
func (h *GovernanceHandler) Evaluate(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return
	}

	var req appgovernance.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Evaluate(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *GovernanceHandler) ruleParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Org ID is required")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID")
		return uuid.Nil, uuid.Nil, false
	}
	return orgID, id, true
}
