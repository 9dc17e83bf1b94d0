package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidsgo-app/kidsgo-backend/internal/invites"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/services"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type InviteHandler struct {
	svc   *invites.Service
	audit services.AuditService
}

func NewInviteHandler(svc *invites.Service, audit services.AuditService) *InviteHandler {
	return &InviteHandler{svc: svc, audit: audit}
}

type validateCodeRequest struct {
	Code string `json:"code"`
}

// ValidateCode reports validity, expiry, and the invite email for a
// human-entered code. It never consumes the code.
func (h *InviteHandler) ValidateCode(c *gin.Context) {
	const op = "InviteHandler.ValidateCode"

	var req validateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	res := h.svc.Validate(c.Request.Context(), req.Code)
	h.audit.Record(c.Request.Context(), "", models.EventCodeValidated, string(res.Status))

	c.JSON(http.StatusOK, res)
}

type issueInviteRequest struct {
	Email   string `json:"email" binding:"required,email"`
	TTLDays int    `json:"ttl_days"`
}

// Issue creates a provider invite. Admin-only; the route sits behind the
// admin guard.
func (h *InviteHandler) Issue(c *gin.Context) {
	const op = "InviteHandler.Issue"

	var req issueInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	invite, err := h.svc.Issue(c.Request.Context(), req.Email, time.Duration(req.TTLDays)*24*time.Hour)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}
