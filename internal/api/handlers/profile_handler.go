package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/provision"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type ProfileHandler struct {
	provisioner *provision.Service
}

func NewProfileHandler(provisioner *provision.Service) *ProfileHandler {
	return &ProfileHandler{provisioner: provisioner}
}

// Me returns the caller's profile, creating it on first login. The default
// role for a fresh profile is parent; providers go through signup with an
// invite code.
func (h *ProfileHandler) Me(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	p, err := h.provisioner.GetOrCreate(c.Request.Context(), identity, models.RoleParent)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type updateProfileRequest struct {
	FullName    *string `json:"full_name,omitempty"`
	Location    *string `json:"location,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Username    *string `json:"username,omitempty"`

	Preferences *json.RawMessage `json:"preferences,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	const op = "ProfileHandler.Update"

	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	patch := gateway.Row{}
	if req.FullName != nil {
		patch["full_name"] = *req.FullName
	}
	if req.Location != nil {
		patch["location"] = *req.Location
	}
	if req.PhoneNumber != nil {
		patch["phone_number"] = *req.PhoneNumber
	}
	if req.Username != nil {
		patch["username"] = *req.Username
	}
	if req.Preferences != nil {
		patch["preferences"] = []byte(*req.Preferences)
	}
	if len(patch) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "empty update", nil))
		return
	}

	p, err := h.provisioner.Update(c.Request.Context(), identity.ID, patch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole switches the caller's role. Switching to provider requires going
// through provider signup, so that transition is rejected here.
func (h *ProfileHandler) SetRole(c *gin.Context) {
	const op = "ProfileHandler.SetRole"

	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "unknown role", nil))
		return
	}
	if role == models.RoleProvider || role == models.RoleAdmin {
		writeError(c, utils.E(utils.CodeForbidden, op, "this role cannot be self-assigned", nil))
		return
	}

	p, err := h.provisioner.SetRole(c.Request.Context(), identity.ID, role)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
