package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/invites"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/provision"
	"github.com/kidsgo-app/kidsgo-backend/internal/services"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type AuthHandler struct {
	auth        gateway.Auth
	provisioner *provision.Service
	invites     *invites.Service
	audit       services.AuditService
}

func NewAuthHandler(auth gateway.Auth, provisioner *provision.Service, inv *invites.Service, audit services.AuditService) *AuthHandler {
	return &AuthHandler{auth: auth, provisioner: provisioner, invites: inv, audit: audit}
}

// selfServeRole clamps a client-supplied role. Admin accounts are provisioned
// out of band and can never be requested here; provider is honored only after
// the invite code check in Signup.
func selfServeRole(s string) models.Role {
	if models.ParseRole(s) == models.RoleProvider {
		return models.RoleProvider
	}
	return models.RoleParent
}

type signupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role"`
	InviteCode string `json:"invite_code"`
}

type authResponse struct {
	Identity *models.Identity `json:"identity"`
	Profile  *models.Profile  `json:"profile,omitempty"`
	Message  string           `json:"message,omitempty"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	const op = "AuthHandler.Signup"

	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	role := selfServeRole(req.Role)

	// Provider signup requires a live invite code, and the account email must
	// be the one the invite was issued to.
	if role == models.RoleProvider {
		res := h.invites.Validate(c.Request.Context(), req.InviteCode)
		if !res.Status.Usable() {
			code := utils.CodeInvalidArgument
			if res.Status == invites.StatusExpired {
				code = utils.CodeExpired
			}
			writeError(c, utils.E(code, op, res.Message, nil))
			return
		}
		if res.Email != "" && res.Email != req.Email {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "this invite code was issued for a different email address", nil))
			return
		}
	}

	identity, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, mapAuthErr(op, err))
		return
	}

	if role == models.RoleProvider {
		if err := h.invites.Consume(c.Request.Context(), req.InviteCode, identity.ID); err != nil {
			// account exists but the code was redeemed under us; surface the
			// conflict instead of granting provider access
			writeError(c, err)
			return
		}
	}

	profile, err := h.provisioner.GetOrCreate(c.Request.Context(), identity, role)
	if err != nil {
		writeError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), identity.ID, models.EventProfileProvisioned, string(role))

	c.JSON(http.StatusCreated, authResponse{
		Identity: identity,
		Profile:  profile,
		Message:  "Account created. Check your inbox to confirm your email.",
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	const op = "AuthHandler.Login"

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	identity, err := h.auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, mapAuthErr(op, err))
		return
	}

	// A first login without a prior signup gets the parent default; provider
	// and admin roles only ever come from the invite path or an operator.
	profile, err := h.provisioner.GetOrCreate(c.Request.Context(), identity, models.RoleParent)
	if err != nil {
		// signed in but no profile state could be established; the client
		// renders a retry path, not a session
		writeError(c, err)
		return
	}

	h.audit.Record(c.Request.Context(), identity.ID, models.EventSignedIn, "")

	c.JSON(http.StatusOK, authResponse{Identity: identity, Profile: profile})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	const op = "AuthHandler.Logout"

	userID := ""
	if v, ok := c.Get("identity"); ok {
		if id, ok := v.(*models.Identity); ok && id != nil {
			userID = id.ID
		}
	}

	if err := h.auth.SignOut(c.Request.Context()); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to sign out", err))
		return
	}

	h.audit.Record(c.Request.Context(), userID, models.EventSignedOut, "")

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	const op = "AuthHandler.ResendVerification"

	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	if err := h.auth.ResendSignupEmail(c.Request.Context(), req.Email); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to resend verification email", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

// mapAuthErr converts gateway auth failures into user-facing app errors with
// the messages the frontend matches on.
func mapAuthErr(op string, err error) error {
	switch gateway.KindOf(err) {
	case gateway.KindInvalidLogin:
		return utils.E(utils.CodeUnauthorized, op, "Invalid login credentials", err)
	case gateway.KindEmailUnconfirmed:
		return utils.E(utils.CodeUnauthorized, op, "Email not confirmed", err)
	case gateway.KindConflict:
		return utils.E(utils.CodeConflict, op, "an account with this email already exists", err)
	case gateway.KindPermissionDenied:
		return utils.E(utils.CodeForbidden, op, "access denied", err)
	default:
		return utils.E(utils.CodeInternal, op, "authentication backend unavailable", err)
	}
}
