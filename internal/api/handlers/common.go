package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// requireIdentity pulls the identity placed on the context by the bearer
// middleware.
func requireIdentity(c *gin.Context) (*models.Identity, bool) {
	if v, ok := c.Get("identity"); ok {
		if id, ok := v.(*models.Identity); ok && id != nil && id.ID != "" {
			return id, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return nil, false
}

// requireProfile pulls the profile resolved by the guard middleware.
func requireProfile(c *gin.Context) (*models.Profile, bool) {
	if v, ok := c.Get("profile"); ok {
		if p, ok := v.(*models.Profile); ok && p != nil {
			return p, true
		}
	}

	writeError(c, utils.E(utils.CodeForbidden, "Auth", "forbidden", nil))
	return nil, false
}
