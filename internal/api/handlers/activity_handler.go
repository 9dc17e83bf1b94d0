package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/services"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type ActivityHandler struct {
	svc services.ActivityService
}

func NewActivityHandler(svc services.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List returns published activities for the marketplace pages. Public.
func (h *ActivityHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.svc.ListPublished(c.Request.Context(), c.Query("category"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("activity_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// ListMine returns the calling provider's own listings, published or not.
func (h *ActivityHandler) ListMine(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	out, err := h.svc.ListByProvider(c.Request.Context(), profile.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

type saveActivityRequest struct {
	ID         string           `json:"id"`
	Title      string           `json:"title" binding:"required"`
	Details    string           `json:"details"`
	Location   string           `json:"location"`
	PriceCents int64            `json:"price_cents"`
	AgeMin     int              `json:"age_min"`
	AgeMax     int              `json:"age_max"`
	Published  bool             `json:"published"`
	Categories []string         `json:"categories"`
	Schedule   *json.RawMessage `json:"schedule,omitempty"`
}

func (h *ActivityHandler) Save(c *gin.Context) {
	const op = "ActivityHandler.Save"

	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req saveActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	a := &models.Activity{
		ID:         req.ID,
		ProviderID: profile.ID,
		Title:      req.Title,
		Details:    req.Details,
		Location:   req.Location,
		PriceCents: req.PriceCents,
		AgeMin:     req.AgeMin,
		AgeMax:     req.AgeMax,
		Published:  req.Published,
		Categories: pq.StringArray(req.Categories),
		UpdatedAt:  time.Now().UTC(),
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
		a.CreatedAt = a.UpdatedAt
	}
	if req.Schedule != nil {
		a.Schedule = datatypes.JSON(*req.Schedule)
	}

	if err := h.svc.Save(c.Request.Context(), a); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, a)
}
