package handlers

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/provision"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

const avatarBucket = "avatars"

type AvatarHandler struct {
	storage     gateway.BlobStorage
	provisioner *provision.Service
}

func NewAvatarHandler(storage gateway.BlobStorage, provisioner *provision.Service) *AvatarHandler {
	return &AvatarHandler{storage: storage, provisioner: provisioner}
}

// Upload stores a profile avatar and records its public URL on the profile.
func (h *AvatarHandler) Upload(c *gin.Context) {
	const op = "AvatarHandler.Upload"

	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "avatar file is required", err))
		return
	}
	if fh.Size > 5<<20 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "avatar must be under 5MB", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	defer f.Close()

	objectPath := identity.ID + "/" + uuid.NewString() + path.Ext(fh.Filename)
	contentType := fh.Header.Get("Content-Type")

	if err := h.storage.Upload(c.Request.Context(), avatarBucket, objectPath, contentType, f); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to store avatar", err))
		return
	}

	url := h.storage.PublicURL(avatarBucket, objectPath)
	p, err := h.provisioner.Update(c.Request.Context(), identity.ID, gateway.Row{"avatar_url": url})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url, "profile": p})
}
