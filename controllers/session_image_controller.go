package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"sushicount-api/metrics"
	"sushicount-api/middleware"
	"sushicount-api/models"
	"sushicount-api/repositories"
	"sushicount-api/security"
	"sushicount-api/utils"
)

type SessionImageController struct {
	sessions      *repositories.SessionRepository
	maxUploadSize int64
}

func NewSessionImageController(sessions *repositories.SessionRepository, maxUploadSize int64) *SessionImageController {
	return &SessionImageController{
		sessions:      sessions,
		maxUploadSize: maxUploadSize,
	}
}

// authorize loads the session and rejects a known requester who is not its creator.
// Anonymous requests are let through.
func (ic *SessionImageController) authorize(c *gin.Context, sessionID string) bool {
	session, err := ic.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, "Session not found")
		return false
	}

	if requester := middleware.Requester(c); requester != "" && requester != session.CreatorID {
		utils.SendError(c, http.StatusForbidden, "Only the session creator can manage images")
		return false
	}
	return true
}

func (ic *SessionImageController) Upload(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if !ic.authorize(c, sessionID) {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		metrics.RecordImageUpload(false, 0)
		utils.SendValidationError(c, "Image file is required")
		return
	}
	if header.Size <= 0 {
		metrics.RecordImageUpload(false, 0)
		utils.SendValidationError(c, "Image file is empty")
		return
	}
	if header.Size > ic.maxUploadSize {
		metrics.RecordImageUpload(false, 0)
		utils.SendValidationError(c, fmt.Sprintf("Image exceeds the %d byte limit", ic.maxUploadSize))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, ic.maxUploadSize+1))
	if err != nil {
		respondError(c, err, "")
		return
	}
	if len(data) == 0 || int64(len(data)) > ic.maxUploadSize {
		metrics.RecordImageUpload(false, 0)
		utils.SendValidationError(c, "Image size is invalid")
		return
	}

	contentType := mimetype.Detect(data).String()
	if !utils.IsAllowedImageType(contentType) {
		metrics.RecordImageUpload(false, 0)
		utils.SendValidationError(c, "Only JPEG, PNG and WebP images are allowed")
		return
	}

	fileName := security.SanitizeText(filepath.Base(header.Filename))
	if fileName == "" || fileName == "." {
		fileName = "image" + utils.ImageExtension(contentType)
	}

	ref := models.ImageRef{
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedBy:  middleware.Requester(c),
	}
	if err := ic.sessions.AddImage(c.Request.Context(), sessionID, &ref, bytes.NewReader(data)); err != nil {
		respondError(c, err, "Session not found")
		return
	}

	metrics.RecordImageUpload(true, ref.Size)
	c.JSON(http.StatusCreated, ref)
}

func (ic *SessionImageController) Download(c *gin.Context) {
	ref, body, err := ic.sessions.OpenImage(c.Request.Context(), c.Param("sessionId"), c.Param("imageId"))
	if err != nil {
		respondError(c, err, "Image not found")
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, ref.Size, ref.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename=%q`, ref.FileName),
	})
}

func (ic *SessionImageController) Delete(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if !ic.authorize(c, sessionID) {
		return
	}

	if err := ic.sessions.DeleteImage(c.Request.Context(), sessionID, c.Param("imageId")); err != nil {
		respondError(c, err, "Image not found")
		return
	}
	utils.SendNoContent(c)
}

func (ic *SessionImageController) SetThumbnail(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if !ic.authorize(c, sessionID) {
		return
	}

	if err := ic.sessions.SetThumbnail(c.Request.Context(), sessionID, c.Param("imageId")); err != nil {
		respondError(c, err, "Image not found")
		return
	}
	utils.SendNoContent(c)
}
