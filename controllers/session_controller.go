package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sushicount-api/models"
	"sushicount-api/repositories"
	"sushicount-api/security"
	"sushicount-api/services"
	"sushicount-api/utils"
)

type SessionController struct {
	sessions *repositories.SessionRepository
	users    *repositories.UserRepository
	export   *services.ExportService
}

func NewSessionController(sessions *repositories.SessionRepository, users *repositories.UserRepository, export *services.ExportService) *SessionController {
	return &SessionController{
		sessions: sessions,
		users:    users,
		export:   export,
	}
}

type ParticipantInput struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
	Rating *int   `json:"rating"`
}

type CreateSessionRequest struct {
	Title          string             `json:"title"`
	RestaurantName *string            `json:"restaurant_name"`
	Description    *string            `json:"description"`
	Participants   []ParticipantInput `json:"participants"`
}

type UpdateSessionRequest struct {
	ID             string  `json:"id" binding:"required"`
	Title          string  `json:"title"`
	RestaurantName *string `json:"restaurant_name"`
	Description    *string `json:"description"`
	IsActive       *bool   `json:"is_active" binding:"required"`
}

func (sc *SessionController) GetAll(c *gin.Context) {
	sessions, err := sc.sessions.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (sc *SessionController) GetMine(c *gin.Context) {
	sessions, err := sc.sessions.GetMine(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// ExportMine sends the user's sessions as an XLSX download.
func (sc *SessionController) ExportMine(c *gin.Context) {
	userID := c.Param("userId")

	sessions, err := sc.sessions.GetMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "")
		return
	}

	data, err := sc.export.SessionsWorkbook(userID, sessions)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sessions-%s.xlsx"`, userID))
	c.Data(http.StatusOK, services.ExportContentType, data)
}

func (sc *SessionController) GetOpen(c *gin.Context) {
	sessions, err := sc.sessions.GetOpenForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (sc *SessionController) GetByID(c *gin.Context) {
	session, err := sc.sessions.GetByID(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (sc *SessionController) Create(c *gin.Context) {
	ctx := c.Request.Context()
	creatorID := c.Param("creatorUserId")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	title := security.SanitizeText(req.Title)
	if title == "" {
		utils.SendValidationError(c, "Title is required")
		return
	}

	participants := make([]models.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		if utils.IsBlank(p.UserID) {
			utils.SendValidationError(c, "Participant user_id is required")
			return
		}
		if !models.ValidRating(p.Rating) {
			utils.SendValidationError(c, "Rating must be between 1 and 10")
			return
		}
		participants = append(participants, models.Participant{UserID: p.UserID, Count: p.Count, Rating: p.Rating})
	}

	if _, err := sc.users.GetByID(ctx, creatorID); err != nil {
		respondError(c, err, "Creator not found")
		return
	}

	session := models.Session{
		Title:          title,
		RestaurantName: security.SanitizeOptional(req.RestaurantName),
		Description:    security.SanitizeOptional(req.Description),
		CreatorID:      creatorID,
		Participants:   participants,
	}
	if err := sc.sessions.Create(ctx, &session); err != nil {
		respondError(c, err, "Session not found")
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (sc *SessionController) Update(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	title := security.SanitizeText(req.Title)
	if title == "" {
		utils.SendValidationError(c, "Title is required")
		return
	}

	session := models.Session{
		ID:             req.ID,
		Title:          title,
		RestaurantName: security.SanitizeOptional(req.RestaurantName),
		Description:    security.SanitizeOptional(req.Description),
		IsActive:       *req.IsActive,
	}
	if err := sc.sessions.Update(c.Request.Context(), &session); err != nil {
		respondError(c, err, "Session not found")
		return
	}
	utils.SendNoContent(c)
}

func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.sessions.Delete(c.Request.Context(), c.Param("sessionId")); err != nil {
		respondError(c, err, "Session not found")
		return
	}
	utils.SendNoContent(c)
}
