package controllers

import (
	"github.com/gin-gonic/gin"

	"sushicount-api/models"
	"sushicount-api/repositories"
	"sushicount-api/utils"
)

type ParticipantController struct {
	participants *repositories.ParticipantRepository
}

func NewParticipantController(participants *repositories.ParticipantRepository) *ParticipantController {
	return &ParticipantController{participants: participants}
}

// AddOrUpdate adds the participant, or adds count to an existing participant's tally.
func (pc *ParticipantController) AddOrUpdate(c *gin.Context) {
	var req ParticipantInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if utils.IsBlank(req.UserID) {
		utils.SendValidationError(c, "user_id is required")
		return
	}
	if !models.ValidRating(req.Rating) {
		utils.SendValidationError(c, "Rating must be between 1 and 10")
		return
	}

	_, err := pc.participants.AddOrUpdate(c.Request.Context(), c.Param("sessionId"), models.Participant{
		UserID: req.UserID,
		Count:  req.Count,
		Rating: req.Rating,
	})
	if err != nil {
		respondError(c, err, "Session not found")
		return
	}
	utils.SendNoContent(c)
}

func (pc *ParticipantController) Remove(c *gin.Context) {
	if _, err := pc.participants.Remove(c.Request.Context(), c.Param("sessionId"), c.Param("userId")); err != nil {
		respondError(c, err, "Participant not found")
		return
	}
	utils.SendNoContent(c)
}
