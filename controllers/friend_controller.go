package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sushicount-api/logger"
	"sushicount-api/repositories"
	"sushicount-api/services"
	"sushicount-api/utils"
)

type FriendController struct {
	friends  *repositories.FriendRepository
	notifier services.Notifier
}

func NewFriendController(friends *repositories.FriendRepository, notifier services.Notifier) *FriendController {
	return &FriendController{
		friends:  friends,
		notifier: notifier,
	}
}

type FriendRequestBody struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

type RespondRequestBody struct {
	RequestID string `json:"request_id" binding:"required"`
	Accept    bool   `json:"accept"`
}

func (fc *FriendController) Search(c *gin.Context) {
	users, err := fc.friends.Search(c.Request.Context(), c.Query("term"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (fc *FriendController) GetFriends(c *gin.Context) {
	friends, err := fc.friends.GetFriends(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, friends)
}

func (fc *FriendController) RemoveFriend(c *gin.Context) {
	userID := c.Param("userId")
	friendID := c.Param("friendId")

	if userID == friendID {
		utils.SendValidationError(c, "Cannot remove yourself")
		return
	}

	if err := fc.friends.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		respondError(c, err, "Friendship not found")
		return
	}
	utils.SendNoContent(c)
}

func (fc *FriendController) SendRequest(c *gin.Context) {
	var req FriendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	request, err := fc.friends.SendRequest(c.Request.Context(), req.FromUserID, req.ToUserID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInvalidRequest):
			utils.SendValidationError(c, "Both users are required and must differ")
		case errors.Is(err, repositories.ErrDuplicate):
			utils.SendError(c, http.StatusConflict, "Already friends or request already pending")
		default:
			respondError(c, err, "User not found")
		}
		return
	}

	if request.FromUser != nil && request.ToUser != nil {
		if err := fc.notifier.FriendRequestReceived(c.Request.Context(), *request.FromUser, *request.ToUser); err != nil {
			logger.Warn("Failed to send friend request notification", "request_id", request.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, request)
}

func (fc *FriendController) Respond(c *gin.Context) {
	var req RespondRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	if err := fc.friends.Respond(c.Request.Context(), req.RequestID, req.Accept); err != nil {
		respondError(c, err, "Friend request not found")
		return
	}
	utils.SendNoContent(c)
}

func (fc *FriendController) GetIncoming(c *gin.Context) {
	requests, err := fc.friends.GetIncoming(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (fc *FriendController) GetOutgoing(c *gin.Context) {
	requests, err := fc.friends.GetOutgoing(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, requests)
}
