// File: /controllers/user_controller.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sushicount-api/logger"
	"sushicount-api/models"
	"sushicount-api/repositories"
	"sushicount-api/security"
	"sushicount-api/utils"
)

type UserController struct {
	users     *repositories.UserRepository
	jwtSecret string
	jwtTTL    time.Duration
}

func NewUserController(users *repositories.UserRepository, jwtSecret string, jwtTTL time.Duration) *UserController {
	return &UserController{
		users:     users,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	ID       string `json:"id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (uc *UserController) GetAll(c *gin.Context) {
	users, err := uc.users.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, users)
}

// Login checks the credentials carried in the URL path. Unknown email and wrong password
// both answer 404.
func (uc *UserController) Login(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Param("email")
	password := c.Param("password")

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		respondError(c, err, "Invalid email or password")
		return
	}

	if !security.CheckPassword(password, user.Password) {
		utils.SendError(c, http.StatusNotFound, "Invalid email or password")
		return
	}

	if security.NeedsRehash(user.Password) {
		if hash, err := security.HashPassword(password); err != nil {
			logger.Warn("Failed to rehash legacy password", "user_id", user.ID, "error", err)
		} else if err := uc.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			logger.Warn("Failed to store upgraded password", "user_id", user.ID, "error", err)
		} else {
			logger.Info("Upgraded legacy password hash", "user_id", user.ID)
		}
	}

	token, err := security.GenerateJWT(user.ID, user.Email, uc.jwtSecret, uc.jwtTTL)
	if err != nil {
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  *user,
	})
}

func (uc *UserController) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	name := security.SanitizeText(req.Name)
	if name == "" {
		utils.SendValidationError(c, "Name is required")
		return
	}
	if !utils.IsValidEmail(req.Email) {
		utils.SendValidationError(c, "Invalid email address")
		return
	}
	if utils.IsBlank(req.Password) {
		utils.SendValidationError(c, "Password is required")
		return
	}

	if !uc.checkAvailable(c, name, req.Email, "") {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondError(c, err, "")
		return
	}

	user := models.User{
		Name:     name,
		Email:    req.Email,
		Password: hash,
	}
	if err := uc.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			utils.SendError(c, http.StatusConflict, "Name or email already registered")
			return
		}
		respondError(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (uc *UserController) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	name := security.SanitizeText(req.Name)
	if name == "" {
		utils.SendValidationError(c, "Name is required")
		return
	}
	if !utils.IsValidEmail(req.Email) {
		utils.SendValidationError(c, "Invalid email address")
		return
	}

	if _, err := uc.users.GetByID(ctx, req.ID); err != nil {
		respondError(c, err, "User not found")
		return
	}
	if !uc.checkAvailable(c, name, req.Email, req.ID) {
		return
	}

	user := models.User{ID: req.ID, Name: name, Email: req.Email}
	if !utils.IsBlank(req.Password) {
		hash, err := security.HashPassword(req.Password)
		if err != nil {
			respondError(c, err, "")
			return
		}
		user.Password = hash
	}

	if err := uc.users.Update(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			utils.SendError(c, http.StatusConflict, "Name or email already registered")
			return
		}
		respondError(c, err, "User not found")
		return
	}

	utils.SendNoContent(c)
}

// checkAvailable answers 409 when another user holds the name or email.
func (uc *UserController) checkAvailable(c *gin.Context, name, email, excludeID string) bool {
	ctx := c.Request.Context()

	taken, err := uc.users.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		respondError(c, err, "")
		return false
	}
	if taken {
		utils.SendError(c, http.StatusConflict, "Email already registered")
		return false
	}

	taken, err = uc.users.ExistsByName(ctx, name, excludeID)
	if err != nil {
		respondError(c, err, "")
		return false
	}
	if taken {
		utils.SendError(c, http.StatusConflict, "Name already taken")
		return false
	}
	return true
}

func (uc *UserController) GetByID(c *gin.Context) {
	user, err := uc.users.GetByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) Delete(c *gin.Context) {
	if err := uc.users.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		respondError(c, err, "User not found")
		return
	}
	utils.SendNoContent(c)
}
