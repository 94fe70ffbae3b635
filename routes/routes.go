// File: /routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sushicount-api/config"
	"sushicount-api/controllers"
	"sushicount-api/metrics"
	"sushicount-api/middleware"
	"sushicount-api/repositories"
	"sushicount-api/services"
	"sushicount-api/storage"
)

// NewRouter builds the engine with the middleware chain and every API route.
func NewRouter(db *gorm.DB, cfg *config.Config, blobs storage.BlobStore, notifier services.Notifier) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.UploadMaxSize
	// Route on the escaped path so %2F stays inside a path parameter.
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	r.Use(middleware.Identity(cfg.JWTSecret))

	SetupRoutes(r, db, cfg, blobs, notifier)
	return r
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, blobs storage.BlobStore, notifier services.Notifier) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	friendRepo := repositories.NewFriendRepository(db)
	sessionRepo := repositories.NewSessionRepository(db, blobs)
	participantRepo := repositories.NewParticipantRepository(db)

	// Controllers
	userController := controllers.NewUserController(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	friendController := controllers.NewFriendController(friendRepo, notifier)
	sessionController := controllers.NewSessionController(sessionRepo, userRepo, services.NewExportService())
	participantController := controllers.NewParticipantController(participantRepo)
	imageController := controllers.NewSessionImageController(sessionRepo, cfg.UploadMaxSize)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	// User routes
	users := api.Group("/users")
	{
		users.GET("", userController.GetAll)
		users.GET("/login/:email/:password", userController.Login)
		users.POST("", userController.Register)
		users.PUT("", userController.Update)
		users.GET("/:userId", userController.GetByID)
		users.DELETE("/:userId", userController.Delete)
	}

	// Friend routes
	friends := api.Group("/friends")
	{
		friends.GET("/search", friendController.Search)
		friends.GET("/:userId/friends", friendController.GetFriends)
		friends.DELETE("/:userId/:friendId", friendController.RemoveFriend)
		friends.POST("/request", friendController.SendRequest)
		friends.POST("/respond", friendController.Respond)
		friends.GET("/:userId/incoming", friendController.GetIncoming)
		friends.GET("/:userId/outgoing", friendController.GetOutgoing)
	}

	// Session routes
	sessions := api.Group("/sessions")
	{
		sessions.GET("", sessionController.GetAll)
		sessions.GET("/mine/:userId", sessionController.GetMine)
		sessions.GET("/mine/:userId/export", sessionController.ExportMine)
		sessions.GET("/open/:userId", sessionController.GetOpen)
		sessions.GET("/:sessionId", sessionController.GetByID)
		sessions.POST("/create/:creatorUserId", sessionController.Create)
		sessions.PUT("", sessionController.Update)
		sessions.DELETE("/:sessionId", sessionController.Delete)

		sessions.PUT("/:sessionId/participants", participantController.AddOrUpdate)
		sessions.DELETE("/:sessionId/participants/:userId", participantController.Remove)

		sessions.POST("/:sessionId/images", imageController.Upload)
		sessions.GET("/:sessionId/images/:imageId", imageController.Download)
		sessions.DELETE("/:sessionId/images/:imageId", imageController.Delete)
		sessions.PUT("/:sessionId/images/:imageId/thumbnail", imageController.SetThumbnail)
	}
}
