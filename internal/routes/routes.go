package routes

import (
	"kyc-review-api/internal/handlers"
	"kyc-review-api/internal/middleware"
	"kyc-review-api/internal/models"

	"github.com/gin-gonic/gin"
)

// Route describes one registered endpoint, for startup logging.
type Route struct {
	Method string
	Path   string
}

// SetupRoutes builds the engine. uploadDir is served read-only under /uploads/kyc.
func SetupRoutes(uploadDir string) *gin.Engine {
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "KYC review API is running",
		})
	})

	if uploadDir != "" {
		ginRouter.Static("/uploads/kyc", uploadDir)
	}

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/register", handlers.Register)
		api.POST("/login", handlers.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		// Reviewer task endpoints
		protectedRoutes.GET("/tasks-for-reviewer", handlers.GetReviewerTasks)
		protectedRoutes.GET("/tasks/:id", handlers.GetTaskByID)
		protectedRoutes.PATCH("/tasks/:id", handlers.UpdateTaskStatus)
		protectedRoutes.PUT("/tasks/:id", handlers.UpdateTaskStatus)
		protectedRoutes.GET("/stats/:userid", handlers.GetStatsByUser)

		// KYC endpoints
		protectedRoutes.POST("/kyc-submissions", handlers.SubmitKYC)
		protectedRoutes.GET("/kyc-submissions/me", handlers.GetMyKYCStatus)
		protectedRoutes.GET("/kyc-record/:userId", handlers.GetKYCRecord)

		// Realtime
		protectedRoutes.GET("/ws", handlers.WebSocketHandler)
	}

	adminRoutes := protectedRoutes.Group("")
	adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminRoutes.GET("/users", handlers.GetAllUsers)
		adminRoutes.PATCH("/users/:id/role", handlers.UpdateUserRole)
	}

	return ginRouter
}

// List returns the method and path of every route on r, in registration order.
func List(r *gin.Engine) []Route {
	infos := r.Routes()
	out := make([]Route, 0, len(infos))
	for _, info := range infos {
		out = append(out, Route{Method: info.Method, Path: info.Path})
	}
	return out
}
