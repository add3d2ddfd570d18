package routes

import (
	"card-grading-api/controllers"
	"card-grading-api/middleware"
	"card-grading-api/models"
	"card-grading-api/services"

	"github.com/gin-gonic/gin"
)

// Services groups the workflow collaborators the routes need.
type Services struct {
	Engine    *services.WorkflowEngine
	Projector *services.HistoryProjector
	Notifier  *services.Notifier
	Proofs    *services.ProofStore
}

func SetupRoutes(router *gin.Engine, svc Services) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Card Grading API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth management
			protected.POST("/refresh", controllers.RefreshToken)
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Grading submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.GetSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.GET("/:id/history", controllers.GetSubmissionHistory(svc.Projector))

				// Customers create submissions
				submissions.POST("", middleware.RequireRole(models.RoleCustomer, models.RoleAdmin),
					controllers.CreateSubmission(svc.Engine))

				// Only graders and admins advance the workflow
				submissions.POST("/:id/transition", middleware.RequireRole(models.RoleGrader, models.RoleAdmin),
					controllers.TransitionSubmission(svc.Engine, svc.Notifier))
				submissions.POST("/:id/proof", middleware.RequireRole(models.RoleGrader, models.RoleAdmin),
					controllers.UploadProofImage(svc.Proofs))
			}
		}
	}
}
