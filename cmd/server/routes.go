package main

import (
	"github.com/gin-gonic/gin"
	"github.com/inspectra/inspectra/internal/handlers"
	"github.com/inspectra/inspectra/internal/middleware"
	"github.com/inspectra/inspectra/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the detection webhook
	webhookLimiter := middleware.NewRateLimiter(10, 20)

	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		api.GET("/health", healthHandler.CheckHealth)

		// Auth
		authHandler := handlers.NewAuthHandler(svc.authService)
		api.POST("/auth/login", authHandler.Login)

		// Users
		userHandler := handlers.NewUserHandler(svc.userService)
		api.POST("/users", userHandler.Create)
		api.GET("/users", userHandler.List)
		api.GET("/users/:userID", userHandler.Get)
		api.PATCH("/users/:userID", userHandler.Update)
		api.DELETE("/users/:userID", userHandler.Delete)

		// Projects
		projectHandler := handlers.NewProjectHandler(svc.projectService)
		api.POST("/projects", projectHandler.Create)
		api.GET("/projects", projectHandler.List)
		api.GET("/projects/:projectID", projectHandler.Get)
		api.PATCH("/projects/:projectID", projectHandler.Update)
		api.POST("/projects/:projectID/archive", projectHandler.Archive)
		api.POST("/projects/:projectID/unarchive", projectHandler.Unarchive)
		api.DELETE("/projects/:projectID", projectHandler.Delete)

		// Project members
		memberHandler := handlers.NewProjectMemberHandler(svc.memberService)
		api.POST("/projects/:projectID/members", memberHandler.Add)
		api.GET("/projects/:projectID/members", memberHandler.List)
		api.GET("/projects/:projectID/members/:userID", memberHandler.Get)
		api.PATCH("/projects/:projectID/members/:userID", memberHandler.UpdateRole)
		api.DELETE("/projects/:projectID/members/:userID", memberHandler.Remove)
		api.POST("/projects/:projectID/transfer-ownership", memberHandler.TransferOwnership)

		// Submissions
		submissionHandler := handlers.NewSubmissionHandler(svc.submissionService, svc.detectionService)
		api.POST("/projects/:projectID/submissions", submissionHandler.Create)
		api.GET("/projects/:projectID/submissions", submissionHandler.List)
		api.GET("/projects/:projectID/submissions/:submissionID", submissionHandler.Get)
		api.PATCH("/projects/:projectID/submissions/:submissionID", submissionHandler.Update)
		api.POST("/projects/:projectID/submissions/:submissionID/retry", submissionHandler.Retry)
		api.DELETE("/projects/:projectID/submissions/:submissionID", submissionHandler.Delete)

		// Anomalies
		anomalyHandler := handlers.NewAnomalyHandler(svc.anomalyService)
		api.POST("/submissions/:submissionID/anomalies", anomalyHandler.Create)
		api.GET("/submissions/:submissionID/anomalies", anomalyHandler.List)
		api.GET("/anomalies/:anomalyID", anomalyHandler.Get)
		api.PATCH("/anomalies/:anomalyID", anomalyHandler.Update)
		api.DELETE("/anomalies/:anomalyID", anomalyHandler.Delete)

		// Storage
		storageHandler := handlers.NewStorageHandler(svc.storageService)
		api.POST("/projects/:projectID/images", storageHandler.UploadImage)
		api.POST("/projects/:projectID/designs", storageHandler.UploadDesign)
		api.GET("/projects/:projectID/files/presign", storageHandler.Presign)

		// Detection webhook (secret-verified)
		detectionHandler := handlers.NewDetectionHandler(svc.detectionService)
		api.POST("/detection/webhook", webhookLimiter.Middleware(), detectionHandler.Webhook)

		// System logs
		systemLogHandler := handlers.NewSystemLogHandler(svc.systemLogService)
		api.GET("/system-logs", systemLogHandler.List)
		api.GET("/system-logs/modules", systemLogHandler.GetModules)
	}
}
