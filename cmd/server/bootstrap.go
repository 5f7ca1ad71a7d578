package main

import (
	"github.com/inspectra/inspectra/internal/config"
	"github.com/inspectra/inspectra/internal/models"
	"github.com/inspectra/inspectra/internal/services"
	"github.com/inspectra/inspectra/pkg/logger"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	userService       *services.UserService
	authService       *services.AuthService
	projectService    *services.ProjectService
	memberService     *services.MemberService
	submissionService *services.SubmissionService
	anomalyService    *services.AnomalyService
	storageService    *services.StorageService
	detectionService  *services.DetectionService
	systemLogService  *services.SystemLogService
	taskQueue         services.TaskQueue
	worker            *services.Worker
}

// bootstrap initializes all application dependencies: database, object store,
// services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// System log writer and retention sweep
	services.InitSystemLogger(db)
	services.StartLogCleanupScheduler(db, cfg.Log.RetentionDays)

	// Object store
	store, err := services.NewMinioStore(&cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize object store: %v", err)
	}

	// Core services
	memberService := services.NewMemberService(db)
	submissionService := services.NewSubmissionService(db)
	anomalyService := services.NewAnomalyService(db)
	projectService := services.NewProjectService(db, memberService)

	// Detection pipeline (uses Redis queue if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	detectionService := services.NewDetectionService(db, taskQueue, store, &cfg.Detector)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(detectionService.ProcessDetectionTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(detectionService.ProcessDetectionTask)
			worker.Start()
		}
	}

	storageService := services.NewStorageService(db, store, submissionService, detectionService)
	projectService.SetStorage(storageService)

	return &appServices{
		userService:       services.NewUserService(db),
		authService:       services.NewAuthService(db),
		projectService:    projectService,
		memberService:     memberService,
		submissionService: submissionService,
		anomalyService:    anomalyService,
		storageService:    storageService,
		detectionService:  detectionService,
		systemLogService:  services.NewSystemLogService(db),
		taskQueue:         taskQueue,
		worker:            worker,
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	services.StopLogCleanupScheduler()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
