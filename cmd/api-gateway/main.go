package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sis-grading-api/api/swagger"
	"github.com/noah-isme/sis-grading-api/internal/handler"
	"github.com/noah-isme/sis-grading-api/internal/middleware"
	"github.com/noah-isme/sis-grading-api/internal/models"
	"github.com/noah-isme/sis-grading-api/internal/repository"
	"github.com/noah-isme/sis-grading-api/internal/service"
	"github.com/noah-isme/sis-grading-api/pkg/cache"
	"github.com/noah-isme/sis-grading-api/pkg/config"
	"github.com/noah-isme/sis-grading-api/pkg/database"
	"github.com/noah-isme/sis-grading-api/pkg/jobs"
	"github.com/noah-isme/sis-grading-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sis-grading-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sis-grading-api/pkg/middleware/requestid"
	"github.com/noah-isme/sis-grading-api/pkg/storage"
)

// @title SIS Grading API
// @version 1.0.0
// @description Academic grade computation and locking engine
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, board cache disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	rubricRepo := repository.NewRubricRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	finalGradeRepo := repository.NewFinalGradeRepository(db)
	conductRepo := repository.NewConductRepository(db)
	remedialRepo := repository.NewRemedialRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "sis-grading-api",
	})
	rubricSvc := service.NewRubricService(rubricRepo, subjectRepo, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, assignmentRepo, validate, logr)
	gradeSvc := service.NewGradeService(
		assessmentRepo, scoreRepo, finalGradeRepo, enrollmentRepo,
		assignmentRepo, rubricSvc, studentRepo, cacheRepo, metrics,
		validate, logr,
	)
	advisorySvc := service.NewAdvisoryService(
		finalGradeRepo, conductRepo, enrollmentRepo, studentRepo, classRepo,
		cacheRepo, metrics, cfg.Grading.BoardCacheTTL, validate, logr,
	)
	remedialSvc := service.NewRemedialService(
		remedialRepo, finalGradeRepo, enrollmentRepo, studentRepo,
		subjectRepo, cfg.Grading.PassingGrade, validate, logr,
	)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		localStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(gradeSvc, advisorySvc, localStorage, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc = service.NewReportService(reportRepo, assignmentRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: time.Hour,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	rubricHandler := handler.NewRubricHandler(rubricSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	advisoryHandler := handler.NewAdvisoryHandler(advisorySvc)
	remedialHandler := handler.NewRemedialHandler(remedialSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/status", metricsHandler.Snapshot)

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	authed.GET("/assignments", staff, assignmentHandler.Mine)

	authed.GET("/rubrics/:subjectId", staff, rubricHandler.Get)
	authed.PUT("/rubrics", admin, rubricHandler.Upsert)

	authed.GET("/assessments", staff, assessmentHandler.List)
	authed.POST("/assessments", staff, assessmentHandler.Create)
	authed.PUT("/assessments/:id", staff, assessmentHandler.Update)
	authed.DELETE("/assessments/:id", staff, assessmentHandler.Delete)

	authed.POST("/grades/scores", staff, gradeHandler.SaveScores)
	authed.GET("/grades/preview", staff, gradeHandler.Preview)
	authed.GET("/grades/report-card/:id", middleware.RBAC("SUPERADMIN", "ADMIN", "TEACHER", "SELF"), gradeHandler.ReportCard)

	authed.GET("/advisory/board", staff, advisoryHandler.Board)
	authed.GET("/advisory/conduct", staff, advisoryHandler.Conduct)
	authed.POST("/advisory/conduct", staff, advisoryHandler.SaveConduct)

	authed.GET("/remedial/:id", staff, remedialHandler.Sheet)
	authed.POST("/remedial", staff, remedialHandler.Save)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		authed.POST("/reports", staff, reportHandler.Create)
		authed.GET("/reports/:id", staff, reportHandler.Status)
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
