package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/shikshahub/shiksha-api/api/swagger"
	"github.com/shikshahub/shiksha-api/internal/handler"
	"github.com/shikshahub/shiksha-api/internal/middleware"
	"github.com/shikshahub/shiksha-api/internal/models"
	"github.com/shikshahub/shiksha-api/internal/repository"
	"github.com/shikshahub/shiksha-api/internal/service"
	"github.com/shikshahub/shiksha-api/pkg/cache"
	"github.com/shikshahub/shiksha-api/pkg/config"
	"github.com/shikshahub/shiksha-api/pkg/database"
	"github.com/shikshahub/shiksha-api/pkg/export"
	"github.com/shikshahub/shiksha-api/pkg/logger"
	corsmiddleware "github.com/shikshahub/shiksha-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shikshahub/shiksha-api/pkg/middleware/requestid"
)

// @title Shiksha Multi-Tenant School API
// @version 1.0.0
// @description Academic calendar, admission and enrollment management for school networks.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is optional. Without it calendar reads fall through to the
	// database on every request.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, calendar caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	sessionRepo := repository.NewSessionRepository(db)
	termRepo := repository.NewTermRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	feeRepo := repository.NewFeeStructureRepository(db)
	transportRepo := repository.NewTransportRouteRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	calendarTTL := cfg.Calendar.CacheTTL
	if !cfg.Calendar.CacheEnabled {
		calendarTTL = 0
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	calendarSvc := service.NewCalendarService(sessionRepo, termRepo, holidayRepo, cacheRepo, calendarTTL, logr)
	sessionSvc := service.NewSessionService(sessionRepo, userRepo, calendarSvc, validate, logr)
	termSvc := service.NewTermService(termRepo, sessionRepo, calendarSvc, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, sessionRepo, calendarSvc, validate, logr)
	tenantSvc := service.NewTenantService(tenantRepo, validate, logr)
	schoolSvc := service.NewSchoolService(schoolRepo, tenantRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, schoolRepo, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, gradeRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, tenantRepo, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, studentRepo, schoolRepo, gradeRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, sectionRepo, sessionRepo, userRepo, validate, logr)
	feeSvc := service.NewFeeStructureService(feeRepo, gradeRepo, sessionRepo, validate, logr)
	transportSvc := service.NewTransportRouteService(transportRepo, schoolRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)

	var rosterSvc *service.RosterService
	var letterSvc *service.LetterService
	if cfg.Exports.Enabled {
		pdfExporter := export.NewPDFExporter(cfg.Exports.LetterheadName)
		rosterSvc = service.NewRosterService(enrollmentRepo, sectionRepo, export.NewCSVExporter(), pdfExporter, logr)
		letterSvc = service.NewLetterService(admissionRepo, pdfExporter, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc, calendarSvc)
	termHandler := handler.NewTermHandler(termSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	tenantHandler := handler.NewTenantHandler(tenantSvc)
	schoolHandler := handler.NewSchoolHandler(schoolSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc, rosterSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	admissionHandler := handler.NewAdmissionHandler(admissionSvc, letterSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	feeHandler := handler.NewFeeStructureHandler(feeSvc)
	transportHandler := handler.NewTransportRouteHandler(transportSvc)
	userHandler := handler.NewUserHandler(userSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin, models.RoleSchoolAdmin)
	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin, models.RoleSchoolAdmin, models.RoleTeacher)

	tenants := protected.Group("/tenants")
	{
		tenants.GET("", middleware.RequireRoles(models.RoleSuperAdmin), tenantHandler.List)
		tenants.GET("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), tenantHandler.Get)
		tenants.POST("", middleware.RequireRoles(models.RoleSuperAdmin), tenantHandler.Create)
		tenants.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin), tenantHandler.Update)
		tenants.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), tenantHandler.Delete)
	}

	schools := protected.Group("/schools")
	{
		schools.GET("", staff, schoolHandler.List)
		schools.GET("/:id", staff, schoolHandler.Get)
		schools.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), schoolHandler.Create)
		schools.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), schoolHandler.Update)
		schools.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), schoolHandler.Delete)
	}

	sessions := protected.Group("/sessions")
	{
		sessions.GET("", staff, sessionHandler.List)
		sessions.GET("/active", staff, sessionHandler.GetActive)
		sessions.GET("/:id", staff, sessionHandler.Get)
		sessions.GET("/:id/calendar", staff, sessionHandler.Calendar)
		sessions.POST("", admins, sessionHandler.Create)
		sessions.POST("/activate", admins, sessionHandler.Activate)
		sessions.PUT("/:id", admins, sessionHandler.Update)
		sessions.DELETE("/:id", admins, sessionHandler.Delete)
	}

	terms := protected.Group("/terms")
	{
		terms.GET("", staff, termHandler.List)
		terms.GET("/:id", staff, termHandler.Get)
		terms.POST("", admins, termHandler.Create)
		terms.PUT("/:id", admins, termHandler.Update)
		terms.DELETE("/:id", admins, termHandler.Delete)
	}

	holidays := protected.Group("/holidays")
	{
		holidays.GET("", staff, holidayHandler.List)
		holidays.GET("/:id", staff, holidayHandler.Get)
		holidays.POST("", admins, holidayHandler.Create)
		holidays.PUT("/:id", admins, holidayHandler.Update)
		holidays.DELETE("/:id", admins, holidayHandler.Delete)
	}

	grades := protected.Group("/grades")
	{
		grades.GET("", staff, gradeHandler.List)
		grades.GET("/:id", staff, gradeHandler.Get)
		grades.POST("", admins, gradeHandler.Create)
		grades.PUT("/:id", admins, gradeHandler.Update)
		grades.DELETE("/:id", admins, gradeHandler.Delete)
	}

	sections := protected.Group("/sections")
	{
		sections.GET("", staff, sectionHandler.List)
		sections.GET("/:id", staff, sectionHandler.Get)
		sections.POST("", admins, sectionHandler.Create)
		sections.PUT("/:id", admins, sectionHandler.Update)
		sections.DELETE("/:id", admins, sectionHandler.Delete)
		if rosterSvc != nil {
			sections.GET("/:id/roster/export", staff, sectionHandler.ExportRoster)
		}
	}

	students := protected.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", staff, studentHandler.Get)
		students.POST("", admins, studentHandler.Create)
		students.PUT("/:id", admins, studentHandler.Update)
		students.DELETE("/:id", admins, studentHandler.Delete)
	}

	admissions := protected.Group("/admissions")
	{
		admissions.GET("", staff, admissionHandler.List)
		admissions.GET("/:id", staff, admissionHandler.Get)
		admissions.POST("", admins, admissionHandler.Create)
		admissions.POST("/:id/approve", admins, admissionHandler.Approve)
		admissions.POST("/:id/reject", admins, admissionHandler.Reject)
		if letterSvc != nil {
			admissions.GET("/:id/letter", staff, admissionHandler.Letter)
		}
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", staff, enrollmentHandler.List)
		enrollments.GET("/:id", staff, enrollmentHandler.Get)
		enrollments.POST("", admins, enrollmentHandler.Enroll)
		enrollments.POST("/:id/withdraw", admins, enrollmentHandler.Withdraw)
		enrollments.POST("/:id/transfer", admins, enrollmentHandler.Transfer)
	}

	fees := protected.Group("/fee-structures")
	{
		fees.GET("", staff, feeHandler.List)
		fees.GET("/:id", staff, feeHandler.Get)
		fees.POST("", admins, feeHandler.Create)
		fees.PUT("/:id", admins, feeHandler.Update)
		fees.DELETE("/:id", admins, feeHandler.Delete)
	}

	transport := protected.Group("/transport-routes")
	{
		transport.GET("", staff, transportHandler.List)
		transport.GET("/:id", staff, transportHandler.Get)
		transport.POST("", admins, transportHandler.Create)
		transport.PUT("/:id", admins, transportHandler.Update)
		transport.DELETE("/:id", admins, transportHandler.Delete)
	}

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleTenantAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleTenantAdmin), userHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "cache", redisClient != nil, "ttl", calendarTTL.String())
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
