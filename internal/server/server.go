package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/config"
	"github.com/studyloop/backend/internal/jobs"
	"github.com/studyloop/backend/internal/middleware"
	"github.com/studyloop/backend/pkg/storage"

	activityHttp "github.com/studyloop/backend/internal/modules/activity/delivery/http"
	activityRepo "github.com/studyloop/backend/internal/modules/activity/repository"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"

	aichatHttp "github.com/studyloop/backend/internal/modules/aichat/delivery/http"
	aichatProvider "github.com/studyloop/backend/internal/modules/aichat/provider"
	aichatRepo "github.com/studyloop/backend/internal/modules/aichat/repository"
	aichatService "github.com/studyloop/backend/internal/modules/aichat/service"

	attachmentHttp "github.com/studyloop/backend/internal/modules/attachment/delivery/http"
	attachmentRepo "github.com/studyloop/backend/internal/modules/attachment/repository"
	attachmentService "github.com/studyloop/backend/internal/modules/attachment/service"

	courseHttp "github.com/studyloop/backend/internal/modules/course/delivery/http"
	courseRepo "github.com/studyloop/backend/internal/modules/course/repository"
	courseService "github.com/studyloop/backend/internal/modules/course/service"

	goalHttp "github.com/studyloop/backend/internal/modules/goal/delivery/http"
	goalRepo "github.com/studyloop/backend/internal/modules/goal/repository"
	goalService "github.com/studyloop/backend/internal/modules/goal/service"

	messageHttp "github.com/studyloop/backend/internal/modules/message/delivery/http"
	messageRepo "github.com/studyloop/backend/internal/modules/message/repository"
	messageService "github.com/studyloop/backend/internal/modules/message/service"

	profileHttp "github.com/studyloop/backend/internal/modules/profile/delivery/http"
	profileRepo "github.com/studyloop/backend/internal/modules/profile/repository"
	profileService "github.com/studyloop/backend/internal/modules/profile/service"

	quizHttp "github.com/studyloop/backend/internal/modules/quiz/delivery/http"
	quizRepo "github.com/studyloop/backend/internal/modules/quiz/repository"
	quizService "github.com/studyloop/backend/internal/modules/quiz/service"

	reflectionHttp "github.com/studyloop/backend/internal/modules/reflection/delivery/http"
	reflectionRepo "github.com/studyloop/backend/internal/modules/reflection/repository"
	reflectionService "github.com/studyloop/backend/internal/modules/reflection/service"

	resourceHttp "github.com/studyloop/backend/internal/modules/resource/delivery/http"
	resourceRepo "github.com/studyloop/backend/internal/modules/resource/repository"
	resourceService "github.com/studyloop/backend/internal/modules/resource/service"

	searchHttp "github.com/studyloop/backend/internal/modules/search/delivery/http"
	searchService "github.com/studyloop/backend/internal/modules/search/service"

	statHttp "github.com/studyloop/backend/internal/modules/stat/delivery/http"
	statRepo "github.com/studyloop/backend/internal/modules/stat/repository"
	statService "github.com/studyloop/backend/internal/modules/stat/service"

	userHttp "github.com/studyloop/backend/internal/modules/user/delivery/http"
	userRepo "github.com/studyloop/backend/internal/modules/user/repository"
	userService "github.com/studyloop/backend/internal/modules/user/service"

	"github.com/studyloop/backend/internal/entity"
)

type Server struct {
	engine    *gin.Engine
	db        *gorm.DB
	scheduler *jobs.Scheduler
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	media, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("⚠️ Cloudinary storage unavailable, uploads disabled: %v", err)
		media = nil
	}

	meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	var answerProvider aichatProvider.AnswerProvider
	if cfg.GeminiAPIKey != "" {
		provider, err := aichatProvider.NewGeminiProvider(context.Background(), cfg.GeminiModel)
		if err != nil {
			log.Printf("⚠️ Gemini provider unavailable, AI chat disabled: %v", err)
		} else {
			answerProvider = provider
		}
	}

	usersRepo := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(usersRepo, searchSvc)
	authHandler := userHttp.NewAuthHandler(authSvc)

	activitiesRepo := activityRepo.NewActivityRepository(db)
	activitySvc := activityService.NewActivityService(activitiesRepo, redisClient)
	activityHandler := activityHttp.NewActivityHandler(activitySvc, redisClient)

	goalsRepo := goalRepo.NewGoalRepository(db)
	goalSvc := goalService.NewGoalService(goalsRepo, activitySvc)
	goalHandler := goalHttp.NewGoalHandler(goalSvc)

	coursesRepo := courseRepo.NewCourseRepository(db)
	courseSvc := courseService.NewCourseService(coursesRepo, searchSvc, activitySvc)
	courseHandler := courseHttp.NewCourseHandler(courseSvc)

	reflectionsRepo := reflectionRepo.NewReflectionRepository(db)
	reflectionSvc := reflectionService.NewReflectionService(reflectionsRepo, media, activitySvc, redisClient, cfg.RateLimitReflection)
	reflectionHandler := reflectionHttp.NewReflectionHandler(reflectionSvc)

	quizzesRepo := quizRepo.NewQuizRepository(db)
	quizSvc := quizService.NewQuizService(quizzesRepo, activitySvc)
	quizHandler := quizHttp.NewQuizHandler(quizSvc)

	aiRepo := aichatRepo.NewAIChatRepository(db)
	aiSvc := aichatService.NewAIChatService(aiRepo, coursesRepo, answerProvider, activitySvc, redisClient, cfg.RateLimitAIChat)
	aiHandler := aichatHttp.NewAIChatHandler(aiSvc)

	messagesRepo := messageRepo.NewMessageRepository(db)
	messageSvc := messageService.NewMessageService(messagesRepo, activitySvc, redisClient)
	messageHandler := messageHttp.NewMessageHandler(messageSvc, redisClient)

	profilesRepo := profileRepo.NewProfileRepository(db)
	profileSvc := profileService.NewProfileService(profilesRepo, media)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	resourcesRepo := resourceRepo.NewResourceRepository(db)
	resourceSvc := resourceService.NewResourceService(resourcesRepo, media, searchSvc)
	resourceHandler := resourceHttp.NewResourceHandler(resourceSvc)

	attachmentsRepo := attachmentRepo.NewAttachmentRepository(db)
	attachmentSvc := attachmentService.NewAttachmentService(attachmentsRepo, media)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	statsRepo := statRepo.NewStatRepository(db)
	statSvc := statService.NewStatService(statsRepo, goalsRepo)
	statHandler := statHttp.NewStatHandler(statSvc)

	scheduler := jobs.NewScheduler(attachmentSvc, goalsRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(usersRepo)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/google/login", authHandler.GoogleLogin)
		auth.GET("/google/callback", authHandler.GoogleCallback)
	}
	api.GET("/feed/public", activityHandler.GetPublicFeed)
	api.GET("/profiles/:username", profileHandler.GetUserProfile)
	api.GET("/tracks", goalHandler.ListTracks)
	api.GET("/tracks/slug/:slug", goalHandler.GetTrackBySlug)
	api.GET("/stats/totals", statHandler.GetPlatformTotals)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/search/token", searchHandler.GetSearchToken)

		// Courses. Listing and detail vary by role, so the role gets resolved
		// without restricting access.
		protected.GET("/courses", authMiddleware.ResolveRole(), courseHandler.ListCourses)
		protected.GET("/courses/slug/:slug", authMiddleware.ResolveRole(), courseHandler.GetCourseBySlug)
		protected.POST("/courses/:id/enroll", courseHandler.Enroll)
		protected.PUT("/courses/:id/progress", courseHandler.UpdateProgress)
		protected.GET("/enrollments/me", courseHandler.ListMyEnrollments)

		// Reflections
		protected.POST("/reflections", reflectionHandler.CreateReflection)
		protected.GET("/reflections/me", reflectionHandler.ListMyReflections)
		protected.GET("/videos/:id/reflections", reflectionHandler.ListVideoReflections)

		// Quizzes
		protected.GET("/videos/:id/quizzes", quizHandler.ListVideoQuizzes)
		protected.POST("/quizzes/:id/attempts", quizHandler.SubmitAttempt)
		protected.GET("/quizzes/:id/attempts/me", quizHandler.ListMyAttempts)
		protected.GET("/quizzes/:id/attempts/best", quizHandler.BestAttempt)

		// AI chat
		protected.POST("/ai/ask", aiHandler.Ask)
		protected.GET("/ai/history", aiHandler.History)

		// Goals
		protected.POST("/goals/assign", goalHandler.AssignGoal)
		protected.POST("/goals/active/complete", goalHandler.CompleteActiveGoal)
		protected.POST("/goals/active/abandon", goalHandler.AbandonActiveGoal)
		protected.GET("/goals/active", goalHandler.GetMyActiveAssignment)
		protected.GET("/goals/history", goalHandler.GetMyAssignmentHistory)

		// Activity feed
		protected.GET("/feed/me", activityHandler.GetMyFeed)
		protected.GET("/feed/users/:id", activityHandler.GetUserFeed)
		protected.GET("/ws/feed", activityHandler.HandleWebSocket)

		// Conversations
		protected.POST("/conversations", messageHandler.StartConversation)
		protected.GET("/conversations", messageHandler.ListConversations)
		protected.POST("/conversations/:id/messages", messageHandler.SendMessage)
		protected.GET("/conversations/:id/messages", messageHandler.ListMessages)
		protected.PUT("/conversations/:id/read", messageHandler.MarkRead)
		protected.PUT("/messages/:id", messageHandler.UpdateDraft)
		protected.DELETE("/messages/:id", messageHandler.DeleteDraft)
		protected.POST("/messages/:id/publish", messageHandler.PublishDraft)
		protected.GET("/ws/conversations/:id", messageHandler.HandleWebSocket)

		// Resources and uploads
		protected.GET("/resources", authMiddleware.ResolveRole(), resourceHandler.ListResources)
		protected.GET("/resources/:id", authMiddleware.ResolveRole(), resourceHandler.GetResource)
		protected.POST("/upload", attachmentHandler.UploadAttachment)

		// Profile and personal stats
		protected.GET("/profile/me", profileHandler.GetMyProfile)
		protected.PUT("/profile", profileHandler.UpdateMyProfile)
		protected.GET("/stats/goal-progress", statHandler.GetMyGoalProgress)

		// Instructor routes
		instructor := protected.Group("")
		instructor.Use(authMiddleware.RequireRole(entity.RoleInstructor, entity.RoleAdmin))
		{
			instructor.POST("/courses", courseHandler.CreateCourse)
			instructor.PUT("/courses/:id", courseHandler.UpdateCourse)
			instructor.DELETE("/courses/:id", courseHandler.DeleteCourse)
			instructor.POST("/courses/:id/videos", courseHandler.AddVideo)
			instructor.PUT("/videos/:id", courseHandler.UpdateVideo)
			instructor.DELETE("/videos/:id", courseHandler.DeleteVideo)

			instructor.POST("/quizzes", quizHandler.CreateQuiz)
			instructor.DELETE("/quizzes/:id", quizHandler.DeleteQuiz)

			instructor.GET("/reflections/review-queue", reflectionHandler.ListReviewQueue)
			instructor.PUT("/reflections/:id/review", reflectionHandler.MarkReviewed)
			instructor.GET("/stats/review-queue", statHandler.GetReviewQueueCount)

			instructor.POST("/resources", resourceHandler.CreateResource)
			instructor.PUT("/resources/:id", resourceHandler.UpdateResource)
			instructor.DELETE("/resources/:id", resourceHandler.DeleteResource)
			instructor.POST("/resources/:id/attachments", attachmentHandler.LinkToResource)
		}

		// Admin routes
		admin := protected.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.GET("/users", authHandler.ListUsers)
			admin.PUT("/users/:id/role", authHandler.UpdateUserRole)
			admin.DELETE("/users/:id", authHandler.DeleteUser)

			admin.POST("/tracks", goalHandler.CreateTrack)
			admin.PUT("/tracks/:id", goalHandler.UpdateTrack)
			admin.DELETE("/tracks/:id", goalHandler.DeleteTrack)
			admin.POST("/tracks/:id/goals", goalHandler.CreateGoal)
			admin.PUT("/goals/:id", goalHandler.UpdateGoal)
			admin.DELETE("/goals/:id", goalHandler.DeleteGoal)
			admin.DELETE("/assignments/:id", goalHandler.RemoveAssignment)
		}
	}

	return &Server{
		engine:    router,
		db:        db,
		scheduler: scheduler,
	}
}

func (s *Server) Run(addr string) error {
	if err := s.scheduler.Start(); err != nil {
		log.Printf("⚠️ Failed to start background jobs: %v", err)
	}
	defer s.scheduler.Stop()

	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := []string{"http://localhost:3000"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
