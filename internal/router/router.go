package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/anonto42/wisora/internal/cache"
	"github.com/anonto42/wisora/internal/handlers"
	"github.com/anonto42/wisora/internal/middleware"
	"github.com/anonto42/wisora/internal/models"
	"github.com/anonto42/wisora/internal/repositories"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repositories groups the stores the handlers depend on
type Repositories struct {
	Users         repositories.UserRepository
	Questions     repositories.QuestionRepository
	Answers       repositories.AnswerRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Follows       repositories.FollowRepository
	Notifications repositories.NotificationRepository
}

// NewRepositories builds the PostgreSQL and MongoDB backed repositories
func NewRepositories(pgdb *gorm.DB, mgdb *mongo.Database) Repositories {
	return Repositories{
		Users:         repositories.NewPostgresUserRepository(pgdb),
		Questions:     repositories.NewMongoQuestionRepository(mgdb),
		Answers:       repositories.NewPostgresAnswerRepository(pgdb),
		Comments:      repositories.NewPostgresCommentRepository(pgdb),
		Likes:         repositories.NewPostgresLikeRepository(pgdb),
		Follows:       repositories.NewPostgresFollowRepository(pgdb),
		Notifications: repositories.NewPostgresNotificationRepository(pgdb),
	}
}

// Options carries everything SetupRoutes needs besides the repositories
type Options struct {
	JWTSecret string
	JWTTTL    time.Duration
	// Verifier is nil when Firebase is not configured.
	Verifier middleware.IDTokenVerifier
	Cache    cache.Cache
	Limiter  *middleware.RateLimiter
	Log      zerolog.Logger
}

// Migrate runs the PostgreSQL auto-migrations
func Migrate(pgdb *gorm.DB) error {
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Answer{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	return nil
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, opts Options) {
	e.Use(eMiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Log))
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	if opts.Limiter != nil {
		e.Use(opts.Limiter.Middleware())
	}
	opts.Log.Debug().Msg("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, repos Repositories, opts Options) {
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	log := opts.Log

	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "wisora api"})
	})

	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(repos.Users, opts.Verifier, opts.JWTSecret, opts.JWTTTL, log)
	authHandler.RegisterAuthRoutes(authGroup)

	var fallbacks []middleware.TokenAuthenticator
	if opts.Verifier != nil {
		fallbacks = append(fallbacks, middleware.FirebaseAuthenticator(opts.Verifier, repos.Users))
	}
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(opts.JWTSecret, fallbacks...))

	handlers.NewUserHandler(repos.Users, repos.Follows).RegisterProfileRoutes(api)
	handlers.NewFollowHandler(repos.Follows, repos.Users, repos.Notifications, log).RegisterFollowRoutes(api)
	handlers.NewLikeHandler(repos.Likes, repos.Questions, repos.Answers, repos.Comments, log).RegisterLikeRoutes(api)
	handlers.NewNotificationHandler(repos.Notifications, repos.Users, repos.Questions).RegisterNotificationRoutes(api)
	handlers.NewQuestionHandler(repos.Questions, repos.Answers, repos.Users, repos.Likes, repos.Follows, repos.Notifications, opts.Cache, log).RegisterQuestionRoutes(api)
	handlers.NewAnswerHandler(repos.Answers, repos.Questions, repos.Users, repos.Likes, repos.Notifications, opts.Cache, log).RegisterAnswerRoutes(api)
	handlers.NewCommentHandler(repos.Comments, repos.Answers, repos.Users, opts.Cache, log).RegisterCommentRoutes(api)

	log.Info().Int("routes", len(e.Routes())).Msg("routes configured")
}
