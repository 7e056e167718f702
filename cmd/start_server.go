package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/abisalde/student-portal/internal/appstate"
	"github.com/abisalde/student-portal/internal/auth/cookies"
	authhttp "github.com/abisalde/student-portal/internal/auth/handler/http"
	"github.com/abisalde/student-portal/internal/auth/service"
	"github.com/abisalde/student-portal/internal/configs"
	"github.com/abisalde/student-portal/internal/contact"
	"github.com/abisalde/student-portal/internal/database"
	"github.com/abisalde/student-portal/internal/guard"
	"github.com/abisalde/student-portal/internal/identity"
	"github.com/abisalde/student-portal/internal/middleware"
	"github.com/abisalde/student-portal/internal/mocktest"
	"github.com/abisalde/student-portal/internal/profile"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/utils/validator"
	"github.com/abisalde/student-portal/internal/worker"
	"github.com/abisalde/student-portal/pkg/config"
	"github.com/abisalde/student-portal/pkg/jwt"
	"github.com/abisalde/student-portal/pkg/logger"
	"github.com/abisalde/student-portal/pkg/mail"
	"github.com/abisalde/student-portal/pkg/scheduler"
	"github.com/abisalde/student-portal/pkg/verification"
	"github.com/abisalde/student-portal/pkg/whatsapp"
)

// InitConfig loads .env, the YAML config for APP_ENV and the global logger.
func InitConfig() (*configs.Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := configs.Load(os.Getenv("APP_ENV"))
	if err != nil {
		return nil, err
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	if err := logger.InitLogger(&cfg.Logging, cfg.App.Env); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := ApplySecrets(context.Background(), cfg, config.DefaultSecretProvider()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplySecrets fills credentials the YAML left empty from the secret provider.
func ApplySecrets(ctx context.Context, cfg *configs.Config, provider config.SecretProvider) error {
	targets := map[string]*string{
		"JWT_SECRET":            &cfg.JWT.Secret,
		"REDIS_PASSWORD":        &cfg.Redis.Password,
		"SMTP_PASSWORD":         &cfg.Mail.SMTPPassword,
		"RESEND_API_KEY":        &cfg.Mail.ResendAPIKey,
		"SENDGRID_API_KEY":      &cfg.Mail.SendgridAPIKey,
		"WHATSAPP_ACCESS_TOKEN": &cfg.Messaging.AccessToken,
	}

	for key, dst := range targets {
		if *dst != "" {
			continue
		}
		value, err := config.Lookup(ctx, provider, key)
		if err != nil {
			return fmt.Errorf("load secret %s: %w", key, err)
		}
		*dst = value
	}
	return nil
}

func SetupDatabase(cfg *configs.Config) (*database.Database, *database.RedisCache, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, redisErr := database.InitRedis(ctxWithTimeout, cfg)
	if redisErr != nil {
		db.Close()
		return nil, nil, redisErr
	}

	return db, redisCache, nil
}

// Services is everything the HTTP layer and the background workers need.
type Services struct {
	Config    *configs.Config
	DB        *database.Database
	Redis     *database.RedisCache
	State     *appstate.Store
	Provider  *identity.Provider
	Auth      *service.AuthService
	Checker   *guard.CompletenessChecker
	Guard     *guard.Guard
	Profile   *profile.Service
	MockTests *mocktest.Manager
	Contact   *contact.Service
	Validator *validator.Validator
	Worker    *worker.NotificationWorker

	unsubscribe []func()
}

func newMessenger(cfg *configs.Config) whatsapp.Messenger {
	if cfg.Messaging.Provider == "cloud" {
		return whatsapp.NewCloudClient(cfg.Messaging.APIURL, cfg.Messaging.PhoneNumberID, cfg.Messaging.AccessToken, cfg.App.Name)
	}
	return whatsapp.LogMessenger{AppName: cfg.App.Name}
}

func SetupServices(cfg *configs.Config, db *database.Database, redisCache *database.RedisCache) (*Services, error) {
	rdb := redisCache.RawClient()

	tokens, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return nil, err
	}
	hasher, err := verification.NewHasher(cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	accounts := repository.NewAccountRepository(db.DB)
	users := repository.NewUserRepository(db.DB)
	bookings := repository.NewBookingRepository(db.DB)
	messages := repository.NewContactRepository(db.DB)

	provider := identity.NewProvider(cfg, identity.Deps{
		Accounts: accounts,
		Codes:    verification.NewActionCodes(rdb),
		Limiter:  identity.NewRedisAttemptLimiter(rdb, cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutWindow),
		Cache:    redisCache,
		Tokens:   tokens,
		Hasher:   hasher,
		Mailer:   mail.NewMailerService(cfg),
	})

	messenger := newMessenger(cfg)
	var notifier service.Notifier = worker.NewDirectNotifier(messenger)
	var notificationWorker *worker.NotificationWorker
	if cfg.Messaging.Async {
		notifier = worker.NewStreamNotifier(rdb)
		notificationWorker = worker.NewNotificationWorker(rdb, messenger)
	}

	state := appstate.NewStore()
	authService := service.NewAuthService(cfg, provider, users, state, notifier)

	checker, err := guard.NewCompletenessChecker(users, cfg.Cache.MaxCost, cfg.Cache.ProfileTTL)
	if err != nil {
		return nil, err
	}

	catalog, err := mocktest.DefaultCatalog()
	if err != nil {
		checker.Close()
		return nil, err
	}
	manager := mocktest.NewManager(catalog, scheduler.New(), mocktest.Options{
		Duration:       cfg.MockTest.Duration,
		WarningDisplay: cfg.MockTest.WarningDisplay,
		Retention:      cfg.MockTest.Retention,
		MaxPerUser:     cfg.MockTest.MaxPerUser,
	})

	validate := validator.New()

	s := &Services{
		Config:    cfg,
		DB:        db,
		Redis:     redisCache,
		State:     state,
		Provider:  provider,
		Auth:      authService,
		Checker:   checker,
		Guard:     guard.New(state, authService, checker),
		Profile:   profile.NewService(users, bookings, validate, checker, cfg.Location()),
		MockTests: manager,
		Contact:   contact.NewService(messages, validate),
		Validator: validate,
		Worker:    notificationWorker,
	}
	s.unsubscribe = append(s.unsubscribe, checker.Watch(state), manager.Watch(state))
	return s, nil
}

// StartWorkers runs the notification consumer until ctx is done.
func (s *Services) StartWorkers(ctx context.Context) {
	if s.Worker == nil {
		return
	}
	go s.Worker.Start(ctx)
}

func (s *Services) Close() {
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.MockTests.Shutdown()
	s.Checker.Close()
}

func SetupFiberApp(s *Services) *fiber.App {
	cfg := s.Config
	trustedDockerNetworkCIDR := "172.18.0.0/16"

	app := fiber.New(fiber.Config{
		AppName:                 cfg.App.Name,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		CaseSensitive:           true,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{trustedDockerNetworkCIDR},
		ErrorHandler:            middleware.ErrorHandler,
	})

	app.Use(func(c *fiber.Ctx) error {
		if c.UserContext() == nil {
			c.SetUserContext(context.Background())
		}
		return c.Next()
	})

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${ip}]:${port} ${status} - ${method} ${path}\n",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.Origin,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.Headers)

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := s.DB.HealthCheck(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("UNHEALTHY")
		}
		return c.SendString("OK")
	})

	app.Use(middleware.FiberWebMiddleware)
	app.Use(middleware.Authenticate(s.Provider))

	api := app.Group("/api")

	security := middleware.NewSecurityMiddleware(middleware.DefaultSecurityConfig(), s.Redis.RawClient())
	authHandler := authhttp.NewAuthHandler(s.Auth, s.Validator, cookies.Options{
		Production: cfg.IsProduction(),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	authHandler.RegisterRoutes(api.Group("/auth", security.Handler()), middleware.RequireAuth)

	guard.NewHandler(s.Guard).RegisterRoutes(api.Group("/navigation"))

	profileHandler := profile.NewHandler(s.Profile)
	profileHandler.RegisterProfileRoutes(api.Group("/profile", s.Guard.Require("/profile")))
	profileHandler.RegisterBookingRoutes(api.Group("/bookings", s.Guard.Require("/booking")))
	profileHandler.RegisterMentorshipRoutes(api.Group("/mentorship", s.Guard.Require("/booking")))
	profileHandler.RegisterAppointmentRoutes(api.Group("/appointments", s.Guard.Require("/appointments")))

	mocktest.NewHandler(s.MockTests, s.Validator).RegisterRoutes(api.Group("/aptitude", s.Guard.Require("/aptitude")))

	contact.NewHandler(s.Contact).RegisterRoutes(api.Group("/contact"))

	app.Use(func(c *fiber.Ctx) error {
		logger.Debug("no route", zap.String("path", c.Path()))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "NOT_FOUND",
			"message": "service rules for the path non-existent",
		})
	})

	return app
}
