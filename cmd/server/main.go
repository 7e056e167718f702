package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	server "github.com/abisalde/student-portal/cmd"
	"github.com/abisalde/student-portal/internal/configs"
	"github.com/abisalde/student-portal/internal/database"
	"github.com/abisalde/student-portal/internal/repository"
	"github.com/abisalde/student-portal/internal/seed"
	"github.com/abisalde/student-portal/internal/utils"
	"github.com/abisalde/student-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "student-portal",
		Short:         "Student portal API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the notification worker",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve()
			},
		},
		migrateCmd(),
		&cobra.Command{
			Use:   "seed",
			Short: "Insert demo students, profiles and bookings",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSeed(cmd.Context())
			},
		},
	)
	return root
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(_ *configs.Config, db *database.Database) error {
				switch args[0] {
				case "up":
					return db.Migrate()
				case "down":
					return db.MigrateDown()
				default:
					return fmt.Errorf("unknown migrate direction %q", args[0])
				}
			})
		},
	}
	return cmd
}

func withDatabase(fn func(cfg *configs.Config, db *database.Database) error) error {
	cfg, err := server.InitConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to initialize configuration: %w", err)
	}
	defer logger.Sync()

	cfg.DB.Migrate = false
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cfg, db)
}

func runSeed(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return withDatabase(func(cfg *configs.Config, db *database.Database) error {
		if err := db.Migrate(); err != nil {
			return err
		}

		seeder := seed.New(
			repository.NewAccountRepository(db.DB),
			repository.NewUserRepository(db.DB),
			repository.NewBookingRepository(db.DB),
			cfg.Location(),
		)
		created, err := seeder.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("🎉 Seed completed", zap.Int("created", created), zap.String("password", seed.DefaultPassword))
		return nil
	})
}

func serve() error {
	cfg, err := server.InitConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to initialize configuration: %w", err)
	}
	defer logger.Sync()

	db, redisCache, err := server.SetupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to setup database: %w", err)
	}
	defer db.Close()
	defer redisCache.Close()

	services, err := server.SetupServices(cfg, db, redisCache)
	if err != nil {
		return fmt.Errorf("❌ Failed to setup services: %w", err)
	}
	defer services.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services.StartWorkers(ctx)

	app := server.SetupFiberApp(services)
	listenAddr := utils.GetListenAddress(cfg.Server.Port, cfg.App.Env)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 Student portal listening",
			zap.String("addr", listenAddr),
			zap.String("env", cfg.App.Env),
		)
		errCh <- app.Listen(listenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
