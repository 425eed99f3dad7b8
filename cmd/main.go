package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/otcboard/otcboard-server/cmd/api"
	"github.com/otcboard/otcboard-server/cmd/config"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/db"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// A missing .env is fine in containerized deployments.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := buildLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations(cfg)
			return
		case "clear-db":
			runDatabaseClear(cfg)
			return
		case "create-admin":
			runCreateAdmin(cfg)
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer(cfg)
}

func buildLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.App.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Logger initialization error: %v", err)
	}
	return logger
}

func runMigrations(cfg *config.Config) {
	DB, err := db.NewPSQLStorage(cfg)
	if err != nil {
		zap.L().Fatal("database initialization error", zap.Error(err))
	}
	defer closeDB(DB)
	zap.L().Info("connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		zap.L().Fatal("migration error", zap.Error(err))
	}
	zap.L().Info("migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {
	migrations := map[interface{}]string{
		&models.Emitter{}:       "Emitter",
		&models.Admin{}:         "Admin",
		&models.FinancialData{}: "FinancialData",
		&models.Analytics{}:     "Analytics",
		&models.Payment{}:       "Payment",
		&models.Subscription{}:  "Subscription",
		&models.Investor{}:      "Investor",
	}

	zap.L().Info("starting database migrations")
	for model, name := range migrations {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", name, err)
		}
		zap.L().Info("migration successful", zap.String("table", name))
	}
	return nil
}

func startServer(cfg *config.Config) {
	DB, err := db.NewPSQLStorage(cfg)
	if err != nil {
		zap.L().Fatal("database initialization error", zap.Error(err))
	}
	defer closeDB(DB)
	zap.L().Info("connected to the database")

	// The screener works without Redis, just slower.
	rdb, err := db.NewRedisClient(cfg)
	if err != nil {
		zap.L().Warn("redis unavailable, screener cache disabled", zap.Error(err))
		rdb = nil
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	server := api.NewApiServer(":"+cfg.Server.Port, DB, rdb, cfg)

	go func() {
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zap.L().Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}
}

func runCreateAdmin(cfg *config.Config) {
	DB, err := db.NewPSQLStorage(cfg)
	if err != nil {
		zap.L().Fatal("database initialization error", zap.Error(err))
	}
	defer closeDB(DB)

	var username, email, password string
	fmt.Print("Admin username: ")
	fmt.Scanln(&username)
	fmt.Print("Admin email (optional): ")
	fmt.Scanln(&email)
	fmt.Print("Admin password: ")
	fmt.Scanln(&password)

	if username == "" || len(password) < 8 {
		log.Fatal("Username is required and password must contain at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Fatal("error hashing password", zap.Error(err))
	}

	admin := models.Admin{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if email != "" {
		admin.Email = &email
	}

	if err := DB.Create(&admin).Error; err != nil {
		zap.L().Fatal("error creating admin", zap.Error(err))
	}
	zap.L().Info("admin created", zap.String("username", username))
}

func runDatabaseClear(cfg *config.Config) {
	DB, err := db.NewPSQLStorage(cfg)
	if err != nil {
		zap.L().Fatal("database initialization error", zap.Error(err))
	}
	defer closeDB(DB)

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		zap.L().Info("database clearing cancelled")
		return
	}

	tables := []interface{}{
		&models.Subscription{},
		&models.Payment{},
		&models.Analytics{},
		&models.FinancialData{},
		&models.Investor{},
		&models.Admin{},
		&models.Emitter{},
	}

	for _, table := range tables {
		if err := DB.Migrator().DropTable(table); err != nil {
			zap.L().Warn("error dropping table", zap.Error(err))
		}
	}
	zap.L().Info("database cleared successfully")
}

func closeDB(DB *gorm.DB) {
	sqlDB, _ := DB.DB()
	sqlDB.Close()
	zap.L().Info("database connection closed")
}
