package leaveflow

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops-hq/leaveflow/internal/config"
	"github.com/fieldops-hq/leaveflow/internal/controllers"
	"github.com/fieldops-hq/leaveflow/internal/engine"
	"github.com/fieldops-hq/leaveflow/internal/migrations"
	"github.com/fieldops-hq/leaveflow/internal/repository"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/core"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lmittmann/tint"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Start boots the approval engine and HTTP server.
// This call blocks until the HTTP server stops.
func Start(mux *http.ServeMux) error {

	databaseType := config.GetSystemSettingString(config.DATABASE_TYPE)
	if databaseType == "" || (databaseType != config.DATABASE_TYPE_POSTGRES && databaseType != config.DATABASE_TYPE_MYSQL && databaseType != config.DATABASE_TYPE_SQLLITE) {
		panic("LFLOW_DATABASE_TYPE must be set to one of the following values: POSTGRES, MYSQL, SQLLITE")
	}

	var db *sql.DB
	if databaseType == config.DATABASE_TYPE_POSTGRES {
		db = setupPostgresDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_SQLLITE {
		db = setupSqlLiteDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_MYSQL {
		db = setupMysqlDatabase()
		defer db.Close()
	}

	clock := core.NewRealClock()
	requestRepo := repository.NewRequestRepository(db)
	actionRepo := repository.NewRequestActionRepository(db)
	userRepo := repository.NewUserRepository(db, clock)

	seedAdminUser(userRepo)

	notifier := engine.NewNotifier(config.GetSystemSettingInteger(config.WATCH_CHANNEL_BUFFER))
	workflowEngine := engine.NewWorkflowEngine(requestRepo, actionRepo, notifier, clock)

	pollInterval, _ := time.ParseDuration(config.GetSystemSettingString(config.WATCH_POLL_INTERVAL))
	go workflowEngine.StartWatcher(context.Background(), pollInterval)

	if mux == nil {
		mux = http.NewServeMux()
	}
	authController := controllers.NewAuthController(userRepo)
	authController.RegisterRoutes(mux)
	vacationsController := controllers.NewVacationsController(workflowEngine, userRepo)
	vacationsController.RegisterRoutes(mux)
	actionsController := controllers.NewActionsController(workflowEngine, userRepo)
	actionsController.RegisterRoutes(mux)
	usersController := controllers.NewUsersController(userRepo)
	usersController.RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.SERVER_WEB_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("HTTP server failed", "error", err)
		return err
	}
	return nil
}

// seedAdminUser creates a default admin when the users table is empty so a
// fresh install has a way to mint accounts. The generated password is
// logged once; it should be rotated immediately.
func seedAdminUser(userRepo *repository.UserRepository) {
	users, err := userRepo.FindAll()
	if err != nil {
		slog.Error("Failed to check for existing users", "error", err)
		return
	}
	if users != nil && len(*users) > 0 {
		return
	}

	password := uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash seed admin password", "error", err)
		return
	}
	admin := &domain.User{
		Username: "admin",
		Password: string(hashed),
		FullName: "Administrator",
		Role:     domain.RoleAdmin,
		Enabled:  sql.NullBool{Bool: true, Valid: true},
	}
	if _, err := userRepo.Save(admin); err != nil {
		slog.Error("Failed to seed admin user", "error", err)
		return
	}
	slog.Warn("Seeded default admin user", "username", "admin", "password", password)
}

func setupPostgresDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("LFLOW_DATABASE_URL must be set when using the POSTGRES database type")
	}
	slog.Info("Using Postgres database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening Postgres database")
	dbPostgres, err := sql.Open("postgres", dbURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbPostgres
}

func setupSqlLiteDatabase() *sql.DB {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLLITE_FILE_NAME)
	if fileName == "" {
		panic("LFLOW_DATABASE_SQLLITE_FILE_NAME must be set")
	}
	dbURL := "sqlite3://" + fileName
	slog.Info("Using SQLite database", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqllite3", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening SQLite database")
	dbSqlLite, err := sql.Open("sqlite3", fileName)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	if err := dbSqlLite.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite DB: %v", err)
	}
	return dbSqlLite
}

func setupMysqlDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("LFLOW_DATABASE_URL must be set when using the MYSQL database type")
	}
	// panic if url does not contain ?parseTime=true
	if !strings.Contains(dbURL, "parseTime=true") {
		panic("LFLOW_DATABASE_URL must contain 'parseTime=true' for MySQL")
	}
	// panic if url does not start with mysql://
	if !strings.HasPrefix(dbURL, "mysql://") {
		panic("LFLOW_DATABASE_URL must start with 'mysql://' for MySQL")
	}

	slog.Info("Using MySQL database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening MySQL database")
	dbMysql, err := sql.Open("mysql", strings.Replace(dbURL, "mysql://", "", 1))
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbMysql
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func SetupLogger() {
	w := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
