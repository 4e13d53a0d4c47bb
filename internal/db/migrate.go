package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amos-netizen/MotoTrack/internal/auth"
	"github.com/amos-netizen/MotoTrack/internal/models"
)

// AllModels is the AutoMigrate list shared with tests.
var AllModels = []any{
	&models.Garage{}, &models.User{}, &models.Vehicle{},
	&models.Job{}, &models.TaskAction{}, &models.JobTaskAction{},
	&models.WarehouseItem{}, &models.SparePartRequest{},
	&models.Invoice{}, &models.InvoiceItem{},
	&models.Appointment{}, &models.Reminder{}, &models.ServiceHistory{},
}

// ConnectAndMigrate opens the configured database and brings the schema
// up to date. Postgres DSNs get a retry loop (container startup); a
// sqlite path (file: or *.db) is accepted for local development.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if sqliteDSN(dsn) {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	} else {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			fmt.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	fmt.Println("[DB] Using DSN:", masked)

	// MIGRATIONS=1 runs sql migrations via golang-migrate; the default is
	// the AutoMigrate fallback (dev convenience).
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range AllModels {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"garages", "users", "jobs", "spare_part_requests", "invoices"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if err := SeedDefaultGarage(db); err != nil {
		return nil, err
	}
	if err := SeedAdminUser(db, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedDefaultGarage ensures the "Main" garage exists so signup can default
// new staff into it.
func SeedDefaultGarage(db *gorm.DB) error {
	var g models.Garage
	err := db.Where("name = ?", "Main").First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.Garage{Name: "Main", Address: "Main Location"}).Error
	}
	return err
}

// SeedAdminUser provisions the bootstrap admin account from the
// environment. Public signup only creates technicians and staff
// provisioning needs an admin, so a fresh database gets its first admin
// here. A no-op when the credentials are unset or the email is taken.
func SeedAdminUser(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	var garage models.Garage
	if err := db.Order("id asc").First(&garage).Error; err != nil {
		return err
	}
	return db.Create(&models.User{
		Email:    email,
		Password: hash,
		FullName: "Administrator",
		Role:     models.RoleAdmin,
		GarageID: garage.ID,
	}).Error
}

func sqliteDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "file:") || strings.HasSuffix(lower, ".db") || lower == ":memory:"
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", ToURLDSN(dsn))
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
