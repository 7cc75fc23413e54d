package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(dsn string) {
	var err error

	// Hosted Postgres poolers reject server-side prepared statements.
	pgConfig := postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}

	// Multi-row writes open their own transactions.
	gormConfig := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Error),
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
	}

	DB, err = gorm.Open(postgres.New(pgConfig), gormConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Database connected successfully!")
}

func GetDB() *gorm.DB {
	return DB
}

func MigrateDatabase(models ...interface{}) error {
	for _, model := range models {
		if !DB.Migrator().HasTable(model) {
			if err := DB.Migrator().CreateTable(model); err != nil {
				return err
			}
			log.Printf("Created table for %T\n", model)
		} else {
			if err := DB.Migrator().AutoMigrate(model); err != nil {
				return err
			}
			log.Printf("Updated table for %T\n", model)
		}
	}
	return nil
}

// constraints GORM tags cannot express.
var constraints = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscription_packages_single_popular
		ON subscription_packages (is_popular) WHERE is_popular AND deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_products_listed
		ON products (status, expires_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_user_bans_window
		ON user_bans (profile_id, start_date, end_date)`,
}

func EnsureConstraints() error {
	for _, stmt := range constraints {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}
	return nil
}
