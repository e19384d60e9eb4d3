package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketplace/internal/model"
)

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// models lists tables in dependency order.
var models = []interface{}{
	&model.User{},
	&model.Listing{},
	&model.Comment{},
	&model.Purchase{},
	&model.PurchaseLog{},
}

// Migrate creates or updates the schema. With reset, existing tables are dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	if reset {
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
