// Package testdb opens throwaway sqlite databases for package tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/gypsum_shop/internal/models"
)

func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// every new connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func SeedProduct(t *testing.T, db *gorm.DB, name, price string) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Description: name + " description",
		Unit:        "pcs",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}
