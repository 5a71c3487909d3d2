package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openDB(cfg Config) (*gorm.DB, error) {
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN")
	}
	level := gormlogger.Warn
	if cfg.LogLevel <= slog.LevelDebug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// migrate creates the schema. Roles go first so the users FK applies.
func migrate(db *gorm.DB) error {
	steps := []struct {
		table string
		model any
	}{
		{"roles", &models.Role{}},
		{"users", &models.User{}},
		{"refresh_tokens", &models.RefreshToken{}},
		{"fornecedores", &models.Fornecedor{}},
		{"tickets", &models.Ticket{}},
		{"compras", &models.Compra{}},
		{"pagamentos", &models.Pagamento{}},
	}
	for _, s := range steps {
		if err := db.AutoMigrate(s.model); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

// prepareDB opens the database, migrates when enabled and seeds roles and
// the admin user.
func prepareDB(ctx context.Context, cfg Config, log *slog.Logger, forceMigrate bool) (*gorm.DB, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate || forceMigrate {
		if err := migrate(db); err != nil {
			return nil, err
		}
	}
	users := services.New(db, nil, log, 0).Users
	if err := users.Seed(ctx, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return db, nil
}
