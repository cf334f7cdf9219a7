package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/guardiaspro/api-estructuras/internal/config"
)

// ConnectDataBase abre la conexión gorm; el logger de gorm escribe por logrus.
func ConnectDataBase(ctx context.Context, opts config.DatabaseOptions, log *logrus.Logger) (*gorm.DB, error) {
	username, password, err := retrieveCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	var sslMode string
	if opts.SSLModeDisable {
		sslMode = " sslmode=disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s",
		opts.Host, username, password, opts.Name, opts.Port, sslMode)

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("conectar postgres %s:%d: %w", opts.Host, opts.Port, err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return database, nil
}
