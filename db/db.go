package db

import (
	"fmt"

	"uptimeguard/model"
	"uptimeguard/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the sqlite database at dbPath and migrates it to the
// current schema. It does not start the retention cleaner; build one
// with NewCleaner and call its Start once the repository is wired up.
func Init(dbPath string) (Repository, error) {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	err = DB.AutoMigrate(
		&model.Monitor{},
		&model.MonitorGroup{},
		&model.MonitorStatus{},
		&model.NotificationChannel{},
		&model.NotificationBinding{},
		&model.StatusPage{},
		&model.StatusPageMonitor{},
		&model.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database ready", zap.String("path", dbPath))
	return NewRepository(DB), nil
}

func Close() {
	logger.Info("closing database")
	sqlDB, err := DB.DB()
	if err == nil {
		sqlDB.Close()
	}
}
