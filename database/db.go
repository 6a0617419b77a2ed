// Package database opens the SQLite database and migrates the filedock schema.
package database

import (
	"errors"
	"io/fs"
	"os"
	"path"

	"github.com/filedock/filedock/config"
	"github.com/filedock/filedock/database/model"
	"github.com/filedock/filedock/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.SystemUpdate{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logger.Errorf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// checkUsers warns when nobody can log in yet. Users are created from the CLI.
func checkUsers(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		logger.Warningf("no users exist yet, create one with `%s user add`", config.GetName())
	}
	return nil
}

// InitDB opens (creating if needed) the database at dbPath and migrates it.
func InitDB(dbPath string) (*gorm.DB, error) {
	dir := path.Dir(dbPath)
	if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
		return nil, err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}

	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA cache_size = -64000;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, err
		}
	}

	if err := initModels(db); err != nil {
		return nil, err
	}
	if err := checkUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

// CloseDB checkpoints the WAL and closes the connection pool.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := Checkpoint(db); err != nil {
		logger.Warning("error executing checkpoint:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Checkpoint flushes the WAL into the main database file.
func Checkpoint(db *gorm.DB) error {
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
