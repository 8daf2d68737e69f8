package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"timebank-go/pkg/logger"
)

const migrationsLockKey = "timebank.schema_migrations"

// Migrate applies the *.sql files of dir in lexical order. Each file runs in
// its own transaction together with its schema_migrations record. A relative
// dir is searched for upward from the working directory.
func Migrate(db *gorm.DB, dir string, log logger.Logger) ([]string, error) {
	path, err := resolveMigrationsDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("db.migrate: migrations directory not found", "dir", dir)
			return nil, nil
		}
		return nil, err
	}

	if err := ensureSchemaMigrations(db); err != nil {
		return nil, err
	}

	files, err := listMigrationFiles(path)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range files {
		contents, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return applied, err
		}
		sql := strings.TrimSpace(string(contents))
		if sql == "" {
			continue
		}

		ran := false
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", migrationsLockKey).Error; err != nil {
				return err
			}
			done, err := isMigrationApplied(tx, name)
			if err != nil || done {
				return err
			}
			if err := tx.Exec(sql).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			ran = true
			return recordMigration(tx, name)
		})
		if err != nil {
			return applied, err
		}
		if ran {
			log.Info("db.migrate: applied", "file", name)
			applied = append(applied, name)
		}
	}

	return applied, nil
}

func listMigrationFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func ensureSchemaMigrations(db *gorm.DB) error {
	return db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`).Error
}

func isMigrationApplied(db *gorm.DB, name string) (bool, error) {
	var count int64
	if err := db.Raw("SELECT COUNT(1) FROM schema_migrations WHERE filename = ?", name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *gorm.DB, name string) error {
	return db.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
}

func resolveMigrationsDir(dir string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	if filepath.IsAbs(dir) {
		info, err := os.Stat(dir)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", os.ErrNotExist
		}
		return dir, nil
	}

	current, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(current, dir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", os.ErrNotExist
}
