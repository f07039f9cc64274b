package database

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KMohir/ProyektSXF/models"
)

// backupArgs splits DB_BACKUP_FLAGS into individual argv elements; a single
// string would reach mysqldump as one unparseable argument.
func backupArgs() []string {
	return strings.Fields(os.Getenv("DB_BACKUP_FLAGS"))
}

// BackupDatabase creates a SQL dump with mysqldump if it is on PATH, writing
// to outPath. Dump flags come from DB_BACKUP_FLAGS.
func BackupDatabase(outPath string) error {
	if _, err := exec.LookPath("mysqldump"); err != nil {
		return fmt.Errorf("mysqldump not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(context.Background(), "mysqldump", backupArgs()...)
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	cmd.Stdout = outFile
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump failed: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrate for the bot schema, with a best-effort backup first
// when DB_BACKUP_PATH is set.
func Migrate(db *gorm.DB) error {
	if backupPath := os.Getenv("DB_BACKUP_PATH"); backupPath != "" {
		go func() {
			_ = BackupDatabase(backupPath)
		}()
		// allow a small window for the backup to start
		time.Sleep(500 * time.Millisecond)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.TaskRequest{},
		&models.ActionLog{},
	)
}
