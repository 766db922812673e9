package db

import (
	"fmt"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// World + players
		&types.World{},
		&types.Player{},

		// Teachers
		&types.Teacher{},

		// Voice
		&types.AICharacter{},
		&types.VapiCall{},
	)
}

// EnsureTeacherIndexes backs the topic uniqueness and placement lookups.
// Works on postgres and sqlite.
func EnsureTeacherIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_teacher_topic_lower
		ON teacher(lower(topic));
	`).Error; err != nil {
		return fmt.Errorf("create idx_teacher_topic_lower: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_teacher_xy ON teacher(x, y);`).Error; err != nil {
		return fmt.Errorf("create idx_teacher_xy: %w", err)
	}
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureTeacherIndexes(db)
}
