package database

import (
	"fmt"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/profile"

	"gorm.io/gorm"
)

// singleChoiceIndex lets a voter hold at most one vote on a single-choice poll.
// Both PostgreSQL and SQLite support partial indexes with this syntax.
const singleChoiceIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_single_choice ON votes (poll_id, user_id) WHERE single_choice`

// Models lists every table owned by the service, in creation order.
func Models() []interface{} {
	return []interface{}{
		&poll.Poll{},
		&poll.Option{},
		&poll.Vote{},
		&profile.Profile{},
	}
}

// Migrate creates or updates every table and index. It is idempotent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	if err := db.Exec(singleChoiceIndex).Error; err != nil {
		return fmt.Errorf("failed to create single choice index: %w", err)
	}
	return nil
}

// TableStatus reports whether a table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

func Status(db *gorm.DB) []TableStatus {
	models := Models()
	out := make([]TableStatus, 0, len(models))
	for _, m := range models {
		stmt := &gorm.Statement{DB: db}
		name := ""
		if err := stmt.Parse(m); err == nil {
			name = stmt.Schema.Table
		}
		out = append(out, TableStatus{Table: name, Exists: db.Migrator().HasTable(m)})
	}
	return out
}

// Reset drops every table in reverse creation order.
func Reset(db *gorm.DB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
