package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pollbox/config"
	"pollbox/internal/domain/poll"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBDriver: DriverSQLite, DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := Connect(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return db
}

func TestConnectUnsupportedDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"}, logger.NewNop())
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for _, st := range Status(db) {
		if !st.Exists {
			t.Errorf("table %q missing after migrate", st.Table)
		}
	}
}

func TestSingleChoiceIndex(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	voter := uuid.New()

	single := []poll.Vote{
		{PollID: 1, OptionID: 1, UserID: voter, SingleChoice: true},
		{PollID: 1, OptionID: 2, UserID: voter, SingleChoice: true},
	}
	if err := db.Create(&single[0]).Error; err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := db.Create(&single[1]).Error; err == nil {
		t.Fatal("second single-choice vote by the same voter was accepted")
	}

	multi := []poll.Vote{
		{PollID: 2, OptionID: 3, UserID: voter},
		{PollID: 2, OptionID: 4, UserID: voter},
	}
	if err := db.Create(&multi).Error; err != nil {
		t.Fatalf("multi-choice votes: %v", err)
	}
}

func TestReset(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := Reset(db); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for _, st := range Status(db) {
		if st.Exists {
			t.Errorf("table %q still exists after reset", st.Table)
		}
	}
}

func TestSeed(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	cfg := DefaultSeedConfig()

	res, err := Seed(context.Background(), db, cfg, nil)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(res.Polls) != len(demoPolls) || res.Votes != len(demoPolls)*cfg.Voters {
		t.Errorf("SeedResult = %d polls, %d votes", len(res.Polls), res.Votes)
	}

	again, err := Seed(context.Background(), db, cfg, nil)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if len(again.Polls) != 0 {
		t.Error("second Seed should skip")
	}
}

func TestGormLoggerSlowQuery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gl := NewGormLogger(&logger.Logger{Logger: zap.New(core)}, 10*time.Millisecond)
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), sql, nil)
	if logs.Len() != 0 {
		t.Fatalf("fast query logged at warn level: %v", logs.All())
	}

	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	if got := logs.FilterMessage("slow query").Len(); got != 1 {
		t.Errorf("slow query entries = %d, want 1", got)
	}

	gl.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), sql, errors.New("boom"))
	if got := logs.FilterMessage("query failed").Len(); got != 1 {
		t.Errorf("query failed entries = %d, want 1", got)
	}

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now().Add(-time.Second), sql, errors.New("boom"))
	if logs.Len() != 2 {
		t.Errorf("silent logger wrote entries: %d total", logs.Len())
	}
}
