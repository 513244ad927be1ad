package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueViolation recognizes unique violations from every supported driver,
// whether or not the dialector translated them.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type countRow struct {
	PollID int64
	N      int64
}

// countByPoll groups rows of model by poll_id.
func countByPoll(ctx context.Context, db *gorm.DB, model interface{}, pollIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(pollIDs))
	if len(pollIDs) == 0 {
		return out, nil
	}

	var rows []countRow
	err := db.WithContext(ctx).
		Model(model).
		Select("poll_id, COUNT(*) AS n").
		Where("poll_id IN ?", pollIDs).
		Group("poll_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PollID] = r.N
	}
	return out, nil
}
