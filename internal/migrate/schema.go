// Package migrate: trend store schema bootstrap.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"market-map/internal/logger"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS naver_local_trend (
            region TEXT NOT NULL,
            date DATE NOT NULL,
            search_index DOUBLE PRECISION NOT NULL,
            PRIMARY KEY (region, date)
        )`,
	`CREATE INDEX IF NOT EXISTS idx_trend_date ON naver_local_trend(date)`,
}

// EnsureSchema: idempotent; safe on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
