// Package store: Postgres access for the search-trend history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"market-map/internal/config"
	"market-map/internal/logger"
	"market-map/internal/utils"

	sq "github.com/Masterminds/squirrel"
)

const TrendTable = "naver_local_trend"

// Store wraps the connection pool.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func AttachDB(db *sql.DB) *Store {
	return &Store{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Open: pool from config. The connection is verified lazily.
func Open(c config.Postgres) (*Store, error) {
	db, err := utils.OpenPostgres(c)
	if err != nil {
		return nil, err
	}
	return AttachDB(db), nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// TrendPoint: one day of search interest.
type TrendPoint struct {
	Date        time.Time `json:"date"`
	SearchIndex float64   `json:"search_index"`
}

// TrendSeries: history for one trend key, oldest first. No rows is an empty slice, not an error.
func (s *Store) TrendSeries(ctx context.Context, region string) ([]TrendPoint, error) {
	query, args, err := s.sb.
		Select("date", "search_index").
		From(TrendTable).
		Where(sq.Eq{"region": region}).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("trend series %q: %w", region, err)
	}
	defer rows.Close()

	out := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.SearchIndex); err != nil {
			return nil, fmt.Errorf("trend series %q: %w", region, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trend series %q: %w", region, err)
	}
	logger.L().Debug("db_trend_series", "region", region, "points", len(out))
	return out, nil
}

// Coverage: number of stored points per trend key.
type Coverage struct {
	Region string    `json:"region"`
	Points int       `json:"points"`
	Latest time.Time `json:"latest"`
}

// TrendCoverage lists stored keys with their point count and latest date.
func (s *Store) TrendCoverage(ctx context.Context) ([]Coverage, error) {
	query, args, err := s.sb.
		Select("region", "COUNT(1)", "MAX(date)").
		From(TrendTable).
		GroupBy("region").
		OrderBy("region").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("trend coverage: %w", err)
	}
	defer rows.Close()
	var out []Coverage
	for rows.Next() {
		var c Coverage
		if err := rows.Scan(&c.Region, &c.Points, &c.Latest); err != nil {
			return nil, fmt.Errorf("trend coverage: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertTrendSQL: statement used by batched imports; re-importing a day replaces its index.
func UpsertTrendSQL() string {
	query, _, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(TrendTable).
		Columns("region", "date", "search_index").
		Values(nil, nil, nil).
		Suffix("ON CONFLICT (region, date) DO UPDATE SET search_index = EXCLUDED.search_index").
		ToSql()
	if err != nil {
		panic(err)
	}
	return query
}
