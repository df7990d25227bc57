// Package ingest: batched import of search-trend history into the trend store.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"market-map/internal/logger"
	"market-map/internal/region"
	"market-map/internal/store"
)

const DefaultBatch = 5000

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006.01.02", "20060102"}

// Stats: outcome of one import.
type Stats struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
	Batches int `json:"batches"`
}

// ParseDate accepts the common export layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

type batchTx struct {
	tx   *sql.Tx
	stmt *sql.Stmt
}

func begin(ctx context.Context, db *sql.DB) (*batchTx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, store.UpsertTrendSQL())
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return &batchTx{tx: tx, stmt: stmt}, nil
}

func (b *batchTx) commit() error {
	_ = b.stmt.Close()
	return b.tx.Commit()
}

func (b *batchTx) rollback() {
	_ = b.stmt.Close()
	_ = b.tx.Rollback()
}

// ImportTrendCSV reads region,date,search_index rows (header skipped) and upserts them,
// committing every batch rows. Unparseable rows are skipped and counted.
func ImportTrendCSV(ctx context.Context, db *sql.DB, r io.Reader, batch int) (Stats, error) {
	if batch <= 0 {
		batch = DefaultBatch
	}
	l := logger.L()
	var st Stats
	cr := region.NewCSVReader(r)
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		return st, fmt.Errorf("read header: %w", err)
	}

	b, err := begin(ctx, db)
	if err != nil {
		return st, err
	}
	pending := 0
	for {
		cols, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				st.Skipped++
				continue
			}
			b.rollback()
			return st, err
		}
		if len(cols) < 3 {
			st.Skipped++
			continue
		}
		key := strings.TrimSpace(cols[0])
		date, derr := ParseDate(cols[1])
		idx, ferr := strconv.ParseFloat(strings.TrimSpace(cols[2]), 64)
		if key == "" || derr != nil || ferr != nil {
			st.Skipped++
			continue
		}
		if _, err := b.stmt.ExecContext(ctx, key, date, idx); err != nil {
			b.rollback()
			return st, fmt.Errorf("upsert %s %s: %w", key, date.Format("2006-01-02"), err)
		}
		st.Rows++
		pending++
		if pending == batch {
			if err := b.commit(); err != nil {
				return st, err
			}
			st.Batches++
			pending = 0
			l.Info("ingest_progress", "rows", st.Rows)
			if b, err = begin(ctx, db); err != nil {
				return st, err
			}
		}
	}
	if err := b.commit(); err != nil {
		return st, err
	}
	if pending > 0 {
		st.Batches++
	}
	l.Info("ingest_done", "rows", st.Rows, "skipped", st.Skipped, "batches", st.Batches)
	return st, nil
}
