package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"market-map/internal/dataset"
	"market-map/internal/region"
)

// ImportTrendSource opens loc (path or URL), decodes it and runs ImportTrendCSV.
func ImportTrendSource(ctx context.Context, db *sql.DB, loc, encoding string, batch int) (Stats, error) {
	rc, err := dataset.Open(ctx, loc)
	if err != nil {
		return Stats{}, fmt.Errorf("trend source: %w", err)
	}
	defer rc.Close()
	r, err := region.Decode(rc, encoding)
	if err != nil {
		return Stats{}, fmt.Errorf("trend source: %w", err)
	}
	return ImportTrendCSV(ctx, db, r, batch)
}
