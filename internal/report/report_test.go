package report

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"market-map/internal/dataset"
	"market-map/internal/persona"
	"market-map/internal/region"
	"market-map/internal/trend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixture(t *testing.T) *dataset.Snapshot {
	t.Helper()
	idx, skips, err := persona.Parse(strings.NewReader("r,a,g,t,c,avg\n강원,40,M,1,1,25000\n서울,30,X,1,1,1\n"), persona.LastRow)
	require.NoError(t, err)
	return &dataset.Snapshot{
		Regions: region.NewSet([]region.Region{
			{Name: "강원특별자치도 춘천시", Lat: 37.88, Lng: 127.73, Visitor: 1200000, Restaurant: 3100, Quadrant: region.Opportunity, Sido: "강원"},
			{Name: "서울특별시 강남구", Lat: 37.50, Lng: 127.04, Visitor: 36000000, Restaurant: 21000, Quadrant: region.Saturated, Sido: "서울"},
		}),
		Personas:     idx,
		PersonaSkips: skips,
		Diagnostics:  []region.Diagnostic{{Source: region.SourceMaster, Line: 4, Reason: region.ReasonMalformedRow, Detail: "lat"}},
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, WriteWorkbook(path, fixture(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRegions, SheetPersonas, SheetDiagnostics}, f.GetSheetList())

	rows, err := f.GetRows(SheetRegions)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, "강원특별자치도 춘천시", rows[1][0])
	assert.Equal(t, "120만 명", rows[1][5])

	rows, err = f.GetRows(SheetPersonas)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "남성", rows[1][2])
	assert.Equal(t, "25,000원", rows[1][4])

	rows, err = f.GetRows(SheetDiagnostics)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"master", "4", "malformed_row", "lat"}, rows[1])
	assert.Equal(t, "persona", rows[2][0])
	assert.Equal(t, "unknown_gender", rows[2][2])
}

func TestWorkbook_NilSnapshot(t *testing.T) {
	_, err := Workbook(nil)
	assert.Error(t, err)
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xF3, G: 0x70, B: 0x21, A: 0xff}, hexColor("#F37021"))
	assert.Equal(t, color.RGBA{R: 0x63, G: 0x6e, B: 0x72, A: 0xff}, hexColor("orange"))
}

func TestSaveCharts(t *testing.T) {
	dir := t.TempDir()
	snap := fixture(t)

	scatter := filepath.Join(dir, "scatter.png")
	require.NoError(t, SaveScatter(scatter, snap.Regions, "강원특별자치도 춘천시"))
	st, err := os.Stat(scatter)
	require.NoError(t, err)
	assert.Positive(t, st.Size())

	line := filepath.Join(dir, "trend.svg")
	require.NoError(t, SaveTrend(line, trend.Shape(trend.National, trend.National, nil)))
	st, err = os.Stat(line)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}
