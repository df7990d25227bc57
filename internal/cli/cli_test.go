package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"market-map/internal/region"
	"market-map/internal/simulator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	supplyCSV = "region,visitor,restaurant,quadrant\n" +
		"강원특별자치도 춘천시,36000000,50,기회지역\n" +
		"서울특별시 강남구,12000000,900,경쟁포화지역\n" +
		"bad\n"
	masterCSV = "id,lat,lng,sido_full,sido_abbr,sig_name,naver_region,sigun\n" +
		"1,37.88,127.73,강원특별자치도,강원,춘천시,,\n" +
		"2,37.50,127.04,서울특별시,서울,강남구,,\n"
	personaCSV = "지역,연령,성별,소비금액합계,결제건수합계,평균결제금액\n" +
		"강원,40,M,1.9E+12,65861083,30000\n"
)

func sourceFlags(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	return []string{
		"--supply", write("supply.csv", supplyCSV),
		"--master", write("master.csv", masterCSV),
		"--persona", write("persona.csv", personaCSV),
		"--master-encoding", "utf-8",
		"--log-level", "error",
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, n := range []string{"regions", "provinces", "inspect", "simulate", "diagnostics", "export", "chart", "coverage"} {
		assert.True(t, names[n], n)
	}
	for _, f := range []string{"supply", "master", "persona", "output", "log-level", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(f), f)
	}
}

func TestRegions_JSONWithFilter(t *testing.T) {
	args := append([]string{"regions", "-o", "json", "--filter", string(region.Opportunity)}, sourceFlags(t)...)
	out, err := run(t, args...)
	require.NoError(t, err)

	var list []region.Region
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "강원특별자치도 춘천시", list[0].Name)

	args = append([]string{"regions", "-o", "json", "--filter", string(region.Opportunity), "--selected", "서울특별시 강남구"}, sourceFlags(t)...)
	out, err = run(t, args...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 2)
}

func TestRegions_UnknownFilter(t *testing.T) {
	_, err := run(t, append([]string{"regions", "--filter", "nope"}, sourceFlags(t)...)...)
	assert.Error(t, err)
}

func TestProvinces(t *testing.T) {
	out, err := run(t, append([]string{"provinces"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	assert.Equal(t, "강원\n서울\n", out)

	out, err = run(t, append([]string{"provinces", "서울"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "강남구")
	assert.Contains(t, out, "서울특별시 강남구")
}

func TestInspect_Text(t *testing.T) {
	out, err := run(t, append([]string{"inspect", "강원특별자치도 춘천시", "--size", "20", "--rate", "0.5"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "40대 남성")
	assert.Contains(t, out, "3,600만 명")
	assert.Contains(t, out, "0.50% / 20평")
	assert.Contains(t, out, "monthly revenue")
}

func TestInspect_DefaultParams(t *testing.T) {
	out, err := run(t, append([]string{"inspect", "강원특별자치도 춘천시"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "0.01% / 40평")
}

func TestInspect_JSONWithoutPersona(t *testing.T) {
	out, err := run(t, append([]string{"inspect", "서울특별시 강남구", "-o", "json"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	var got inspectResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Nil(t, got.Simulation)
	assert.False(t, got.Persona.Available)
	assert.Equal(t, "서울 강남구", got.TrendKey)
	assert.Nil(t, got.Trend)
}

func TestInspect_Errors(t *testing.T) {
	_, err := run(t, append([]string{"inspect", "없는 지역"}, sourceFlags(t)...)...)
	assert.Error(t, err)

	_, err = run(t, append([]string{"inspect", "강원특별자치도 춘천시", "--size", "35"}, sourceFlags(t)...)...)
	assert.Error(t, err)

	t.Setenv("TREND_STORE_ENABLED", "false")
	_, err = run(t, append([]string{"inspect", "강원특별자치도 춘천시", "--trend"}, sourceFlags(t)...)...)
	assert.ErrorIs(t, err, errStoreDisabled)
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "-o", "json", "--visitors", "36000", "--spend", "30000", "--rate", "10")
	require.NoError(t, err)
	var res simulator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, int64(120), res.DailyVisitors)
	assert.Equal(t, int64(45000000), res.MonthlyRevenue)
	assert.Equal(t, simulator.TierCaution, res.Tier)

	_, err = run(t, "simulate", "--visitors", "100")
	assert.Error(t, err)
	_, err = run(t, "simulate", "--visitors", "100", "--spend", "0")
	assert.Error(t, err)
}

func TestDiagnostics(t *testing.T) {
	out, err := run(t, append([]string{"diagnostics", "-o", "json"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	var sum diagnosticsSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 2, sum.Regions)
	assert.Equal(t, 1, sum.Personas)
	assert.Equal(t, 1, sum.Counts["supply/malformed_row"])
}

func TestExportAndChart(t *testing.T) {
	dir := t.TempDir()
	xlsx := filepath.Join(dir, "out.xlsx")
	_, err := run(t, append([]string{"export", xlsx}, sourceFlags(t)...)...)
	require.NoError(t, err)
	assert.FileExists(t, xlsx)

	png := filepath.Join(dir, "scatter.png")
	_, err = run(t, append([]string{"chart", "scatter", png, "--selected", "강원특별자치도 춘천시"}, sourceFlags(t)...)...)
	require.NoError(t, err)
	assert.FileExists(t, png)
}

func TestCoverage_StoreDisabled(t *testing.T) {
	t.Setenv("TREND_STORE_ENABLED", "false")
	_, err := run(t, "coverage")
	assert.ErrorIs(t, err, errStoreDisabled)
}

func TestUnknownOutput(t *testing.T) {
	_, err := run(t, "simulate", "-o", "yaml", "--visitors", "1", "--spend", "1")
	assert.Error(t, err)
}
