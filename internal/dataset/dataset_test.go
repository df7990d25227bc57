package dataset

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"market-map/internal/persona"
	"market-map/internal/region"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

const supplyCSV = "region,visitor,restaurant,quadrant\n" +
	"강원특별자치도 춘천시,36000000,50,기회지역\n" +
	"강원특별자치도 없는시,10,1,저관심지역\n" +
	"세종특별자치시 세종특별자치시,5000,20,경쟁포화지역\n" +
	"short\n"

const masterCSV = "id,lat,lng,sido_full,sido_abbr,sig_name,naver_region,sigun\n" +
	"1,37.88,127.73,강원특별자치도,강원,춘천시,,\n" +
	"2,36.48,127.28,세종특별자치시,세종,세종특별자치시,,\n"

const personaCSV = "지역,연령,성별,소비금액합계,결제건수합계,평균결제금액\n" +
	"강원,40,M,1.9E+12,65861083,30000\n"

func writeFile(t *testing.T, dir, name, content string, euckr bool) string {
	t.Helper()
	p := filepath.Join(dir, name)
	data := []byte(content)
	if euckr {
		b, err := io.ReadAll(transform.NewReader(strings.NewReader(content), korean.EUCKR.NewEncoder()))
		require.NoError(t, err)
		data = b
	}
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func localSources(t *testing.T) Sources {
	dir := t.TempDir()
	return Sources{
		Supply:          writeFile(t, dir, "supply.csv", supplyCSV, false),
		Master:          writeFile(t, dir, "master.csv", masterCSV, true),
		Persona:         writeFile(t, dir, "persona.csv", personaCSV, false),
		SupplyEncoding:  "utf-8",
		MasterEncoding:  "euc-kr",
		PersonaEncoding: "utf-8",
		PersonaPolicy:   persona.LastRow,
	}
}

func TestLoad_Local(t *testing.T) {
	snap, err := Load(context.Background(), localSources(t))
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Regions.Len())
	r, ok := snap.Regions.ByName("강원특별자치도 춘천시")
	require.True(t, ok)
	assert.Equal(t, "강원", r.Sido)
	_, ok = snap.Regions.ByName("세종특별자치시")
	assert.True(t, ok)

	rec, ok := snap.Personas.Lookup("강원")
	require.True(t, ok)
	assert.Equal(t, 30000.0, rec.AvgSpend)

	reasons := map[string]int{}
	for _, d := range snap.Diagnostics {
		reasons[d.Reason]++
	}
	assert.Equal(t, map[string]int{region.ReasonMalformedRow: 1, region.ReasonUnmatchedJoin: 1}, reasons)
	assert.False(t, snap.BuiltAt.IsZero())
}

func TestLoad_PersonaFailureIsNotFatal(t *testing.T) {
	src := localSources(t)
	src.Persona = filepath.Join(t.TempDir(), "missing.csv")

	snap, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Regions.Len())
	assert.Zero(t, snap.Personas.Len())
	assert.False(t, snap.Personas.Card("강원").Available)
}

func TestLoad_SupplyFailureIsFatal(t *testing.T) {
	src := localSources(t)
	src.Supply = filepath.Join(t.TempDir(), "missing.csv")

	_, err := Load(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supply source")
}

func TestLoad_BadEncoding(t *testing.T) {
	src := localSources(t)
	src.MasterEncoding = "shift-jis"
	_, err := Load(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "master source")
}

func TestOpen_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(supplyCSV))
	}))
	defer srv.Close()

	rc, err := Open(context.Background(), srv.URL+"/supply.csv")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, supplyCSV, string(b))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestOpen_NotFoundIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Open(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	assert.Nil(t, h.Get())

	src := localSources(t)
	snap, err := h.Reload(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, snap, h.Get())

	src.Supply = "/nonexistent/supply.csv"
	_, err = h.Reload(context.Background(), src)
	require.Error(t, err)
	assert.Same(t, snap, h.Get())

	h.Set(nil)
	assert.Same(t, snap, h.Get())
}
