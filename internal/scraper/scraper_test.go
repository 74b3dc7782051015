package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"WarTrack/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newScraperFor(t *testing.T, baseURL string, retry int) Scraper {
	t.Helper()
	return NewOryxScraper(&config.ScraperConfig{
		BaseURL:           baseURL,
		Timeout:           5,
		RetryCount:        retry,
		EquipmentsFile:    "daily_count.csv",
		AllEquipmentsFile: "totals_by_type.csv",
		SystemsFile:       "totals_by_system.csv",
		AllSystemsFile:    "totals_by_system_wide.csv",
	}, newTestLogger())
}

func TestFetchEquipmentsParsesCSV(t *testing.T) {
	const body = "country,equipment_type,date_recorded,destroyed\n" +
		"Ukraine,Tanks,2023-01-01,10\n" +
		"Russia, Aircraft ,2023-01-02,5\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/daily_count.csv", r.URL.Path)
		io.WriteString(w, body)
	}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL, 0)
	records, err := sc.FetchEquipments(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ukraine", records[0].Get("country"))
	assert.Equal(t, "10", records[0].Get("destroyed"))
	// 字段值两侧空白被清理
	assert.Equal(t, "Aircraft", records[1].Get("equipment_type"))
}

// 列数不齐的行按实际列数截断，不导致整体失败
func TestFetchToleratesRaggedRows(t *testing.T) {
	const body = "country,system,url\n" +
		"Ukraine,HIMARS\n" +
		"Russia,S-300,https://example.com/1\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL, 0)
	records, err := sc.FetchSystems(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, records[0].Get("url"))
	assert.Equal(t, "https://example.com/1", records[1].Get("url"))
}

func TestFetchEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL, 0)
	records, err := sc.FetchAllEquipments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchNon200Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL, 0)
	_, err := sc.FetchAllSystems(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

// 前两次失败第三次成功：重试生效
func TestFetchRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "country,destroyed\nUkraine,1\n")
	}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL, 2)
	records, err := sc.FetchEquipments(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL, 2)
	_, err := sc.FetchEquipments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "拉取CSV失败")
	assert.EqualValues(t, 3, calls.Load())
}

func TestParseCSVBaseURLTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 基础地址带尾斜杠不得产生双斜杠路径
		assert.Equal(t, "/daily_count.csv", r.URL.Path)
		io.WriteString(w, "country\nUkraine\n")
	}))
	defer srv.Close()

	sc := newScraperFor(t, srv.URL+"/", 0)
	records, err := sc.FetchEquipments(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParseCSVQuotedFields(t *testing.T) {
	const body = `country,equipment_type
Ukraine,"Trucks, Vehicles, and Jeeps"
`
	records, err := parseCSV(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Trucks, Vehicles, and Jeeps", records[0].Get("equipment_type"))
}
