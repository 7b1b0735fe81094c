package main

import (
	"context"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xor-shift/streamrng/bench"
	"github.com/xor-shift/streamrng/store"
	"github.com/xor-shift/streamrng/store/storetest"
)

func get(t *testing.T, app *iris.Application, target string) *httptest.ResponseRecorder {
	t.Helper()

	require.NoError(t, app.Build())

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStreamEndpoints(t *testing.T) {
	app := newApp(nil, nil)

	rec := get(t, app, "/philox?seed=0&blocks=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "6627e8d5e169c58dbc57ac4c9b00dbd8", gjson.Get(rec.Body.String(), "hex.0").String())
	assert.Equal(t, "00000000000000000000000000000002", gjson.Get(rec.Body.String(), "next_counter").String())

	rec = get(t, app, "/pcg?state=42&sequence=54&advance=2&words=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(0xba1d3330), gjson.Get(rec.Body.String(), "words.0").Uint())

	rec = get(t, app, "/xoshiro?seed=0&words=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(0x99ec5f36cb75f2b4), gjson.Get(rec.Body.String(), "words.0").Uint())

	rec = get(t, app, "/test")
	assert.Equal(t, "OK", rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	app := newApp(nil, nil)

	for _, target := range []string{
		"/philox?blocks=0",
		"/philox?colour=red",
		"/pcg?words=lots",
		"/xoshiro?skip=-1",
	} {
		rec := get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	assert.Equal(t, http.StatusNotFound, get(t, app, "/runs?engine=pcg").Code)
	assert.Equal(t, http.StatusNotFound, get(t, app, "/latest").Code)
}

func TestRuns(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	db := &storetest.DB{
		Columns: []string{"started_at", "engine", "mode", "words", "threads", "trials", "seed", "best_ns", "checksums"},
		Rows: [][]driver.Value{
			{started, "pcg", "global", int64(64), int64(1), int64(1), int64(0), int64(1000), "deadbeef"},
		},
	}

	runs, err := store.Prepare(context.Background(), db.Open())
	require.NoError(t, err)
	defer runs.Close()

	// the table exists before the first request is served
	require.NotEmpty(t, db.Execs())
	assert.Equal(t, store.Schema, db.Execs()[0].Query)

	app := newApp(runs, nil)

	rec := get(t, app, "/runs?engine=pcg")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pcg", gjson.Get(rec.Body.String(), "0.Engine").String())
	assert.Equal(t, uint64(0xdeadbeef), gjson.Get(rec.Body.String(), "0.Checksums.0").Uint())

	assert.Equal(t, http.StatusBadRequest, get(t, app, "/runs").Code)
}

func TestLatest(t *testing.T) {
	latest := &latestResults{results: map[string]bench.Result{}}
	latest.put(bench.Result{Engine: "philox", Mode: bench.ModeLocal, Threads: 2, Words: 1})
	latest.put(bench.Result{Engine: "philox", Mode: bench.ModeLocal, Threads: 2, Words: 2})
	latest.put(bench.Result{Engine: "pcg", Mode: bench.ModeGlobal, Threads: 1, Words: 3})

	rec := get(t, newApp(nil, latest), "/latest")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, int64(2), gjson.Get(rec.Body.String(), "philox/local/2.Words").Int())
	assert.Equal(t, int64(3), gjson.Get(rec.Body.String(), "pcg/global/1.Words").Int())
}
