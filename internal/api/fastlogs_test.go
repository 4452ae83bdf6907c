package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fastlog/pkg/fastlog"
)

var testOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// --- Mock store ---

// brokenStore fails every read with a driver-looking error.
type brokenStore struct {
	*fastlog.MemStore
}

var errBroken = errors.New(`pq: relation "fast_logs" does not exist`)

func (brokenStore) FindByID(context.Context, int64) (*fastlog.FastLog, error) {
	return nil, errBroken
}

func (brokenStore) ListByDateDesc(context.Context) ([]fastlog.FastLog, error) {
	return nil, errBroken
}

func (brokenStore) Count(context.Context) (int, error) {
	return 0, errBroken
}

// --- Helpers ---

func newTestServer(t *testing.T) (*Server, *fastlog.MemStore) {
	t.Helper()
	store := fastlog.NewMemStore()
	return New(fastlog.NewService(store), testOrigins), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func count(t *testing.T, store fastlog.Store) int {
	t.Helper()
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return n
}

// --- Tests ---

func TestFastLogLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/fastlogs",
		`{"date":"2024-01-15","fastType":"RELIGIOUS","completed":false,"notes":"Ramadan day 5"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	created := decode[fastlog.FastLog](t, rec)
	if created.ID == nil {
		t.Fatal("created record has no id")
	}
	if created.Date.String() != "2024-01-15" || created.FastType != fastlog.Religious || created.Completed {
		t.Errorf("created = %+v", created)
	}
	path := "/api/fastlogs/" + jsonID(created.ID)

	rec = do(t, s, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decode[fastlog.FastLog](t, rec)
	if *got.ID != *created.ID || got.Notes == nil || *got.Notes != "Ramadan day 5" {
		t.Errorf("get = %+v", got)
	}

	rec = do(t, s, http.MethodPatch, path+"/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d", rec.Code)
	}
	if done := decode[fastlog.FastLog](t, rec); !done.Completed || *done.Notes != "Ramadan day 5" {
		t.Errorf("complete = %+v", done)
	}

	rec = do(t, s, http.MethodDelete, path, "")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("delete status = %d, body %q", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodGet, path, "")
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Errorf("get after delete = %d, body %q; want 404 empty", rec.Code, rec.Body)
	}
	rec = do(t, s, http.MethodDelete, path, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func jsonID(id *int64) string {
	b, _ := json.Marshal(*id)
	return string(b)
}

func TestCreateIgnoresClientID(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/fastlogs",
		`{"id":500,"date":"2024-01-15","fastType":"INTERMITTENT"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	created := decode[fastlog.FastLog](t, rec)
	if *created.ID == 500 {
		t.Error("server kept client-supplied id")
	}
	if created.Notes != nil || created.Completed {
		t.Errorf("defaults not applied: %+v", created)
	}
}

func TestEarliestDateIsStoredAndListed(t *testing.T) {
	sqlite := fastlog.NewSQLiteStore(filepath.Join(t.TempDir(), "fastlog.db"))
	if err := sqlite.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	if err := sqlite.EnsureTable(context.Background()); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	for name, store := range map[string]fastlog.Store{"memory": fastlog.NewMemStore(), "sqlite": sqlite} {
		t.Run(name, func(t *testing.T) {
			s := New(fastlog.NewService(store), testOrigins)

			rec := do(t, s, http.MethodPost, "/api/fastlogs", `{"date":"0001-01-01","fastType":"RELIGIOUS"}`)
			if rec.Code != http.StatusCreated {
				t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
			}
			created := decode[map[string]any](t, rec)
			if created["date"] != "0001-01-01" {
				t.Errorf("created date = %v, want 0001-01-01", created["date"])
			}

			rec = do(t, s, http.MethodGet, "/api/fastlogs", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("list status = %d, body %s", rec.Code, rec.Body)
			}
			logs := decode[[]map[string]any](t, rec)
			if len(logs) != 1 || logs[0]["date"] != "0001-01-01" {
				t.Errorf("list = %v", logs)
			}
		})
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing date", `{"fastType":"RELIGIOUS"}`, "date"},
		{"missing type", `{"date":"2024-01-15"}`, "fastType"},
		{"unknown type", `{"date":"2024-01-15","fastType":"WATER"}`, "fastType"},
		{"notes too long", `{"date":"2024-01-15","fastType":"RELIGIOUS","notes":"` + strings.Repeat("x", 1001) + `"}`, "notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/api/fastlogs", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decode[struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}](t, rec)
			if _, ok := body.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q", body.Fields, tt.field)
			}
			if n := count(t, store); n != 0 {
				t.Errorf("store has %d records after rejected create", n)
			}
		})
	}
}

func TestCreateMalformedJSON(t *testing.T) {
	s, store := newTestServer(t)
	for _, body := range []string{`{"date":`, `{"date":"2024-01-15","fastType":"RELIGIOUS","completed":"yes"}`} {
		rec := do(t, s, http.MethodPost, "/api/fastlogs", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want 400", body, rec.Code)
		}
	}
	if n := count(t, store); n != 0 {
		t.Errorf("store has %d records", n)
	}
}

func TestUpdate(t *testing.T) {
	s, _ := newTestServer(t)
	created := decode[fastlog.FastLog](t, do(t, s, http.MethodPost, "/api/fastlogs",
		`{"date":"2024-01-15","fastType":"RELIGIOUS","notes":"old"}`))
	path := "/api/fastlogs/" + jsonID(created.ID)

	rec := do(t, s, http.MethodPut, path, `{"id":9999,"date":"2024-01-16","fastType":"INTERMITTENT","completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	updated := decode[fastlog.FastLog](t, rec)
	if *updated.ID != *created.ID {
		t.Errorf("id = %d, want %d", *updated.ID, *created.ID)
	}
	if updated.Date.String() != "2024-01-16" || updated.FastType != fastlog.Intermittent || !updated.Completed || updated.Notes != nil {
		t.Errorf("updated = %+v", updated)
	}

	rec = do(t, s, http.MethodPut, path, `{"date":"2024-01-16"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid update status = %d, want 400", rec.Code)
	}
}

func TestUpdateUnknownIDCreatesNothing(t *testing.T) {
	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/fastlogs/999", `{"date":"2024-01-15","fastType":"RELIGIOUS"}`)
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Errorf("status = %d, body %q; want 404 empty", rec.Code, rec.Body)
	}
	if n := count(t, store); n != 0 {
		t.Errorf("store has %d records after update of unknown id", n)
	}
}

func TestUnknownAndMalformedIDs(t *testing.T) {
	s, _ := newTestServer(t)
	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/fastlogs/999", ""},
		{http.MethodGet, "/api/fastlogs/abc", ""},
		{http.MethodGet, "/api/fastlogs/0", ""},
		{http.MethodGet, "/api/fastlogs/-4", ""},
		{http.MethodPatch, "/api/fastlogs/999/complete", ""},
		{http.MethodPatch, "/api/fastlogs/abc/complete", ""},
		{http.MethodDelete, "/api/fastlogs/abc", ""},
		{http.MethodPut, "/api/fastlogs/abc", `{"date":"2024-01-15","fastType":"RELIGIOUS"}`},
	} {
		rec := do(t, s, req.method, req.path, req.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", req.method, req.path, rec.Code)
		}
	}
}

func TestListOrderAndTrailingSlash(t *testing.T) {
	s, _ := newTestServer(t)
	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		do(t, s, http.MethodPost, "/api/fastlogs/", `{"date":"`+d+`","fastType":"RELIGIOUS"}`)
	}

	for _, path := range []string{"/api/fastlogs", "/api/fastlogs/"} {
		rec := do(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rec.Code)
		}
		logs := decode[[]fastlog.FastLog](t, rec)
		if len(logs) != 3 {
			t.Fatalf("GET %s returned %d logs", path, len(logs))
		}
		for i, want := range []string{"2024-03-01", "2024-02-01", "2024-01-01"} {
			if logs[i].Date.String() != want {
				t.Errorf("GET %s logs[%d] = %s, want %s", path, i, logs[i].Date, want)
			}
		}
	}
}

func TestListEmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/fastlogs", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rec.Body)
	}
}

func TestListFilters(t *testing.T) {
	s, _ := newTestServer(t)
	for _, body := range []string{
		`{"date":"2024-03-01","fastType":"RELIGIOUS","completed":true}`,
		`{"date":"2024-03-05","fastType":"INTERMITTENT"}`,
		`{"date":"2024-03-10","fastType":"RELIGIOUS"}`,
	} {
		if rec := do(t, s, http.MethodPost, "/api/fastlogs", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", rec.Code)
		}
	}

	tests := []struct {
		query  string
		status int
		n      int
	}{
		{"?fastType=RELIGIOUS", http.StatusOK, 2},
		{"?fastType=intermittent", http.StatusOK, 1},
		{"?fastType=WATER", http.StatusBadRequest, 0},
		{"?completed=true", http.StatusOK, 1},
		{"?completed=false", http.StatusOK, 2},
		{"?completed=maybe", http.StatusBadRequest, 0},
		{"?from=2024-03-01&to=2024-03-05", http.StatusOK, 2},
		{"?from=2024-03-06&to=2024-03-31", http.StatusOK, 1},
		{"?from=2024-03-06", http.StatusBadRequest, 0},
		{"?from=2024-03-10&to=2024-03-01", http.StatusBadRequest, 0},
		{"?from=march&to=2024-03-31", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, "/api/fastlogs"+tt.query, "")
		if rec.Code != tt.status {
			t.Errorf("%s status = %d, want %d", tt.query, rec.Code, tt.status)
			continue
		}
		if tt.status == http.StatusOK {
			if logs := decode[[]fastlog.FastLog](t, rec); len(logs) != tt.n {
				t.Errorf("%s returned %d logs, want %d", tt.query, len(logs), tt.n)
			}
		}
	}
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	s := New(fastlog.NewService(brokenStore{fastlog.NewMemStore()}), testOrigins)

	for _, path := range []string{"/api/fastlogs", "/api/fastlogs/1", "/api/status"} {
		rec := do(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("GET %s status = %d, want 500", path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "fast_logs") {
			t.Errorf("GET %s leaked store error: %s", path, rec.Body)
		}
	}
}

func TestHealthAndStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || decode[map[string]string](t, rec)["status"] != "ok" {
		t.Errorf("health = %d %s", rec.Code, rec.Body)
	}

	do(t, s, http.MethodPost, "/api/fastlogs", `{"date":"2024-03-01","fastType":"RELIGIOUS","completed":true}`)
	do(t, s, http.MethodPost, "/api/fastlogs", `{"date":"2024-03-02","fastType":"RELIGIOUS"}`)
	rec = do(t, s, http.MethodGet, "/api/status", "")
	if got := decode[fastlog.Stats](t, rec); got != (fastlog.Stats{Total: 2, Completed: 1, Pending: 1}) {
		t.Errorf("status = %+v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/fastlogs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
	if rec.Code >= 300 {
		t.Errorf("preflight status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/fastlogs", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Allow-Origin %q", got)
	}
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}
