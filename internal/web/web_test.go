package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daygrid/internal/agenda"
	"daygrid/internal/config"
	"daygrid/internal/model"
)

type stubFeed struct {
	items []model.Item
	at    time.Time
}

func (f *stubFeed) Items() []model.Item  { return f.items }
func (f *stubFeed) UpdatedAt() time.Time { return f.at }

// newTestServer wires a real agenda over a throwaway snapshot file.
func newTestServer(t *testing.T, cfg *config.Config, feeds agenda.Feed, snapshot string) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	path := ""
	if snapshot != "" {
		path = filepath.Join(t.TempDir(), "tasks.json")
		if err := os.WriteFile(path, []byte(snapshot), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	ag := agenda.New(agenda.Options{SnapshotPath: path, Location: time.UTC}, feeds)
	return NewServer(cfg, ag, true)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil, "")
	rr := get(t, s, "/health")
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rr.Code, rr.Body.String())
	}
}

func TestDayEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil,
		`[{"id":"t1","title":"Write report","dueDate":"2026-08-17","dueTime":"09:00"},
		  {"id":"t2","title":"Laundry","dueDate":"2026-08-17"}]`)

	rr := get(t, s, "/api/day?date=2026-08-17")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Date   string `json:"date"`
		AllDay []struct {
			ID string `json:"id"`
		} `json:"all_day"`
		Timed []struct {
			Item struct {
				ID   string `json:"id"`
				Time string `json:"time"`
			} `json:"item"`
			WidthPercent float64 `json:"width_percent"`
			TopPercent   float64 `json:"top_percent"`
		} `json:"timed"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, rr.Body.String())
	}
	if resp.Date != "2026-08-17" {
		t.Errorf("date = %q", resp.Date)
	}
	if len(resp.AllDay) != 1 || resp.AllDay[0].ID != "t2" {
		t.Errorf("all_day = %+v", resp.AllDay)
	}
	if len(resp.Timed) != 1 {
		t.Fatalf("timed = %+v", resp.Timed)
	}
	b := resp.Timed[0]
	if b.Item.ID != "t1" || b.Item.Time != "09:00" {
		t.Errorf("block item = %+v", b.Item)
	}
	if b.WidthPercent != 100 || b.TopPercent != 37.5 {
		t.Errorf("geometry = top %v width %v", b.TopPercent, b.WidthPercent)
	}
}

func TestDayEndpointEmptyLanes(t *testing.T) {
	s := newTestServer(t, nil, nil, "")
	rr := get(t, s, "/api/day?date=2026-08-17")

	body := rr.Body.String()
	if strings.Contains(body, `"all_day":null`) || strings.Contains(body, `"timed":null`) {
		t.Fatalf("empty lanes must serialize as [], got %s", body)
	}
}

func TestDayEndpointBadDate(t *testing.T) {
	s := newTestServer(t, nil, nil, "")
	rr := get(t, s, "/api/day?date=tomorrow")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error == "" {
		t.Fatalf("error body = %s", rr.Body.String())
	}
}

func TestWeekSnapsToWeekStart(t *testing.T) {
	s := newTestServer(t, nil, nil, "")

	// 2026-08-19 is a Wednesday; the monday week opens on the 17th.
	rr := get(t, s, "/api/week?start=2026-08-19")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		WeekStart string `json:"week_start"`
		Days      []struct {
			Date string `json:"date"`
		} `json:"days"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.WeekStart != "2026-08-17" {
		t.Errorf("week_start = %q, want 2026-08-17", resp.WeekStart)
	}
	if len(resp.Days) != 7 || resp.Days[0].Date != "2026-08-17" || resp.Days[6].Date != "2026-08-23" {
		t.Errorf("days = %+v", resp.Days)
	}
}

func TestTriageEndpoint(t *testing.T) {
	// Long overdue and high priority, so it lands in do-first under any
	// present-day clock.
	s := newTestServer(t, nil, nil,
		`[{"id":"t1","title":"File taxes","dueDate":"2026-01-05","priority":"high"}]`)

	rr := get(t, s, "/api/triage")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Buckets map[string][]struct {
			ID string `json:"id"`
		} `json:"buckets"`
		Ranked []struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
			Score  int    `json:"score"`
			Bucket string `json:"bucket"`
		} `json:"ranked"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	for _, b := range []string{"do-first", "schedule", "quick-win", "later"} {
		if _, ok := resp.Buckets[b]; !ok {
			t.Errorf("bucket %q missing", b)
		}
	}
	if got := resp.Buckets["do-first"]; len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("do-first = %+v", got)
	}
	if len(resp.Ranked) != 1 || resp.Ranked[0].Bucket != "do-first" || resp.Ranked[0].Score <= 0 {
		t.Errorf("ranked = %+v", resp.Ranked)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "grid", Password: "secret"}
	s := newTestServer(t, cfg, nil, "")

	if rr := get(t, s, "/api/day"); rr.Code != http.StatusUnauthorized {
		t.Errorf("without creds: %d, want 401", rr.Code)
	} else if rr.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}

	if rr := get(t, s, "/health"); rr.Code != http.StatusOK {
		t.Errorf("/health must stay open, got %d", rr.Code)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/day", nil)
	req.SetBasicAuth("grid", "secret")
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with creds: %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/day", nil)
	req.SetBasicAuth("grid", "wrong")
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bad password: %d, want 401", rr.Code)
	}
}

func TestDayView(t *testing.T) {
	s := newTestServer(t, nil, nil,
		`[{"id":"t1","title":"Write <report>","dueDate":"2026-08-17","dueTime":"09:00"},
		  {"id":"t2","title":"Laundry","dueDate":"2026-08-17"}]`)

	rr := get(t, s, "/view/day?date=2026-08-17")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-ready="true"`) {
		t.Error("page must carry the data-ready marker")
	}
	if !strings.Contains(body, "Write &lt;report&gt;") {
		t.Error("titles must be HTML-escaped")
	}
	if !strings.Contains(body, "09:00") {
		t.Error("missing start time label")
	}
	if !strings.Contains(body, "Laundry") {
		t.Error("missing all-day chip")
	}
	if !strings.Contains(body, "top:37.5000%") {
		t.Error("missing block geometry")
	}
}

func TestRootRedirect(t *testing.T) {
	s := newTestServer(t, nil, nil, "")
	rr := get(t, s, "/")
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/view/day" {
		t.Errorf("root = %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if rr := get(t, s, "/definitely-not-here"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path = %d, want 404", rr.Code)
	}
}

func TestCacheFollowsFeedRefresh(t *testing.T) {
	feeds := &stubFeed{
		items: []model.Item{{ID: "e1", Title: "One", Date: model.NewDate(2026, time.August, 17), Kind: model.KindEvent}},
		at:    time.Now(),
	}
	s := newTestServer(t, nil, feeds, "")

	if body := get(t, s, "/api/day?date=2026-08-17").Body.String(); !strings.Contains(body, `"e1"`) {
		t.Fatalf("first response missing e1: %s", body)
	}

	// A feed refresh moves the stamp, which must bypass the TTL cache.
	feeds.items = append(feeds.items, model.Item{
		ID: "e2", Title: "Two", Date: model.NewDate(2026, time.August, 17), Kind: model.KindEvent,
	})
	feeds.at = feeds.at.Add(time.Minute)

	if body := get(t, s, "/api/day?date=2026-08-17").Body.String(); !strings.Contains(body, `"e2"`) {
		t.Fatalf("refresh not visible: %s", body)
	}
}
