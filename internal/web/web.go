// Package web serves the JSON API and the server-rendered day view. All
// layout work happens in internal/agenda; handlers only shape responses
// and cache them briefly.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"daygrid/internal/agenda"
	"daygrid/internal/config"
	"daygrid/internal/layout"
	appLog "daygrid/internal/log"
	"daygrid/internal/model"
	"daygrid/internal/urgency"
)

// responseCacheTTL bounds how stale a served view can be. A snapshot edit
// or feed refresh shows up after at most this long.
const responseCacheTTL = 30 * time.Second

// maxCacheEntries caps the response cache; past that the whole map resets
// so scripted date scans cannot grow it without bound.
const maxCacheEntries = 64

// Server provides HTTP APIs for the agenda views.
type Server struct {
	cfg    *config.Config
	agenda *agenda.Agenda
	debug  bool
	mux    *http.ServeMux

	// In-memory cache for API responses to avoid recomputing layouts on
	// every HTTP request.
	cacheMu sync.RWMutex
	cache   map[string]cacheEntry
}

// cacheEntry holds one cached response, its build time and the feed
// refresh stamp it was built against.
type cacheEntry struct {
	resp      any
	builtAt   time.Time
	feedStamp time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, ag *agenda.Agenda, debug bool) *Server {
	s := &Server{
		cfg:    cfg,
		agenda: ag,
		debug:  debug,
		mux:    http.NewServeMux(),
		cache:  make(map[string]cacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password counts as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays open for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="daygrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/day", s.handleDay)
	s.mux.HandleFunc("/api/week", s.handleWeek)
	s.mux.HandleFunc("/api/triage", s.handleTriage)
	s.mux.HandleFunc("/view/day", s.handleDayView)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRoot redirects the bare root to the day view; any other unmatched
// path is a plain 404.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/view/day", http.StatusFound)
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Date            model.Date     `json:"date"`
	AllDay          []model.Item   `json:"all_day"`
	Timed           []layout.Block `json:"timed"`
	DisplayTimeZone string         `json:"display_timezone"`
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	WeekStart       model.Date         `json:"week_start"`
	Days            []layout.DayResult `json:"days"`
	DisplayTimeZone string             `json:"display_timezone"`
}

// triageResponse is the JSON response shape for /api/triage.
type triageResponse struct {
	GeneratedAt     time.Time                       `json:"generated_at"`
	Buckets         map[urgency.Bucket][]model.Item `json:"buckets"`
	Ranked          []urgency.Scored                `json:"ranked"`
	DisplayTimeZone string                          `json:"display_timezone"`
}

// handleDay returns the packed layout for one day.
//
// GET /api/day?date=2026-08-17
//   - date: the day to lay out, YYYY-MM-DD (default: today)
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := s.queryDate(r.URL.Query(), "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := "day:" + date.String()
	if resp, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	res := s.agenda.Day(date)
	ensureDay(&res)
	resp := dayResponse{
		Date:            res.Date,
		AllDay:          res.AllDay,
		Timed:           res.Timed,
		DisplayTimeZone: s.agenda.Location().String(),
	}

	s.store(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleWeek returns seven day layouts starting at the configured week
// start.
//
// GET /api/week?start=2026-08-19
//   - start: any date inside the wanted week (default: today). It snaps
//     to the configured week start, so a Wednesday yields that week's
//     Monday (or Sunday) opening.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	date, err := s.queryDate(r.URL.Query(), "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := model.StartOfWeek(date, s.cfg.WeekStart)

	key := "week:" + start.String()
	if resp, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	days := s.agenda.Week(start)
	for i := range days {
		ensureDay(&days[i])
	}
	resp := weekResponse{
		WeekStart:       start,
		Days:            days,
		DisplayTimeZone: s.agenda.Location().String(),
	}

	s.store(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleTriage returns the urgency quadrants and the flat ranking of open
// tasks, evaluated at request time.
func (s *Server) handleTriage(w http.ResponseWriter, _ *http.Request) {
	const key = "triage"
	if resp, ok := s.cached(key); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	now := time.Now().In(s.agenda.Location())
	res := s.agenda.Triage(now)
	resp := triageResponse{
		GeneratedAt:     now,
		Buckets:         res.Buckets,
		Ranked:          res.Ranked,
		DisplayTimeZone: s.agenda.Location().String(),
	}
	if resp.Ranked == nil {
		resp.Ranked = []urgency.Scored{}
	}

	s.store(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handlePreview serves the last rendered PNG preview from disk. The path
// rule matches the capture pipeline in cmd/daygrid:
//   - default: /var/lib/daygrid/preview.png
//   - debug:   ./cache/preview.png
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	previewPath := "/var/lib/daygrid/preview.png"
	if s.debug {
		previewPath = "./cache/preview.png"
	}

	// http.ServeFile maps file problems to sensible status codes
	// (404 for missing, 500 otherwise).
	http.ServeFile(w, r, previewPath)
}

// queryDate reads a YYYY-MM-DD query parameter, defaulting to today in
// the display timezone.
func (s *Server) queryDate(q url.Values, key string) (model.Date, error) {
	raw := q.Get(key)
	if raw == "" {
		return model.DateOf(time.Now().In(s.agenda.Location())), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid %s %q, want YYYY-MM-DD", key, raw)
	}
	return d, nil
}

// cached returns a response if it is younger than the TTL and the feed
// store has not refreshed since it was built.
func (s *Server) cached(key string) (any, bool) {
	stamp := s.agenda.UpdatedAt()

	s.cacheMu.RLock()
	e, ok := s.cache[key]
	s.cacheMu.RUnlock()

	if !ok || time.Since(e.builtAt) >= responseCacheTTL || !e.feedStamp.Equal(stamp) {
		return nil, false
	}
	return e.resp, true
}

func (s *Server) store(key string, resp any) {
	s.cacheMu.Lock()
	if len(s.cache) >= maxCacheEntries {
		s.cache = make(map[string]cacheEntry)
	}
	s.cache[key] = cacheEntry{
		resp:      resp,
		builtAt:   time.Now(),
		feedStamp: s.agenda.UpdatedAt(),
	}
	s.cacheMu.Unlock()
}

// ensureDay keeps empty lanes as [] instead of null in JSON.
func ensureDay(res *layout.DayResult) {
	if res.AllDay == nil {
		res.AllDay = []model.Item{}
	}
	if res.Timed == nil {
		res.Timed = []layout.Block{}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
