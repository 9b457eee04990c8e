package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"calcore/internal/config"
	"calcore/internal/layout"
	appLog "calcore/internal/log"
	"calcore/internal/model"
	"calcore/internal/recurrence"
	"calcore/internal/store"
)

// Server exposes expanded instances and day layouts over HTTP.
type Server struct {
	cfg   *config.Config
	src   store.Source
	today func() model.Date
	mux   *http.ServeMux

	// Expansion results memoized per (window, store version). The cache is
	// dropped whenever the store version moves.
	cacheMu      sync.Mutex
	cacheVersion uint64
	cache        map[recurrence.Window]recurrence.Result
}

// maxCachedWindows bounds the memo; beyond it the cache is reset.
const maxCachedWindows = 64

// NewServer constructs a new Server. today supplies the anchor date for
// default windows; pass a fixed function in tests.
func NewServer(cfg *config.Config, src store.Source, today func() model.Date) *Server {
	if today == nil {
		today = func() model.Date { return model.DateOf(time.Now()) }
	}
	s := &Server{
		cfg:   cfg,
		src:   src,
		today: today,
		mux:   http.NewServeMux(),
		cache: make(map[recurrence.Window]recurrence.Result),
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
	// Empty username or password disables auth.
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
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calcore", charset="UTF-8"`)
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

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/layout", s.handleLayout)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Instances []eventDTO `json:"instances"`
	Truncated []string   `json:"truncated,omitempty"`
	From      model.Date `json:"from"`
	To        model.Date `json:"to"`
}

// eventDTO is a JSON-friendly view of an expanded instance.
type eventDTO struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	Date            model.Date `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	IsRecurring     bool       `json:"is_recurring"`
	Recurrence      string     `json:"recurrence,omitempty"`
	OriginalEventID string     `json:"original_event_id,omitempty"`
	InstanceDate    string     `json:"instance_date,omitempty"`
}

func toDTO(ev model.Event) eventDTO {
	dto := eventDTO{
		ID:              ev.ID,
		Title:           ev.Title,
		Description:     ev.Description,
		Location:        ev.Location,
		Date:            ev.Date,
		StartTime:       ev.StartTime,
		EndTime:         ev.EndTime,
		IsRecurring:     ev.IsRecurring,
		OriginalEventID: ev.OriginalEventID,
		InstanceDate:    ev.InstanceDate.String(),
	}
	if ev.Recurrence != nil {
		dto.Recurrence = ev.Recurrence.String()
	}
	return dto
}

// handleEvents returns expanded instances within a date window.
//
// GET /api/events?from=2025-01-01&to=2025-03-31
//   - from/to default to the configured window around today.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	def := recurrence.WindowAround(s.today(), s.cfg.WindowBackMonths, s.cfg.WindowForwardMonths)

	from, err := parseDateDefault(q.Get("from"), def.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDateDefault(q.Get("to"), def.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	res, err := s.expand(recurrence.Window{Start: from, End: to})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appLog.Debug("api events request", "from", from, "to", to, "instances", len(res.Instances))

	dtos := make([]eventDTO, 0, len(res.Instances))
	for _, ev := range res.Instances {
		dtos = append(dtos, toDTO(ev))
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Instances: dtos,
		Truncated: res.Truncated,
		From:      from,
		To:        to,
	})
}

// layoutResponse is the JSON response shape for /api/layout.
type layoutResponse struct {
	Date   model.Date `json:"date"`
	Groups []groupDTO `json:"groups"`
}

type groupDTO struct {
	Columns int              `json:"columns"`
	Events  []placedEventDTO `json:"events"`
}

type placedEventDTO struct {
	eventDTO
	layout.Position
}

// handleLayout returns one day's conflict groups with column assignments.
//
// GET /api/layout?date=2025-03-10 (defaults to today)
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateDefault(r.URL.Query().Get("date"), s.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	res, err := s.expand(recurrence.Window{Start: date, End: date})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	groups := layout.LayoutDay(layout.EventsOn(res.Instances, date))
	resp := layoutResponse{Date: date, Groups: make([]groupDTO, 0, len(groups))}
	for _, g := range groups {
		gd := groupDTO{Columns: g.Columns, Events: make([]placedEventDTO, 0, len(g.Events))}
		for _, ev := range g.Events {
			gd.Events = append(gd.Events, placedEventDTO{
				eventDTO: toDTO(ev),
				Position: g.Positions[ev.ID],
			})
		}
		resp.Groups = append(resp.Groups, gd)
	}

	writeJSON(w, http.StatusOK, resp)
}

// expand returns the memoized expansion of the current store snapshot.
func (s *Server) expand(win recurrence.Window) (recurrence.Result, error) {
	events, version := s.src.Snapshot()

	s.cacheMu.Lock()
	if version != s.cacheVersion || len(s.cache) >= maxCachedWindows {
		s.cache = make(map[recurrence.Window]recurrence.Result)
		s.cacheVersion = version
	}
	if res, ok := s.cache[win]; ok {
		s.cacheMu.Unlock()
		return res, nil
	}
	s.cacheMu.Unlock()

	res, err := recurrence.ExpandAll(events, win)
	if err != nil {
		return res, err
	}

	s.cacheMu.Lock()
	if version == s.cacheVersion {
		s.cache[win] = res
	}
	s.cacheMu.Unlock()
	return res, nil
}

func parseDateDefault(s string, def model.Date) (model.Date, error) {
	if s == "" {
		return def, nil
	}
	return model.ParseDate(s)
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
