package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"glassplanner/internal/assistant"
	"glassplanner/internal/config"
	"glassplanner/internal/dashboard"
	"glassplanner/internal/ics"
	appLog "glassplanner/internal/log"
	"glassplanner/internal/model"
	"glassplanner/internal/scheduler"
)

const (
	maxUploadBytes = 16 << 20

	msgInvalidCalendar = "Could not parse the calendar file. Please ensure it is a valid .ics export."
	msgChatFailed      = "Sorry, I encountered an error. Please try again."
	msgSummaryFailed   = "Failed to load AI summary. Please check your connection."
)

// embeddedStatic contains the dashboard page.
//
//go:embed all:static
var embeddedStatic embed.FS

// Deps are the collaborators a Server needs. Assistant and Scheduler may be
// nil; the related endpoints then report 503.
type Deps struct {
	Board     *dashboard.Board
	Parser    *ics.Parser
	Assistant *assistant.Service
	Scheduler *scheduler.Scheduler

	// Now is the clock used for the past-due filter. Defaults to time.Now.
	Now func() time.Time
}

// Server serves the dashboard API and the static UI.
type Server struct {
	cfg     *config.Config
	deps    Deps
	mux     *http.ServeMux
	limiter *rate.Limiter
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Parser == nil {
		deps.Parser = ics.NewParser(nil)
	}
	if deps.Board == nil {
		deps.Board = dashboard.NewBoard(nil)
	}

	perMin := cfg.Assistant.ChatPerMinute
	if perMin <= 0 {
		perMin = 20
	}

	s := &Server{
		cfg:     cfg,
		deps:    deps,
		mux:     http.NewServeMux(),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
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

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
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
			w.Header().Set("WWW-Authenticate", `Basic realm="GlassPlanner", charset="UTF-8"`)
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
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/upload", s.handleUpload)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	s.mux.HandleFunc("GET /api/assignments", s.handleAssignments)
	s.mux.HandleFunc("GET /api/groups", s.handleGroups)
	s.mux.HandleFunc("GET /api/export.ics", s.handleExport)

	s.mux.HandleFunc("GET /api/courses", s.handleCourses)
	s.mux.HandleFunc("POST /api/courses/toggle", s.handleToggleCourse)
	s.mux.HandleFunc("POST /api/courses/all", s.handleToggleAll)

	s.mux.HandleFunc("POST /api/assignments/{id}/summary", s.handleSummary)
	s.mux.HandleFunc("POST /api/assignments/{id}/chat", s.handleStartChat)
	s.mux.HandleFunc("GET /api/chat/{session}", s.handleChatHistory)
	s.mux.HandleFunc("POST /api/chat/{session}", s.handleChatSend)
	s.mux.HandleFunc("DELETE /api/chat/{session}", s.handleChatEnd)

	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded dashboard page. /api/* never falls
// through to HTML.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// uploadResponse is returned after a calendar has been loaded.
type uploadResponse struct {
	Count   int                     `json:"count"`
	Courses []dashboard.CourseState `json:"courses"`
}

// handleUpload accepts an .ics file either as the raw request body or as the
// "file" field of a multipart form.
//
// POST /api/upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	body, err := readUpload(r)
	if err != nil {
		appLog.Error("upload read failed", err)
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	if !ics.IsCalendar(string(body)) {
		appLog.Info("upload rejected: not a calendar export", "bytes", len(body))
		writeError(w, http.StatusBadRequest, msgInvalidCalendar)
		return
	}

	list, err := s.deps.Parser.Parse(string(body))
	if err != nil {
		appLog.Error("upload parse failed", err, "bytes", len(body))
		writeError(w, http.StatusBadRequest, msgInvalidCalendar)
		return
	}

	s.deps.Board.Load(list, "upload")
	appLog.Info("calendar uploaded", "assignment_count", len(list))
	writeJSON(w, http.StatusOK, uploadResponse{Count: len(list), Courses: s.deps.Board.Courses()})
}

func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.deps.Board.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// statusResponse describes what is on the board.
type statusResponse struct {
	Loaded    bool              `json:"loaded"`
	Source    string            `json:"source,omitempty"`
	Count     int               `json:"count"`
	Assistant bool              `json:"assistant"`
	Feed      *scheduler.Status `json:"feed,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	loaded, source := s.deps.Board.Loaded()
	resp := statusResponse{
		Loaded:    loaded,
		Source:    source,
		Count:     len(s.deps.Board.All()),
		Assistant: s.deps.Assistant.Enabled(),
	}
	if s.deps.Scheduler != nil {
		st := s.deps.Scheduler.Status()
		resp.Feed = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh re-fetches the configured feed now.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "no calendar feed configured")
		return
	}
	if err := s.deps.Scheduler.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "feed refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Scheduler.Status())
}

// handleAssignments lists upcoming assignments of active courses.
//
// GET /api/assignments?all=1
//   - all: include past-due items and switched-off courses
func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.selected(r))
}

func (s *Server) selected(r *http.Request) []model.Assignment {
	if r.URL.Query().Get("all") == "1" {
		return s.deps.Board.All()
	}
	return s.deps.Board.Visible(s.deps.Now())
}

func (s *Server) handleGroups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Board.Groups(s.deps.Now()))
}

// handleExport downloads the selected assignments as an .ics file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := ics.Export(s.selected(r), s.deps.Now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="assignments.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Board.Courses())
}

type toggleRequest struct {
	Course string `json:"course"`
}

func (s *Server) handleToggleCourse(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil || req.Course == "" {
		writeError(w, http.StatusBadRequest, "course is required")
		return
	}
	s.deps.Board.Toggle(req.Course)
	writeJSON(w, http.StatusOK, s.deps.Board.Courses())
}

type toggleAllRequest struct {
	Enable bool `json:"enable"`
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	var req toggleAllRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.deps.Board.SetAll(req.Enable)
	writeJSON(w, http.StatusOK, s.deps.Board.Courses())
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assistantTarget(w, r)
	if !ok {
		return
	}
	text, err := s.deps.Assistant.Summarize(r.Context(), a)
	if err != nil {
		writeError(w, http.StatusBadGateway, msgSummaryFailed)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: text})
}

type chatResponse struct {
	SessionID  string              `json:"session_id"`
	Assignment model.Assignment    `json:"assignment"`
	Messages   []assistant.Message `json:"messages"`
}

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assistantTarget(w, r)
	if !ok {
		return
	}
	sess := s.deps.Assistant.StartChat(a)
	writeJSON(w, http.StatusCreated, chatResponse{SessionID: sess.ID, Assignment: a, Messages: sess.Messages()})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Assistant.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	sess, err := s.deps.Assistant.Session(r.PathValue("session"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chat session not found")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: sess.ID, Assignment: sess.Assignment, Messages: sess.Messages()})
}

type chatSendRequest struct {
	Message string `json:"message"`
}

type chatSendResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Assistant.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many requests, slow down")
		return
	}

	var req chatSendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.deps.Assistant.Send(r.Context(), r.PathValue("session"), req.Message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "message is empty")
	case errors.Is(err, assistant.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "chat session not found")
	case err != nil:
		writeError(w, http.StatusBadGateway, msgChatFailed)
	default:
		writeJSON(w, http.StatusOK, chatSendResponse{Reply: reply})
	}
}

func (s *Server) handleChatEnd(w http.ResponseWriter, r *http.Request) {
	if s.deps.Assistant.Enabled() {
		s.deps.Assistant.EndChat(r.PathValue("session"))
	}
	w.WriteHeader(http.StatusNoContent)
}

// assistantTarget resolves {id} for the assistant endpoints, writing the
// error response itself when it returns false.
func (s *Server) assistantTarget(w http.ResponseWriter, r *http.Request) (model.Assignment, bool) {
	if !s.deps.Assistant.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return model.Assignment{}, false
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many requests, slow down")
		return model.Assignment{}, false
	}
	a, ok := s.deps.Board.Find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "assignment not found")
		return model.Assignment{}, false
	}
	return a, true
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
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
