// Package web exposes the card store and review sessions over a JSON
// HTTP API.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ciaranbyrne/revise/internal/domain"
	"github.com/ciaranbyrne/revise/internal/importer"
	"github.com/ciaranbyrne/revise/internal/queue"
	"github.com/ciaranbyrne/revise/internal/session"
	"github.com/ciaranbyrne/revise/internal/storage"
)

// Server holds the dependencies for the HTTP API. It owns the single
// active review session; handler access to it is serialized.
type Server struct {
	db     *storage.DB
	imp    *importer.Importer
	router *http.ServeMux
	now    func() time.Time

	mu      sync.Mutex
	session *session.Session
}

// NewServer creates and wires a server around the store.
func NewServer(db *storage.DB, imp *importer.Importer) *Server {
	s := &Server{
		db:      db,
		imp:     imp,
		router:  http.NewServeMux(),
		now:     time.Now,
		session: session.New(db),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /cards", s.handleListCards)
	s.router.HandleFunc("POST /cards", s.handleCreateCard)
	s.router.HandleFunc("DELETE /cards/{id}", s.handleDeleteCard)
	s.router.HandleFunc("GET /cards/{id}/reviews", s.handleCardReviews)

	s.router.HandleFunc("GET /deck", s.handleDeck)

	s.router.HandleFunc("GET /session", s.handleGetSession)
	s.router.HandleFunc("POST /session/start", s.handleStartSession)
	s.router.HandleFunc("POST /session/reveal", s.handleReveal)
	s.router.HandleFunc("POST /session/rate", s.handleRate)
	s.router.HandleFunc("POST /session/abort", s.handleAbort)

	s.router.HandleFunc("GET /sources", s.handleListSources)
	s.router.HandleFunc("POST /sources", s.handleAddSource)
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource)
	s.router.HandleFunc("POST /import", s.handleImport)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, session.ErrNotPresenting),
		errors.Is(err, session.ErrNotAwaitingRating):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.db.AllCards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, viewOfCard(c, true))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in domain.CardInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	id, err := s.db.CreateCard(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := s.db.DeleteCard(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCardReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if _, err := s.db.FindCard(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	logs, err := s.db.ReviewsForCard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]reviewView, 0, len(logs))
	for _, l := range logs {
		views = append(views, reviewView{
			Quality:    int(l.Quality),
			Interval:   l.Interval,
			EaseFactor: l.EaseFactor,
			ReviewedAt: l.ReviewedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	cards, err := s.db.AllCards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	due := queue.Build(cards, s.now())
	writeJSON(w, http.StatusOK, map[string]int{
		"total": len(cards),
		"due":   len(due),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	cards, err := s.db.AllCards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	due := queue.Build(cards, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Start(due)
	writeJSON(w, http.StatusOK, s.sessionViewLocked())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sessionViewLocked())
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.RevealAnswer(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionViewLocked())
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quality int `json:"quality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrInvalidQuality)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.SubmitRating(r.Context(), domain.Quality(body.Quality)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionViewLocked())
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Abort()
	writeJSON(w, http.StatusOK, s.sessionViewLocked())
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.AllSources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		v := sourceView{ID: src.ID, Path: src.Path, Kind: string(src.Kind)}
		if src.LastImported != nil {
			v.LastImported = src.LastImported.UTC().Format(time.RFC3339)
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	id, err := s.db.AddSource(r.Context(), body.Path, domain.KindOfSource(body.Path))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := s.db.DeleteSource(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.imp.RunAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
