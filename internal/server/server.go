package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pop/internal/app"
	"pop/internal/config"
	"pop/internal/search"
	"pop/internal/storage"
)

// Service describes the index operations exposed over HTTP.
type Service interface {
	Search(ctx context.Context, criteria search.Criteria) ([]storage.Record, error)
	Stats(ctx context.Context) (storage.Stats, error)
	StartIndex(ctx context.Context, root string, rebuild bool) (string, error)
	Clear(ctx context.Context) error
	Status() app.IndexStatus
}

// Server wires together HTTP handlers for the index API.
type Server struct {
	index   Service
	baseCtx context.Context
}

// New creates a Server instance backed by the provided service.
func New(index Service) *Server {
	return &Server{index: index, baseCtx: context.Background()}
}

// Routes returns the HTTP handler that exposes the application endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/index", s.handleIndex)
	mux.HandleFunc("/api/clear", s.handleClear)
	return logRequests(mux)
}

// Start runs the HTTP server until the provided context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	criteria, err := criteriaFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	files, err := s.index.Search(ctx, criteria)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload := map[string]any{"index": s.index.Status()}
	if stats, err := s.index.Stats(r.Context()); err == nil {
		payload["stats"] = stats
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Root    string `json:"root"`
		Reindex bool   `json:"reindex"`
	}

	if r.Body != nil {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
			return
		}
	}
	if payload.Root == "" {
		http.Error(w, "missing root", http.StatusBadRequest)
		return
	}

	root, err := config.NormalizeRoot(payload.Root)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := os.Lstat(root); err != nil {
		http.Error(w, fmt.Sprintf("invalid root: %v", err), http.StatusBadRequest)
		return
	}

	runID, err := s.index.StartIndex(s.baseCtx, root, payload.Reindex)
	if err != nil {
		writeError(w, "start index", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"runId": runID, "status": s.index.Status()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.index.Clear(r.Context()); err != nil {
		writeError(w, "clear index", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func criteriaFromQuery(values url.Values) (search.Criteria, error) {
	criteria := search.Criteria{
		Name:          values.Get("name"),
		Regex:         values.Get("regex"),
		Extension:     values.Get("ext"),
		PathPrefix:    values.Get("path"),
		Size:          values.Get("size"),
		ModifiedAfter: values.Get("lmd"),
	}

	kind, ok := search.ParseKind(values.Get("type"))
	if !ok {
		return search.Criteria{}, fmt.Errorf("invalid type %q (want file or dir)", values.Get("type"))
	}
	criteria.Kind = kind

	sortKey, ok := search.ParseSort(values.Get("sort"))
	if !ok {
		return search.Criteria{}, fmt.Errorf("invalid sort %q (want name, size, lmd or ext)", values.Get("sort"))
	}
	criteria.Sort = sortKey

	for key, dest := range map[string]*bool{"reverse": &criteria.Reverse, "case_sensitive": &criteria.CaseSensitive} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return search.Criteria{}, fmt.Errorf("invalid %s %q", key, raw)
		}
		*dest = parsed
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return search.Criteria{}, fmt.Errorf("invalid limit %q", raw)
		}
		criteria.Limit = limit
	}

	return criteria, nil
}

func writeError(w http.ResponseWriter, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrIndexInProgress), errors.Is(err, app.ErrIndexLocked):
		status = http.StatusConflict
	case errors.Is(err, search.ErrInvalidPattern):
		status = http.StatusBadRequest
	}
	http.Error(w, fmt.Sprintf("%s: %v", action, err), status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.With().Str("request_id", uuid.New().String()).Logger()

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Msg("request started")

		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
