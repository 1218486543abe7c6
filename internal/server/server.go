// Package server 对外的HTTP接口层。批量导出的单项失败
// 体现在响应体的errors字段里，HTTP状态码只反映请求本身是否成立。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricbridge/internal/export"
	"lyricbridge/internal/resolve"
	"lyricbridge/internal/settings"
	"lyricbridge/pkg/music"
)

const exportTimeout = 5 * time.Minute

// Server HTTP服务
type Server struct {
	addr         string
	registry     *music.Registry
	orchestrator *export.Orchestrator
	store        *settings.Store
	httpServer   *http.Server
	logger       zerolog.Logger
}

func New(addr string, registry *music.Registry, orchestrator *export.Orchestrator, store *settings.Store) *Server {
	s := &Server{
		addr:         addr,
		registry:     registry,
		orchestrator: orchestrator,
		store:        store,
		logger:       log.With().Str("component", "server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/settings", s.handleSettings)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Start 启动HTTP服务，阻塞直到服务退出
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown 优雅停机
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"providers": s.registry.Providers(),
	})
}

type searchRequest struct {
	Keyword  string `json:"keyword"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	provider, err := music.GetProviderByName(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	typ, err := music.ParseResourceType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	api, err := s.registry.Get(provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	songs, err := api.Search(r.Context(), req.Keyword, typ)
	if err != nil {
		s.logger.Error().Err(err).Str("keyword", req.Keyword).Msg("Search failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

type exportRequest struct {
	Input   string         `json:"input"`
	Options export.Options `json:"options"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()

	outcome, err := s.orchestrator.Export(ctx, req.Input, req.Options)
	if err != nil {
		// 整批失败也回200，错误放进summary，外壳永远有东西可渲染
		if errors.Is(err, resolve.ErrMalformedReference) || errors.Is(err, resolve.ErrUnrecognizedSource) {
			writeJSON(w, http.StatusOK, &export.Outcome{
				Errors:  map[string]string{},
				Summary: export.Summary{Message: err.Error()},
			})
			return
		}
		s.logger.Error().Err(err).Msg("Export failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 记住本次保存目录，下次导出作为默认值
	if req.Options.SaveDir != "" && s.store != nil {
		if _, err := s.store.Update(func(st *settings.Settings) {
			st.LastSaveDirectory = req.Options.SaveDir
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist last save directory")
		}
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "settings store unavailable")
		return
	}

	switch r.Method {
	case http.MethodGet:
		current, err := s.store.Load()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, current)

	case http.MethodPut:
		var incoming settings.Settings
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := s.store.Save(&incoming); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, &incoming)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
