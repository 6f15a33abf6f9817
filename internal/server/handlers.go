package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/bench"
	"github.com/hyperjump/cyborgbench/internal/evaluator"
	"github.com/hyperjump/cyborgbench/internal/models"
	"github.com/hyperjump/cyborgbench/internal/storage"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.WritePage(w, PageTitle); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req := models.ChatRequest{Message: r.FormValue("msg")}
	if err := req.Validate(); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.respond(r, req.Message)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	req := models.ChatRequest{Message: r.FormValue("msg")}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.respond(r, req.Message))
}

// respond runs one chat cycle: pipeline, dashboard, page log. Pipeline
// failures become the generic error reply.
func (s *Server) respond(r *http.Request, msg string) *models.ChatResponse {
	s.logger.Debug("chat request", zap.String("msg", msg))
	resp, err := s.pipeline.Respond(r.Context(), msg)
	if err != nil {
		s.logger.Error("pipeline failed", zap.Error(err))
		resp = models.ErrorResponse()
	}

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	model := s.dashboard.Apply(resp.Payload())
	if err := errors.Join(
		s.chatLog.RenderUser(msg),
		s.chatLog.RenderBot(resp.Response),
		s.chatLog.RenderDashboard(model),
	); err != nil {
		s.logger.Error("render chat log failed", zap.Error(err))
	}
	return resp
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.dashboard.Current())
}

// BackendStats summarizes the recent latency samples of one backend.
type BackendStats struct {
	bench.Summary
	// OverheadPercent is the primary's mean latency relative to this backend.
	OverheadPercent *float64 `json:"overhead_percent,omitempty"`
	Vectors         int      `json:"vectors"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Records   int64                              `json:"records"`
	Backends  map[evaluator.Backend]BackendStats `json:"backends"`
	DiskBytes map[string]int64                   `json:"disk_usage_bytes,omitempty"`
	Policy    evaluator.Policy                   `json:"policy"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := s.storage.CountRecords(ctx)
	if err != nil {
		s.logger.Error("stats: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sizes := s.pipeline.Sizes()
	resp := StatsResponse{
		Records:  records,
		Backends: make(map[evaluator.Backend]BackendStats, len(evaluator.Backends)),
		Policy:   s.config.Evaluator,
	}
	for _, b := range evaluator.Backends {
		samples, err := s.storage.ListSamples(ctx, string(b), statsWindow)
		if err != nil {
			s.logger.Error("stats: list samples failed", zap.String("backend", string(b)), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		values := make([]float64, len(samples))
		for i, sm := range samples {
			values[i] = sm.Seconds
		}
		resp.Backends[b] = BackendStats{Summary: bench.Summarize(values), Vectors: sizes[b]}
	}
	primary := resp.Backends[evaluator.BackendCyborg]
	for _, b := range evaluator.Comparators {
		st := resp.Backends[b]
		if primary.Count > 0 && st.Count > 0 && st.Avg > 0 {
			o := bench.OverheadPercent(primary.Avg, st.Avg)
			st.OverheadPercent = &o
			resp.Backends[b] = st
		}
	}

	paths := s.config.Storage
	disk, err := storage.Footprint(map[string]string{
		"database": paths.DatabasePath,
		"bleve":    paths.BleveIndexPath,
		"chroma":   paths.ChromaPath,
		"faiss":    paths.FAISSIndexPath,
		"cyborg":   paths.CyborgIndexPath,
	})
	if err != nil {
		s.logger.Warn("stats: disk usage failed", zap.Error(err))
	} else {
		resp.DiskBytes = disk
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
