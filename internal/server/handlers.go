package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/models"
	"github.com/totalquality/qassist/internal/search"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))
	query := &models.SearchQuery{Query: q.Get("q"), Fuzzy: fuzzy}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Bool("fuzzy", query.Fuzzy))

	response, err := s.engine.Query(r.Context(), query)
	if err != nil {
		if errors.Is(err, search.ErrQueryTooLong) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := s.knowledge.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "entry not found")
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := s.knowledge.Current().Suggestions()
	if suggestions == nil {
		suggestions = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (s *Server) handleMatchPrograms(w http.ResponseWriter, r *http.Request) {
	var query models.ProgramQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	programs := s.knowledge.Current().FindPrograms(query)
	if programs == nil {
		programs = []models.ProgramMatrix{}
	}
	s.logger.Debug("program match", zap.Int("credit_score", query.CreditScore),
		zap.Float64("loan_amount", query.LoanAmount), zap.Int("matches", len(programs)))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":    query,
		"programs": programs,
		"count":    len(programs),
	})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req models.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	systemPrompt, entries := s.prompts.ForQuery(req.Query)
	if entries == nil {
		entries = []models.KnowledgeEntry{}
	}
	s.respondJSON(w, http.StatusOK, models.PromptResponse{SystemPrompt: systemPrompt, Entries: entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	store := s.knowledge.Current()
	resp := map[string]interface{}{
		"entries":  store.Len(),
		"matrices": len(store.Matrices()),
		"company":  store.Profile().Company.Name,
	}
	if paths := s.knowledge.Paths(); len(paths) > 0 {
		resp["knowledge_paths"] = paths
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
