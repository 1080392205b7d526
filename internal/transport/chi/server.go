// Package chi exposes the ranking engine over HTTP: public search plus the
// administrative index triggers, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lawnald/counselrank/internal/domain"
	"github.com/lawnald/counselrank/internal/domain/rank/request"
	"github.com/lawnald/counselrank/internal/usecase/health"
	"github.com/lawnald/counselrank/internal/usecase/ranking"
	"github.com/lawnald/counselrank/internal/vectorstore"
)

// errorCode is the machine-readable error discriminator in error responses.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeUnauthorized     errorCode = "unauthorized"
	codeNotFound         errorCode = "not_found"
	codeUnknownItemType  errorCode = "unknown_item_type"
	codeProviderError    errorCode = "embedding_provider_error"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        Searcher
	indexer       Indexer
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, indexer Indexer, healthSvc HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		indexer: indexer,
		health:  healthSvc,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProfileNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUnknownItemType, http.StatusBadRequest, codeUnknownItemType),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/admin/reindex", s.handleReindex)
	r.Post("/v1/admin/items", s.handleInsertItem)
	r.Post("/v1/admin/flush", s.handleFlush)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type searchFiltersDTO struct {
	Location  string `json:"location,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Education string `json:"education,omitempty"`
	CareerTag string `json:"career_tag,omitempty"`
}

type searchRequestDTO struct {
	Query    string           `json:"query"`
	Filters  searchFiltersDTO `json:"filters"`
	PageSize int              `json:"page_size"`
}

type caseDTO struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

type contentDTO struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

type searchResultDTO struct {
	OwnerID           string      `json:"owner_id"`
	Name              string      `json:"name"`
	Firm              string      `json:"firm,omitempty"`
	Location          string      `json:"location,omitempty"`
	Score             float64     `json:"score"`
	PracticeScore     float64     `json:"practice_score"`
	ContentScore      float64     `json:"content_score"`
	BestCase          *caseDTO    `json:"best_case,omitempty"`
	BestContent       *contentDTO `json:"best_content,omitempty"`
	Explanation       string      `json:"explanation"`
	ContentHighlights string      `json:"content_highlights,omitempty"`
	Online            bool        `json:"online"`
}

type searchResponseDTO struct {
	Results         []searchResultDTO    `json:"results"`
	AnalysisSummary string               `json:"analysis_summary"`
	Analysis        domain.QueryAnalysis `json:"analysis"`
	Message         string               `json:"message,omitempty"`
	Degraded        bool                 `json:"degraded"`
}

// handleSearch handles POST /v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(dto.Query, request.Filters{
		Location:  dto.Filters.Location,
		Gender:    dto.Filters.Gender,
		Education: dto.Filters.Education,
		CareerTag: dto.Filters.CareerTag,
	}, dto.PageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

func searchResponseToDTO(resp ranking.Response) searchResponseDTO {
	results := make([]searchResultDTO, len(resp.Results))
	for i := range resp.Results {
		res := &resp.Results[i]
		prof := res.Profile()

		dto := searchResultDTO{
			OwnerID:           prof.ID,
			Name:              prof.Name,
			Firm:              prof.Firm,
			Location:          prof.Location,
			Score:             res.Score(),
			PracticeScore:     res.PracticeScore(),
			ContentScore:      res.ContentScore(),
			Explanation:       res.Explanation(),
			ContentHighlights: res.ContentHighlights(),
			Online:            res.Online(),
		}
		if bc := res.BestCase(); bc != nil {
			dto.BestCase = &caseDTO{Title: bc.Title, Summary: bc.Summary}
		}
		if bc := res.BestContent(); bc != nil {
			dto.BestContent = &contentDTO{Title: bc.Title, Type: string(bc.Type)}
		}
		results[i] = dto
	}

	return searchResponseDTO{
		Results:         results,
		AnalysisSummary: resp.Summary,
		Analysis:        resp.Analysis,
		Message:         resp.Message,
		Degraded:        resp.Degraded,
	}
}

// handleReindex handles POST /v1/admin/reindex. The rebuild runs on the
// request context: a disconnecting admin client cancels it.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.RebuildIndex(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type insertItemDTO struct {
	OwnerID   string `json:"owner_id"`
	ItemType  string `json:"item_type"`
	Text      string `json:"text"`
	ItemIndex int    `json:"item_index"`
}

// handleInsertItem handles POST /v1/admin/items.
func (s *Server) handleInsertItem(w http.ResponseWriter, r *http.Request) {
	var dto insertItemDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if dto.OwnerID == "" || dto.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "owner_id and text are required")
		return
	}

	err := s.indexer.InsertItem(
		r.Context(), dto.OwnerID, vectorstore.ItemType(dto.ItemType), dto.Text, dto.ItemIndex,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "indexed"})
}

// handleFlush handles POST /v1/admin/flush: persists the live index,
// including items added incrementally since the last rebuild.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.indexer.Flush(); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrProfileNotFound,
		domain.ErrUnknownItemType,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
